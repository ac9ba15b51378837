package repositories

import (
	"context"
	"lifebit/api/filters"
	"lifebit/api/repositories/testutil"
	"lifebit/pkg/database/models"
	tiervalues "lifebit/pkg/rankvalues/tier"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewHistoryRepository(t *testing.T) {
	repository := NewHistoryRepository(&gorm.DB{})
	assert.NotNil(t, repository)
}

// seedHistoryData creates one ranking row per user and a few snapshots.
func seedHistoryData(t *testing.T, db *gorm.DB) []models.RankingHistory {
	t.Helper()

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	rankings := []models.UserRanking{
		{UserID: 1, TotalScore: 900, RankPosition: 1, Tier: tiervalues.Bronze, Season: 1, Active: true, LastUpdatedAt: base},
		{UserID: 2, TotalScore: 500, RankPosition: 2, Tier: tiervalues.Bronze, Season: 1, Active: true, LastUpdatedAt: base},
	}
	require.NoError(t, db.Create(&rankings).Error)

	snapshots := []models.RankingHistory{
		{UserRankingID: rankings[0].ID, TotalScore: 900, RankPosition: 1, Season: 1, PeriodType: "season", RecordedAt: base},
		{UserRankingID: rankings[1].ID, TotalScore: 500, RankPosition: 2, Season: 1, PeriodType: "season", RecordedAt: base},
		{UserRankingID: rankings[0].ID, TotalScore: 300, RankPosition: 1, Season: 2, PeriodType: "weekly", RecordedAt: base.AddDate(0, 1, 0)},
	}
	require.NoError(t, db.Create(&snapshots).Error)

	return snapshots
}

// Run tests on the filter combinations of the history listing.
func TestListByFilter(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	repository := NewHistoryRepository(db)
	seedHistoryData(t, db)

	season := 1

	tests := []struct {
		name          string
		filter        *filters.RankingHistoryFilter
		expectedCount int
	}{
		{name: "unfiltered", filter: &filters.RankingHistoryFilter{}, expectedCount: 3},
		{name: "byPeriodType", filter: &filters.RankingHistoryFilter{PeriodType: "season"}, expectedCount: 2},
		{name: "bySeason", filter: &filters.RankingHistoryFilter{Season: &season}, expectedCount: 2},
		{name: "byBoth", filter: &filters.RankingHistoryFilter{PeriodType: "weekly", Season: &season}, expectedCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repository.ListByFilter(context.Background(), tt.filter)

			require.NoError(t, err)
			assert.Len(t, result, tt.expectedCount)

			// Newest first, with the owning ranking preloaded.
			for i := 1; i < len(result); i++ {
				assert.False(t, result[i].RecordedAt.After(result[i-1].RecordedAt))
			}
			for _, entry := range result {
				assert.NotZero(t, entry.UserRanking.ID)
			}
		})
	}
}

// TopByPeriod returns the most recent snapshots of one period type only.
func TestTopByPeriod(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	repository := NewHistoryRepository(db)
	seedHistoryData(t, db)

	result, err := repository.TopByPeriod(context.Background(), "season", 10)

	require.NoError(t, err)
	require.Len(t, result, 2)
	for _, entry := range result {
		assert.Equal(t, "season", entry.PeriodType)
	}
}

// TopBySeason only returns the close snapshots of the requested season,
// ordered by score.
func TestTopBySeason(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	repository := NewHistoryRepository(db)
	seedHistoryData(t, db)

	result, err := repository.TopBySeason(context.Background(), 1, 10)

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, 900, result[0].TotalScore)
	assert.Equal(t, 500, result[1].TotalScore)
	for _, entry := range result {
		assert.Equal(t, seasonPeriodType, entry.PeriodType)
		assert.Equal(t, 1, entry.Season)
		assert.NotZero(t, entry.UserRanking.ID)
	}

	// The weekly snapshot of season 2 must never leak into the season read.
	empty, err := repository.TopBySeason(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// An empty batch is a no-op, a filled one lands in a single call.
func TestCreateBatch(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	repository := NewHistoryRepository(db)

	require.NoError(t, repository.CreateBatch(context.Background(), nil))

	ranking := models.UserRanking{UserID: 7, TotalScore: 100, Tier: tiervalues.Bronze, Season: 1, Active: true, LastUpdatedAt: time.Now()}
	require.NoError(t, db.Create(&ranking).Error)

	entries := []models.RankingHistory{
		{UserRankingID: ranking.ID, TotalScore: 100, RankPosition: 1, Season: 1, PeriodType: "season", RecordedAt: time.Now()},
	}
	require.NoError(t, repository.CreateBatch(context.Background(), entries))

	var count int64
	require.NoError(t, db.Model(&models.RankingHistory{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
