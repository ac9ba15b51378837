package rankingservice

import (
	"context"
	"errors"
	"fmt"
	repotestutil "lifebit/api/repositories/testutil"
	"lifebit/api/services/testutil"
	"lifebit/pkg/database/models"
	"lifebit/pkg/messages"
	tiervalues "lifebit/pkg/rankvalues/tier"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newLedgerService wires a service over a real database with mocked
// collaborators. Cache and notifier calls are tolerated but not required.
func newLedgerService(t *testing.T) (*RankingService, *gorm.DB, *testutil.MockScoreCalculator, *testutil.MockNotifier, func()) {
	t.Helper()

	db, cleanup := repotestutil.NewTestConnection(t)

	mockMemCache := new(testutil.MockMemCache)
	mockRedis := new(testutil.MockRedisClient)
	mockUsers := new(testutil.MockUserDirectory)
	mockCalculator := new(testutil.MockScoreCalculator)
	mockNotifier := new(testutil.MockNotifier)

	mockMemCache.On("Delete", mock.Anything).Return().Maybe()
	mockRedis.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	mockUsers.On("Nickname", mock.Anything, mock.Anything).Return("user", nil).Maybe()

	service := NewRankingService(&RankingServiceDeps{
		DB:         db,
		MemCache:   mockMemCache,
		Redis:      mockRedis,
		Users:      mockUsers,
		Calculator: mockCalculator,
		Notifier:   mockNotifier,
	})

	return service, db, mockCalculator, mockNotifier, cleanup
}

func countVersions(t *testing.T, db *gorm.DB, userID uint) (total, active int64) {
	t.Helper()

	require.NoError(t, db.Model(&models.UserRanking{}).Where("user_id = ?", userID).Count(&total).Error)
	require.NoError(t, db.Model(&models.UserRanking{}).Where("user_id = ? AND active = ?", userID, true).Count(&active).Error)
	return total, active
}

// EnsureDefault creates the zero-value record once and then keeps returning it.
func TestEnsureDefault(t *testing.T) {
	service, db, _, _, cleanup := newLedgerService(t)
	defer cleanup()

	ctx := context.Background()

	created, err := service.EnsureDefault(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 0, created.TotalScore)
	assert.Equal(t, tiervalues.Unrank, created.Tier)
	assert.Equal(t, 1, created.Season)
	assert.True(t, created.Active)

	again, err := service.EnsureDefault(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	total, activeCount := countVersions(t, db, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), activeCount)
}

// EnsureDefault must wait out a running season transition before creating the
// record, like every other ledger writer.
func TestEnsureDefaultWaitsForSeasonTransition(t *testing.T) {
	service, db, _, _, cleanup := newLedgerService(t)
	defer cleanup()

	ctx := context.Background()

	// Hold the exclusive transition lock on a dedicated connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)

	conn, err := sqlDB.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)

	_, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext('lifebit_season_transition_lock'))")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, ensureErr := service.EnsureDefault(ctx, 1)
		done <- ensureErr
	}()

	select {
	case <-done:
		t.Fatal("EnsureDefault finished while the transition lock was held")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, tx.Commit())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("EnsureDefault never finished after the lock was released")
	}

	active, err := service.GetActive(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.True(t, active.Active)
}

// Consecutive deltas add up on a single active record, with every superseded
// version kept in the ledger.
func TestAddIncrementalScoreAdditivity(t *testing.T) {
	service, db, _, mockNotifier, cleanup := newLedgerService(t)
	defer cleanup()

	ctx := context.Background()

	mockNotifier.On("TierChange", mock.Anything, uint(1), tiervalues.Unrank, tiervalues.Bronze).Return()
	mockNotifier.On("TierChange", mock.Anything, uint(1), tiervalues.Bronze, tiervalues.Silver).Return()

	require.NoError(t, service.AddIncrementalScore(ctx, 1, 500, "workout"))
	require.NoError(t, service.AddIncrementalScore(ctx, 1, 700, "meal streak"))

	active, err := service.GetActive(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 1200, active.TotalScore)
	assert.Equal(t, tiervalues.Silver, active.Tier)
	assert.Equal(t, 1, active.RankPosition)

	total, activeCount := countVersions(t, db, 1)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), activeCount)

	mockNotifier.AssertExpectations(t)
}

// An unchanged goal score leaves the ledger untouched.
func TestUpdateGoalAchievementScoreIdempotent(t *testing.T) {
	service, db, mockCalculator, mockNotifier, cleanup := newLedgerService(t)
	defer cleanup()

	ctx := context.Background()

	mockCalculator.On("GoalBasedScore", mock.Anything, uint(1)).Return(10)
	mockNotifier.On("TierChange", mock.Anything, uint(1), tiervalues.Unrank, tiervalues.Bronze).Return().Once()

	require.NoError(t, service.UpdateGoalAchievementScore(ctx, 1))

	totalBefore, _ := countVersions(t, db, 1)

	// Same score again: no new version, no notification.
	require.NoError(t, service.UpdateGoalAchievementScore(ctx, 1))

	totalAfter, activeCount := countVersions(t, db, 1)
	assert.Equal(t, totalBefore, totalAfter)
	assert.Equal(t, int64(1), activeCount)

	active, err := service.GetActive(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, active.TotalScore)
	assert.Equal(t, 10, active.GoalBasedScore)

	mockNotifier.AssertExpectations(t)
}

// The first goal update of a user with nothing to score creates the default
// record instead of failing.
func TestUpdateGoalAchievementScoreNewUserZero(t *testing.T) {
	service, _, mockCalculator, _, cleanup := newLedgerService(t)
	defer cleanup()

	ctx := context.Background()

	mockCalculator.On("GoalBasedScore", mock.Anything, uint(5)).Return(0)

	require.NoError(t, service.UpdateGoalAchievementScore(ctx, 5))

	active, err := service.GetActive(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 0, active.TotalScore)
	assert.Equal(t, tiervalues.Unrank, active.Tier)
	assert.Equal(t, 1, active.Season)
}

// A failing goal update surfaces the user scoped message with the cause
// attached.
func TestUpdateGoalAchievementScoreWrapsFailure(t *testing.T) {
	service, db, mockCalculator, _, cleanup := newLedgerService(t)
	defer cleanup()

	mockCalculator.On("GoalBasedScore", mock.Anything, uint(1)).Return(10)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = service.UpdateGoalAchievementScore(context.Background(), 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf(messages.ScoreUpdateFailed, 1))
}

// The single position update needs an active record to work on.
func TestUpdateUserRankingPositionMissing(t *testing.T) {
	service, _, _, _, cleanup := newLedgerService(t)
	defer cleanup()

	err := service.UpdateUserRankingPosition(context.Background(), 77)

	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf(messages.ActiveRankingNotFound, 77))
}

// The bulk resort assigns a dense permutation of 1..N following the scores.
func TestUpdateRankingPositionsPermutation(t *testing.T) {
	service, _, _, mockNotifier, cleanup := newLedgerService(t)
	defer cleanup()

	ctx := context.Background()

	mockNotifier.On("TierChange", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Maybe()

	scores := map[uint]int{1: 400, 2: 900, 3: 100, 4: 700}
	for userID, score := range scores {
		require.NoError(t, service.AddIncrementalScore(ctx, userID, score, "seed"))
	}

	require.NoError(t, service.UpdateRankingPositions(ctx))

	actives, err := service.RankingRepository.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, actives, len(scores))

	positions := make([]int, 0, len(actives))
	for _, record := range actives {
		positions = append(positions, record.RankPosition)
	}
	sort.Ints(positions)
	assert.Equal(t, []int{1, 2, 3, 4}, positions)

	// Higher scores must hold lower position numbers.
	byUser := make(map[uint]int, len(actives))
	for _, record := range actives {
		byUser[record.UserID] = record.RankPosition
	}
	assert.Equal(t, 1, byUser[2])
	assert.Equal(t, 2, byUser[4])
	assert.Equal(t, 3, byUser[1])
	assert.Equal(t, 4, byUser[3])
}

// The season close snapshots the full population, announces the end and
// restarts everyone at zero in the next season.
func TestCloseSeasonAndResetRankings(t *testing.T) {
	service, db, _, mockNotifier, cleanup := newLedgerService(t)
	defer cleanup()

	ctx := context.Background()

	mockNotifier.On("TierChange", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
	mockNotifier.On("SeasonEnd", mock.Anything, 1).Return().Once()

	require.NoError(t, service.AddIncrementalScore(ctx, 1, 1500, "seed"))
	require.NoError(t, service.AddIncrementalScore(ctx, 2, 800, "seed"))

	require.NoError(t, service.CloseSeasonAndResetRankings(ctx))

	// Every active record restarts at zero in season 2.
	actives, err := service.RankingRepository.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, actives, 2)
	for _, record := range actives {
		assert.Equal(t, 2, record.Season)
		assert.Equal(t, 0, record.TotalScore)
		assert.Equal(t, tiervalues.Unrank, record.Tier)
	}

	// The closed season survives as snapshots.
	var snapshots []models.RankingHistory
	require.NoError(t, db.Where("period_type = ? AND season = ?", PeriodTypeSeason, 1).Find(&snapshots).Error)
	require.Len(t, snapshots, 2)

	recovered := make(map[int]bool, len(snapshots))
	for _, snapshot := range snapshots {
		recovered[snapshot.TotalScore] = true
	}
	assert.True(t, recovered[1500])
	assert.True(t, recovered[800])

	mockNotifier.AssertExpectations(t)

	season, err := service.RankingRepository.CurrentSeason(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, season)

	// The closed season stays readable through the public surface, backed by
	// the snapshots.
	rankers, err := service.GetSeasonRankings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rankers, 2)
	assert.Equal(t, uint(1), rankers[0].UserID)
	assert.Equal(t, 1500, rankers[0].Score)
	assert.Equal(t, tiervalues.Silver, rankers[0].Tier)
	assert.Equal(t, uint(2), rankers[1].UserID)
	assert.Equal(t, 800, rankers[1].Score)
}

// The scheduled bulk update recomputes every score and tier from the facts.
func TestScheduledRankingUpdate(t *testing.T) {
	service, _, mockCalculator, mockNotifier, cleanup := newLedgerService(t)
	defer cleanup()

	ctx := context.Background()

	mockNotifier.On("TierChange", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Maybe()

	require.NoError(t, service.AddIncrementalScore(ctx, 1, 100, "seed"))
	require.NoError(t, service.AddIncrementalScore(ctx, 2, 100, "seed"))

	mockCalculator.On("TotalScore", mock.Anything, uint(1)).Return(2500, nil)
	mockCalculator.On("TotalScore", mock.Anything, uint(2)).Return(50, nil)

	require.NoError(t, service.ScheduledRankingUpdate(ctx))

	first, err := service.GetActive(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2500, first.TotalScore)
	assert.Equal(t, tiervalues.Gold, first.Tier)
	assert.NotZero(t, first.PreviousRank)

	second, err := service.GetActive(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 50, second.TotalScore)
	assert.Equal(t, tiervalues.Bronze, second.Tier)
}

// A failing recompute skips the user instead of wiping the accumulated score.
func TestScheduledRankingUpdateSkipsFailedUsers(t *testing.T) {
	service, _, mockCalculator, mockNotifier, cleanup := newLedgerService(t)
	defer cleanup()

	ctx := context.Background()

	mockNotifier.On("TierChange", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Maybe()

	require.NoError(t, service.AddIncrementalScore(ctx, 1, 3000, "seed"))
	require.NoError(t, service.AddIncrementalScore(ctx, 2, 100, "seed"))

	mockCalculator.On("TotalScore", mock.Anything, uint(1)).
		Return(0, errors.New(testutil.DatabaseError))
	mockCalculator.On("TotalScore", mock.Anything, uint(2)).Return(1200, nil)

	require.NoError(t, service.ScheduledRankingUpdate(ctx))

	skipped, err := service.GetActive(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3000, skipped.TotalScore)
	assert.Equal(t, tiervalues.Platinum, skipped.Tier)

	updated, err := service.GetActive(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1200, updated.TotalScore)
	assert.Equal(t, tiervalues.Silver, updated.Tier)
}
