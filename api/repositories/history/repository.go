package repositories

import (
	"context"
	"lifebit/api/filters"
	"lifebit/pkg/database/models"

	"gorm.io/gorm"
)

// Page size applied when a single filter dimension is given, matching the
// paged reads of the ranking screens.
const filteredHistoryLimit = 30

// Period type written by a season close.
const seasonPeriodType = "season"

// HistoryRepository handles the immutable ranking snapshots.
type HistoryRepository interface {
	CreateBatch(ctx context.Context, entries []models.RankingHistory) error
	ListByFilter(ctx context.Context, filter *filters.RankingHistoryFilter) ([]models.RankingHistory, error)
	TopByPeriod(ctx context.Context, periodType string, limit int) ([]models.RankingHistory, error)
	TopBySeason(ctx context.Context, season, limit int) ([]models.RankingHistory, error)
}

// historyRepository is the repository instance.
type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new repository over the given connection.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// CreateBatch inserts the snapshots of a season close in chunks.
func (hs *historyRepository) CreateBatch(ctx context.Context, entries []models.RankingHistory) error {
	if len(entries) == 0 {
		return nil
	}

	return hs.db.WithContext(ctx).CreateInBatches(&entries, 1000).Error
}

// ListByFilter returns snapshots newest first. With no filter set every entry
// is returned; a single dimension is paged to the screen limit.
func (hs *historyRepository) ListByFilter(ctx context.Context, filter *filters.RankingHistoryFilter) ([]models.RankingHistory, error) {
	query := hs.db.WithContext(ctx).
		Preload("UserRanking").
		Order("recorded_at DESC")

	limited := false
	if filter.PeriodType != "" {
		query = query.Where("period_type = ?", filter.PeriodType)
		limited = true
	}
	if filter.Season != nil {
		query = query.Where("season = ?", *filter.Season)
	}

	// Both filters together is a narrow read already, keep it unpaged.
	if limited && filter.Season == nil || !limited && filter.Season != nil {
		query = query.Limit(filteredHistoryLimit)
	}

	var histories []models.RankingHistory
	err := query.Find(&histories).Error
	return histories, err
}

// TopBySeason returns the closing standings of one season, best score first.
// The season reset wipes the live rows, so closed seasons only exist here.
func (hs *historyRepository) TopBySeason(ctx context.Context, season, limit int) ([]models.RankingHistory, error) {
	var histories []models.RankingHistory
	err := hs.db.WithContext(ctx).
		Preload("UserRanking").
		Where("period_type = ? AND season = ?", seasonPeriodType, season).
		Order("total_score DESC, id ASC").
		Limit(limit).
		Find(&histories).Error
	return histories, err
}

// TopByPeriod returns the most recent snapshots for one period type.
func (hs *historyRepository) TopByPeriod(ctx context.Context, periodType string, limit int) ([]models.RankingHistory, error) {
	var histories []models.RankingHistory
	err := hs.db.WithContext(ctx).
		Preload("UserRanking").
		Where("period_type = ?", periodType).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&histories).Error
	return histories, err
}
