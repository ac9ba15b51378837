package repositories

import (
	"context"
	"errors"
	"lifebit/pkg/database/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Advisory lock key shared by the season close and the per-user score writers.
const seasonLockKey = "lifebit_season_transition_lock"

// RankingRepository is the public interface over the versioned ranking ledger.
type RankingRepository interface {
	AcquireSeasonLock(ctx context.Context) error
	AcquireSeasonLockShared(ctx context.Context) error
	CountActive(ctx context.Context) (int64, error)
	CountActiveWithHigherScore(ctx context.Context, totalScore int) (int64, error)
	Create(ctx context.Context, ranking *models.UserRanking) error
	CurrentSeason(ctx context.Context) (int, error)
	Deactivate(ctx context.Context, ranking *models.UserRanking, now time.Time) error
	GetActiveByUserID(ctx context.Context, userID uint) (*models.UserRanking, error)
	GetActiveByUserIDForUpdate(ctx context.Context, userID uint) (*models.UserRanking, error)
	ListActive(ctx context.Context) ([]models.UserRanking, error)
	ResetActiveForNewSeason(ctx context.Context, newSeason int, now time.Time) error
	Save(ctx context.Context, ranking *models.UserRanking) error
	SaveAll(ctx context.Context, rankings []models.UserRanking) error
	TopActiveByScore(ctx context.Context, limit int) ([]models.UserRanking, error)
	TopActiveByStreak(ctx context.Context, limit int) ([]models.UserRanking, error)
	TopBySeason(ctx context.Context, season, limit int) ([]models.UserRanking, error)
}

// rankingRepository is the repository instance.
type rankingRepository struct {
	db *gorm.DB
}

// NewRankingRepository creates a new repository over the given connection,
// which may be a transaction handle.
func NewRankingRepository(db *gorm.DB) RankingRepository {
	return &rankingRepository{db: db}
}

// AcquireSeasonLock takes the exclusive season transition lock for the current
// transaction. Blocks until every shared holder (per-user writers) is done.
func (rs *rankingRepository) AcquireSeasonLock(ctx context.Context) error {
	return rs.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", seasonLockKey).Error
}

// AcquireSeasonLockShared takes the shared variant, held by per-user score
// writers so they never interleave with a season close.
func (rs *rankingRepository) AcquireSeasonLockShared(ctx context.Context) error {
	return rs.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock_shared(hashtext(?))", seasonLockKey).Error
}

// CountActive counts the active population.
func (rs *rankingRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := rs.db.WithContext(ctx).
		Model(&models.UserRanking{}).
		Where("active = ?", true).
		Count(&count).Error
	return count, err
}

// CountActiveWithHigherScore counts active records scoring strictly above the
// given total. Ties are deliberately not counted.
func (rs *rankingRepository) CountActiveWithHigherScore(ctx context.Context, totalScore int) (int64, error) {
	var count int64
	err := rs.db.WithContext(ctx).
		Model(&models.UserRanking{}).
		Where("active = ? AND total_score > ?", true, totalScore).
		Count(&count).Error
	return count, err
}

// Create inserts a new ranking version.
func (rs *rankingRepository) Create(ctx context.Context, ranking *models.UserRanking) error {
	return rs.db.WithContext(ctx).Create(ranking).Error
}

// CurrentSeason resolves the running season from the active population.
// An empty ledger means season 1.
func (rs *rankingRepository) CurrentSeason(ctx context.Context) (int, error) {
	var season int
	err := rs.db.WithContext(ctx).
		Model(&models.UserRanking{}).
		Where("active = ?", true).
		Select("COALESCE(MAX(season), 1)").
		Scan(&season).Error
	return season, err
}

// Deactivate flips the active flag of a superseded version. The row stays as a
// permanent ledger artifact.
func (rs *rankingRepository) Deactivate(ctx context.Context, ranking *models.UserRanking, now time.Time) error {
	ranking.Active = false
	ranking.LastUpdatedAt = now
	return rs.db.WithContext(ctx).
		Model(ranking).
		Updates(map[string]any{"active": false, "last_updated_at": now}).Error
}

// GetActiveByUserID returns the single active record, or nil when the user has
// never been scored.
func (rs *rankingRepository) GetActiveByUserID(ctx context.Context, userID uint) (*models.UserRanking, error) {
	return rs.getActive(ctx, userID, false)
}

// GetActiveByUserIDForUpdate is the locking variant used inside score
// transactions: concurrent writers for the same user serialize on the row.
func (rs *rankingRepository) GetActiveByUserIDForUpdate(ctx context.Context, userID uint) (*models.UserRanking, error) {
	return rs.getActive(ctx, userID, true)
}

func (rs *rankingRepository) getActive(ctx context.Context, userID uint, forUpdate bool) (*models.UserRanking, error) {
	query := rs.db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var ranking models.UserRanking
	err := query.
		Where("user_id = ? AND active = ?", userID, true).
		First(&ranking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &ranking, nil
}

// ListActive loads the whole active population in insertion order.
func (rs *rankingRepository) ListActive(ctx context.Context) ([]models.UserRanking, error) {
	var rankings []models.UserRanking
	err := rs.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&rankings).Error
	return rankings, err
}

// ResetActiveForNewSeason zeroes every active record in place and moves it to
// the new season. The only sanctioned in-place score mutation in the ledger.
func (rs *rankingRepository) ResetActiveForNewSeason(ctx context.Context, newSeason int, now time.Time) error {
	return rs.db.WithContext(ctx).
		Model(&models.UserRanking{}).
		Where("active = ?", true).
		Updates(map[string]any{
			"season":          newSeason,
			"total_score":     0,
			"goal_based_score": 0,
			"rank_position":   0,
			"previous_rank":   0,
			"streak_days":     0,
			"tier":            "UNRANK",
			"last_updated_at": now,
		}).Error
}

// Save persists every field of an existing row.
func (rs *rankingRepository) Save(ctx context.Context, ranking *models.UserRanking) error {
	return rs.db.WithContext(ctx).Save(ranking).Error
}

// SaveAll persists a batch of existing rows.
func (rs *rankingRepository) SaveAll(ctx context.Context, rankings []models.UserRanking) error {
	if len(rankings) == 0 {
		return nil
	}

	db := rs.db.WithContext(ctx)
	for i := range rankings {
		if err := db.Save(&rankings[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// TopActiveByScore returns the highest scoring active records.
func (rs *rankingRepository) TopActiveByScore(ctx context.Context, limit int) ([]models.UserRanking, error) {
	var rankings []models.UserRanking
	err := rs.db.WithContext(ctx).
		Where("active = ?", true).
		Order("total_score DESC, id ASC").
		Limit(limit).
		Find(&rankings).Error
	return rankings, err
}

// TopActiveByStreak returns the longest streak holders.
func (rs *rankingRepository) TopActiveByStreak(ctx context.Context, limit int) ([]models.UserRanking, error) {
	var rankings []models.UserRanking
	err := rs.db.WithContext(ctx).
		Where("active = ?", true).
		Order("streak_days DESC, id ASC").
		Limit(limit).
		Find(&rankings).Error
	return rankings, err
}

// TopBySeason returns the top records of one season, any version state.
func (rs *rankingRepository) TopBySeason(ctx context.Context, season, limit int) ([]models.UserRanking, error) {
	var rankings []models.UserRanking
	err := rs.db.WithContext(ctx).
		Where("season = ? AND active = ?", season, true).
		Order("total_score DESC, id ASC").
		Limit(limit).
		Find(&rankings).Error
	return rankings, err
}
