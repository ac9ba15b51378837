package rankingservice

import (
	"context"
	"fmt"
	rankingrepo "lifebit/api/repositories/ranking"
	"lifebit/pkg/database/models"
	"lifebit/pkg/messages"
	tiervalues "lifebit/pkg/rankvalues/tier"
	"log"
	"time"

	"gorm.io/gorm"
)

// tierTransition is a tier change detected inside a ledger transaction,
// notified only after the transaction committed.
type tierTransition struct {
	userID       uint
	previousTier string
	newTier      string
}

// GetActive returns the single active ledger record of a user, nil when the
// user was never scored.
func (s *RankingService) GetActive(ctx context.Context, userID uint) (*models.UserRanking, error) {
	return s.RankingRepository.GetActiveByUserID(ctx, userID)
}

// EnsureDefault returns the active record, creating the zero-value one inside
// a transaction when the user has none yet.
func (s *RankingService) EnsureDefault(ctx context.Context, userID uint) (*models.UserRanking, error) {
	var record *models.UserRanking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := rankingrepo.NewRankingRepository(tx)

		if err := repo.AcquireSeasonLockShared(ctx); err != nil {
			return err
		}

		current, err := repo.GetActiveByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if current != nil {
			record = current
			return nil
		}

		season, err := repo.CurrentSeason(ctx)
		if err != nil {
			return err
		}

		record = defaultRanking(userID, season, time.Now())
		return repo.Create(ctx, record)
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't ensure the default ranking: %w", err)
	}

	return record, nil
}

// AddIncrementalScore applies a score delta by superseding the active record:
// the current version is deactivated, a new active version carries the summed
// total, and the user's position is recomputed, all in one transaction.
func (s *RankingService) AddIncrementalScore(ctx context.Context, userID uint, delta int, reason string) error {
	transition, err := s.applyScoreChange(ctx, userID, delta, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", fmt.Sprintf(messages.ScoreUpdateFailed, userID), err)
	}

	log.Printf("incremental score applied: user=%d delta=%d reason=%s", userID, delta, reason)

	if transition != nil {
		s.notifier.TierChange(ctx, transition.userID, transition.previousTier, transition.newTier)
	}

	return nil
}

// UpdateGoalAchievementScore recomputes the goal-based score and applies the
// difference as an incremental update. An unchanged score is a no-op, so late
// or duplicate triggers cost at most one extra read.
func (s *RankingService) UpdateGoalAchievementScore(ctx context.Context, userID uint) error {
	// Collaborator calls stay outside the transaction; the stored value is
	// re-checked under the row lock before any write happens.
	newGoalScore := s.calculator.GoalBasedScore(ctx, userID)

	var transition *tierTransition

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := rankingrepo.NewRankingRepository(tx)

		if err := repo.AcquireSeasonLockShared(ctx); err != nil {
			return err
		}

		current, err := repo.GetActiveByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		previousGoalScore := 0
		if current != nil {
			previousGoalScore = current.GoalBasedScore
		}

		if newGoalScore == previousGoalScore {
			if current != nil {
				return nil
			}

			// First contact with the ledger and nothing to score yet.
			season, err := repo.CurrentSeason(ctx)
			if err != nil {
				return err
			}
			return repo.Create(ctx, defaultRanking(userID, season, time.Now()))
		}

		transition, err = s.supersede(ctx, repo, current, userID, newGoalScore-previousGoalScore, &newGoalScore)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", fmt.Sprintf(messages.ScoreUpdateFailed, userID), err)
	}

	if transition != nil {
		s.notifier.TierChange(ctx, transition.userID, transition.previousTier, transition.newTier)
	}

	return nil
}

// UpdateExerciseScore refreshes the caller's score after an exercise change.
// Best-effort: callers recording a workout must not fail because of scoring.
func (s *RankingService) UpdateExerciseScore(ctx context.Context, userID uint) {
	if err := s.UpdateGoalAchievementScore(ctx, userID); err != nil {
		log.Printf("exercise score update failed for user %d: %v", userID, err)
	}
}

// UpdateNutritionScore refreshes the caller's score after a meal change.
// Best-effort like UpdateExerciseScore.
func (s *RankingService) UpdateNutritionScore(ctx context.Context, userID uint) {
	if err := s.UpdateGoalAchievementScore(ctx, userID); err != nil {
		log.Printf("nutrition score update failed for user %d: %v", userID, err)
	}
}

// HandleExerciseCompletion is the hook fired after a workout is recorded.
func (s *RankingService) HandleExerciseCompletion(ctx context.Context, userID uint) {
	s.UpdateExerciseScore(ctx, userID)
}

// HandleMealCompletion is the hook fired after a meal is logged.
func (s *RankingService) HandleMealCompletion(ctx context.Context, userID uint) {
	s.UpdateNutritionScore(ctx, userID)
}

// applyScoreChange runs the full supersede flow for a delta in one
// transaction, serialized per user by the active row lock and excluded from
// season transitions by the shared advisory lock.
func (s *RankingService) applyScoreChange(ctx context.Context, userID uint, delta int, goalScore *int) (*tierTransition, error) {
	var transition *tierTransition

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := rankingrepo.NewRankingRepository(tx)

		if err := repo.AcquireSeasonLockShared(ctx); err != nil {
			return err
		}

		current, err := repo.GetActiveByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		transition, err = s.supersede(ctx, repo, current, userID, delta, goalScore)
		return err
	})
	if err != nil {
		return nil, err
	}

	return transition, nil
}

// supersede deactivates the current version, creates the new active version
// and recomputes the user's position. Must run inside the caller's
// transaction. Returns the tier transition when one happened.
func (s *RankingService) supersede(
	ctx context.Context,
	repo rankingrepo.RankingRepository,
	current *models.UserRanking,
	userID uint,
	delta int,
	goalScore *int,
) (*tierTransition, error) {
	now := time.Now()

	currentSeason, err := repo.CurrentSeason(ctx)
	if err != nil {
		return nil, err
	}

	previousScore := 0
	previousRank := 0
	previousTier := tiervalues.Unrank
	carriedStreak := 0
	carriedGoalScore := 0

	if current != nil {
		previousScore = current.TotalScore
		previousTier = current.Tier
		carriedStreak = current.StreakDays
		carriedGoalScore = current.GoalBasedScore

		// The stored position only carries over within the same season.
		if current.Season == currentSeason {
			previousRank = current.RankPosition
		}

		if err := repo.Deactivate(ctx, current, now); err != nil {
			return nil, err
		}
	}

	if goalScore != nil {
		carriedGoalScore = *goalScore
	}

	newTotal := previousScore + delta
	newTier := tiervalues.CalculateTier(newTotal)

	newRanking := &models.UserRanking{
		UserID:         userID,
		TotalScore:     newTotal,
		GoalBasedScore: carriedGoalScore,
		StreakDays:     carriedStreak,
		PreviousRank:   previousRank,
		Tier:           newTier,
		Season:         currentSeason,
		Active:         true,
		LastUpdatedAt:  now,
	}

	if err := repo.Create(ctx, newRanking); err != nil {
		return nil, err
	}

	// Position by strictly-greater count. Ties get the same number on this
	// path; the bulk resort is the one producing a total order.
	higher, err := repo.CountActiveWithHigherScore(ctx, newTotal)
	if err != nil {
		return nil, err
	}

	newRanking.RankPosition = int(higher) + 1
	if err := repo.Save(ctx, newRanking); err != nil {
		return nil, err
	}

	if previousTier != newTier {
		return &tierTransition{
			userID:       userID,
			previousTier: previousTier,
			newTier:      newTier,
		}, nil
	}

	return nil, nil
}

// UpdateUserRankingPosition recomputes one user's position from the active
// population. Fails with a not found error when the user has no active record.
func (s *RankingService) UpdateUserRankingPosition(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := rankingrepo.NewRankingRepository(tx)

		current, err := repo.GetActiveByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf(messages.ActiveRankingNotFound, userID)
		}

		higher, err := repo.CountActiveWithHigherScore(ctx, current.TotalScore)
		if err != nil {
			return err
		}

		current.PreviousRank = current.RankPosition
		current.RankPosition = int(higher) + 1
		current.LastUpdatedAt = time.Now()

		return repo.Save(ctx, current)
	})
}

// defaultRanking is the zero-value record a user starts the ledger with.
func defaultRanking(userID uint, season int, now time.Time) *models.UserRanking {
	return &models.UserRanking{
		UserID:        userID,
		Tier:          tiervalues.Unrank,
		Season:        season,
		Active:        true,
		LastUpdatedAt: now,
	}
}
