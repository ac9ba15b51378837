package rankingservice

import (
	"context"
	"fmt"
	historyrepo "lifebit/api/repositories/history"
	rankingrepo "lifebit/api/repositories/ranking"
	"lifebit/pkg/database/models"
	tiervalues "lifebit/pkg/rankvalues/tier"
	"log"
	"sort"
	"time"

	"gorm.io/gorm"
)

// PeriodTypeSeason marks the snapshots written by a season close.
const PeriodTypeSeason = "season"

// UpdateRankingPositions resorts the whole active population and rewrites the
// stored positions as a dense 1..N sequence. Runs under the exclusive season
// lock so no per-user writer interleaves with the resort.
func (s *RankingService) UpdateRankingPositions(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := rankingrepo.NewRankingRepository(tx)

		if err := repo.AcquireSeasonLock(ctx); err != nil {
			return err
		}

		rankings, err := repo.ListActive(ctx)
		if err != nil {
			return err
		}

		sort.SliceStable(rankings, func(i, j int) bool {
			return rankings[i].TotalScore > rankings[j].TotalScore
		})

		now := time.Now()
		for i := range rankings {
			rankings[i].PreviousRank = rankings[i].RankPosition
			rankings[i].RankPosition = i + 1
			rankings[i].LastUpdatedAt = now
		}

		return repo.SaveAll(ctx, rankings)
	})
	if err != nil {
		return fmt.Errorf("couldn't update the ranking positions: %w", err)
	}

	s.invalidateTopRankers(ctx)

	return nil
}

// ScheduledRankingUpdate is the daily bulk recompute: every active user gets a
// fresh aggregate score, tier and position. Tier transitions are notified
// after the commit.
func (s *RankingService) ScheduledRankingUpdate(ctx context.Context) error {
	var transitions []tierTransition

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := rankingrepo.NewRankingRepository(tx)

		if err := repo.AcquireSeasonLock(ctx); err != nil {
			return err
		}

		rankings, err := repo.ListActive(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		transitions = transitions[:0]

		// TODO: sort by the fresh score before assigning positions; right now
		// they follow insertion order and the next resort fixes them.
		for i := range rankings {
			record := &rankings[i]

			newTotal, err := s.calculator.TotalScore(ctx, record.UserID)
			if err != nil {
				// Keep the accumulated score, move on to the next user.
				log.Printf("score recompute failed for user %d, skipping: %v", record.UserID, err)
				continue
			}

			newTier := tiervalues.CalculateTier(newTotal)

			if record.Tier != newTier {
				transitions = append(transitions, tierTransition{
					userID:       record.UserID,
					previousTier: record.Tier,
					newTier:      newTier,
				})
			}

			record.PreviousRank = record.RankPosition
			record.RankPosition = i + 1
			record.TotalScore = newTotal
			record.Tier = newTier
			record.LastUpdatedAt = now
		}

		return repo.SaveAll(ctx, rankings)
	})
	if err != nil {
		return fmt.Errorf("couldn't run the scheduled ranking update: %w", err)
	}

	for _, transition := range transitions {
		s.notifier.TierChange(ctx, transition.userID, transition.previousTier, transition.newTier)
	}

	s.invalidateTopRankers(ctx)

	return nil
}

// CloseSeasonAndResetRankings archives the whole active population as season
// snapshots, announces the close and zeroes every active record into the next
// season. The exclusive lock keeps every score writer out for the duration.
func (s *RankingService) CloseSeasonAndResetRankings(ctx context.Context) error {
	var closedSeason int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := rankingrepo.NewRankingRepository(tx)
		histories := historyrepo.NewHistoryRepository(tx)

		if err := repo.AcquireSeasonLock(ctx); err != nil {
			return err
		}

		season, err := repo.CurrentSeason(ctx)
		if err != nil {
			return err
		}
		closedSeason = season

		rankings, err := repo.ListActive(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		snapshots := make([]models.RankingHistory, 0, len(rankings))
		for _, record := range rankings {
			snapshots = append(snapshots, models.RankingHistory{
				UserRankingID: record.ID,
				TotalScore:    record.TotalScore,
				StreakDays:    record.StreakDays,
				RankPosition:  record.RankPosition,
				Season:        season,
				PeriodType:    PeriodTypeSeason,
				RecordedAt:    now,
			})
		}

		if err := histories.CreateBatch(ctx, snapshots); err != nil {
			return err
		}

		return repo.ResetActiveForNewSeason(ctx, season+1, now)
	})
	if err != nil {
		return fmt.Errorf("couldn't close the season: %w", err)
	}

	log.Printf("season %d closed, season %d started", closedSeason, closedSeason+1)

	s.notifier.SeasonEnd(ctx, closedSeason)
	s.invalidateTopRankers(ctx)

	return nil
}

// TriggerSeasonClose is the manual entry point behind the admin route.
func (s *RankingService) TriggerSeasonClose(ctx context.Context) error {
	return s.CloseSeasonAndResetRankings(ctx)
}
