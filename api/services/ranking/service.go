package rankingservice

import (
	"context"
	"encoding/json"
	"fmt"
	"lifebit/api/dto"
	"lifebit/api/filters"
	historyrepo "lifebit/api/repositories/history"
	rankingrepo "lifebit/api/repositories/ranking"
	"lifebit/pkg/database/models"
	tiervalues "lifebit/pkg/rankvalues/tier"
	"log"
	"time"

	"gorm.io/gorm"
)

const (
	TopRankersMemoryCacheDuration = time.Minute
	TopRankersRedisCacheDuration  = 5 * time.Minute

	topRankersKey  = "ranking:top10"
	topRankersSize = 10
	rewardTopSize  = 3
)

// Fixed reward tables, paid to the top three positions only.
var (
	seasonRewardPoints = [rewardTopSize]int{10000, 5000, 2000}
	periodRewardPoints = [rewardTopSize]int{3000, 2000, 1000}
	streakRewardPoints = [rewardTopSize]int{2000, 1000, 500}
)

// RankingRedisClient is the redis subset used by the read caching.
type RankingRedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// RankingMemCache is the in-memory layer in front of redis.
type RankingMemCache interface {
	Get(key string) any
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}

// UserDirectory resolves display data of the platform users.
type UserDirectory interface {
	Nickname(ctx context.Context, userID uint) (string, error)
}

// ScoreCalculator computes the ranking scores from activity facts.
type ScoreCalculator interface {
	GoalBasedScore(ctx context.Context, userID uint) int
	TotalScore(ctx context.Context, userID uint) (int, error)
}

// Notifier requests best-effort notifications on state transitions.
type Notifier interface {
	TierChange(ctx context.Context, userID uint, previousTier, newTier string)
	SeasonEnd(ctx context.Context, season int)
}

// RankingService owns the versioned ranking ledger and its read surface.
type RankingService struct {
	db                *gorm.DB
	memCache          RankingMemCache
	redis             RankingRedisClient
	users             UserDirectory
	calculator        ScoreCalculator
	notifier          Notifier
	RankingRepository rankingrepo.RankingRepository
	HistoryRepository historyrepo.HistoryRepository
}

// RankingServiceDeps is the dependency list for the ranking service.
type RankingServiceDeps struct {
	DB         *gorm.DB
	MemCache   RankingMemCache
	Redis      RankingRedisClient
	Users      UserDirectory
	Calculator ScoreCalculator
	Notifier   Notifier

	// Repository overrides, resolved from DB when empty.
	RankingRepository rankingrepo.RankingRepository
	HistoryRepository historyrepo.HistoryRepository
}

// NewRankingService creates a ranking service.
func NewRankingService(deps *RankingServiceDeps) *RankingService {
	rankingRepository := deps.RankingRepository
	if rankingRepository == nil {
		rankingRepository = rankingrepo.NewRankingRepository(deps.DB)
	}

	historyRepository := deps.HistoryRepository
	if historyRepository == nil {
		historyRepository = historyrepo.NewHistoryRepository(deps.DB)
	}

	return &RankingService{
		db:                deps.DB,
		memCache:          deps.MemCache,
		redis:             deps.Redis,
		users:             deps.Users,
		calculator:        deps.Calculator,
		notifier:          deps.Notifier,
		RankingRepository: rankingRepository,
		HistoryRepository: historyRepository,
	}
}

// GetRankingData returns the main ranking screen payload: the cached top ten
// plus the caller's own standing computed against the live population.
func (s *RankingService) GetRankingData(ctx context.Context, userID uint) (*dto.RankingResponse, error) {
	topRankers, err := s.getTopRankers(ctx)
	if err != nil {
		return nil, err
	}

	myRanking, err := s.buildMyRanking(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	return &dto.RankingResponse{
		TopRankers: topRankers,
		MyRanking:  *myRanking,
	}, nil
}

// GetMyRanking returns the caller's stored standing. Users that were never
// scored get the zero-value default instead of an error.
func (s *RankingService) GetMyRanking(ctx context.Context, userID uint) (*dto.MyRanking, error) {
	return s.buildMyRanking(ctx, userID, false)
}

// buildMyRanking assembles the personal standing DTO. When realtime is set the
// position is recomputed against the active population instead of using the
// stored one.
func (s *RankingService) buildMyRanking(ctx context.Context, userID uint, realtime bool) (*dto.MyRanking, error) {
	record, err := s.RankingRepository.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the active ranking: %w", err)
	}

	totalUsers, err := s.RankingRepository.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't count the ranking population: %w", err)
	}

	myRanking := &dto.MyRanking{
		UserID:     userID,
		TotalUsers: totalUsers,
		Tier:       tiervalues.Unrank,
		ColorCode:  tiervalues.ColorCode(tiervalues.Unrank),
	}

	if nickname, nickErr := s.users.Nickname(ctx, userID); nickErr == nil {
		myRanking.Nickname = nickname
	}

	if record == nil {
		return myRanking, nil
	}

	myRanking.Rank = record.RankPosition
	myRanking.Score = record.TotalScore
	myRanking.StreakDays = record.StreakDays
	myRanking.Tier = record.Tier
	myRanking.ColorCode = tiervalues.ColorCode(record.Tier)

	if realtime {
		higher, err := s.RankingRepository.CountActiveWithHigherScore(ctx, record.TotalScore)
		if err != nil {
			return nil, fmt.Errorf("couldn't compute the realtime position: %w", err)
		}
		myRanking.Rank = int(higher) + 1
	}

	return myRanking, nil
}

// GetSeasonRankings returns the top ten of one season. The running season
// reads from the live rows; closed seasons only survive as close snapshots,
// because the reset moves every live row into the next season.
func (s *RankingService) GetSeasonRankings(ctx context.Context, season int) ([]dto.RankedUser, error) {
	currentSeason, err := s.RankingRepository.CurrentSeason(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't resolve the current season: %w", err)
	}

	if season == currentSeason {
		records, err := s.RankingRepository.TopBySeason(ctx, season, topRankersSize)
		if err != nil {
			return nil, fmt.Errorf("couldn't load the season rankings: %w", err)
		}

		rankers := make([]dto.RankedUser, 0, len(records))
		for _, record := range records {
			rankers = append(rankers, s.rankedUserFromRecord(ctx, &record, record.RankPosition))
		}

		return rankers, nil
	}

	histories, err := s.HistoryRepository.TopBySeason(ctx, season, topRankersSize)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the season rankings: %w", err)
	}

	rankers := make([]dto.RankedUser, 0, len(histories))
	for _, history := range histories {
		rankers = append(rankers, s.rankedUserFromSnapshot(ctx, &history))
	}

	return rankers, nil
}

// GetPeriodRankings returns the ten most recent snapshots of a period type.
func (s *RankingService) GetPeriodRankings(ctx context.Context, periodType string) ([]dto.RankedUser, error) {
	histories, err := s.HistoryRepository.TopByPeriod(ctx, periodType, topRankersSize)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the period rankings: %w", err)
	}

	rankers := make([]dto.RankedUser, 0, len(histories))
	for _, history := range histories {
		ranker := dto.RankedUser{
			Rank:       history.RankPosition,
			UserID:     history.UserRanking.UserID,
			Score:      history.TotalScore,
			Badge:      "default",
			StreakDays: history.StreakDays,
			Tier:       history.UserRanking.Tier,
			ColorCode:  tiervalues.ColorCode(history.UserRanking.Tier),
		}
		if nickname, nickErr := s.users.Nickname(ctx, history.UserRanking.UserID); nickErr == nil {
			ranker.Nickname = nickname
		}
		rankers = append(rankers, ranker)
	}

	return rankers, nil
}

// GetRankingHistory returns archived snapshots, newest first. Without filters
// everything is returned.
func (s *RankingService) GetRankingHistory(ctx context.Context, filter *filters.RankingHistoryFilter) ([]dto.RankingHistoryEntry, error) {
	histories, err := s.HistoryRepository.ListByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the ranking history: %w", err)
	}

	entries := make([]dto.RankingHistoryEntry, 0, len(histories))
	for _, history := range histories {
		entries = append(entries, dto.RankingHistoryEntry{
			RecordedAt:   history.RecordedAt,
			TotalScore:   history.TotalScore,
			RankPosition: history.RankPosition,
			StreakDays:   history.StreakDays,
			Season:       history.Season,
			PeriodType:   history.PeriodType,
			Tier:         history.UserRanking.Tier,
			ColorCode:    tiervalues.ColorCode(history.UserRanking.Tier),
		})
	}

	return entries, nil
}

// GetRankingStats returns the aggregate counters of the caller.
func (s *RankingService) GetRankingStats(ctx context.Context, userID uint) (*dto.RankingStats, error) {
	record, err := s.RankingRepository.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the active ranking: %w", err)
	}

	totalUsers, err := s.RankingRepository.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't count the ranking population: %w", err)
	}

	stats := &dto.RankingStats{TotalUsers: totalUsers}
	if record != nil {
		stats.MyRank = record.RankPosition
		stats.MyScore = record.TotalScore
		stats.MyStreak = record.StreakDays
	}

	return stats, nil
}

// GetSeasonRewards returns the season reward table for the top three, served
// from the live rows or the close snapshots like GetSeasonRankings.
func (s *RankingService) GetSeasonRewards(ctx context.Context, season int) ([]dto.RankingReward, error) {
	currentSeason, err := s.RankingRepository.CurrentSeason(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't resolve the current season: %w", err)
	}

	if season == currentSeason {
		records, err := s.RankingRepository.TopBySeason(ctx, season, rewardTopSize)
		if err != nil {
			return nil, fmt.Errorf("couldn't load the season rewards: %w", err)
		}

		rewards := make([]dto.RankingReward, 0, len(records))
		for i, record := range records {
			rewards = append(rewards, s.rewardFromRecord(ctx, &record, record.RankPosition, "season", seasonRewardPoints[i]))
		}

		return rewards, nil
	}

	histories, err := s.HistoryRepository.TopBySeason(ctx, season, rewardTopSize)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the season rewards: %w", err)
	}

	rewards := make([]dto.RankingReward, 0, len(histories))
	for i, history := range histories {
		reward := dto.RankingReward{
			UserID:       history.UserRanking.UserID,
			RankPosition: history.RankPosition,
			TotalScore:   history.TotalScore,
			RewardType:   "season",
			RewardPoints: seasonRewardPoints[i],
		}
		if nickname, nickErr := s.users.Nickname(ctx, history.UserRanking.UserID); nickErr == nil {
			reward.Nickname = nickname
		}
		rewards = append(rewards, reward)
	}

	return rewards, nil
}

// GetPeriodRewards returns the period reward table for the top three.
func (s *RankingService) GetPeriodRewards(ctx context.Context, periodType string) ([]dto.RankingReward, error) {
	histories, err := s.HistoryRepository.TopByPeriod(ctx, periodType, rewardTopSize)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the period rewards: %w", err)
	}

	rewards := make([]dto.RankingReward, 0, len(histories))
	for i, history := range histories {
		reward := dto.RankingReward{
			UserID:       history.UserRanking.UserID,
			RankPosition: history.RankPosition,
			TotalScore:   history.TotalScore,
			RewardType:   "period",
			RewardPoints: periodRewardPoints[i],
		}
		if nickname, nickErr := s.users.Nickname(ctx, history.UserRanking.UserID); nickErr == nil {
			reward.Nickname = nickname
		}
		rewards = append(rewards, reward)
	}

	return rewards, nil
}

// GetStreakRewards returns the streak reward table for the top three.
func (s *RankingService) GetStreakRewards(ctx context.Context) ([]dto.RankingReward, error) {
	records, err := s.RankingRepository.TopActiveByStreak(ctx, rewardTopSize)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the streak rewards: %w", err)
	}

	rewards := make([]dto.RankingReward, 0, len(records))
	for i, record := range records {
		rewards = append(rewards, s.rewardFromRecord(ctx, &record, record.RankPosition, "streak", streakRewardPoints[i]))
	}

	return rewards, nil
}

// GetMyReward returns the caller's own reward for the current standings.
// Positions outside the top three pay zero points.
func (s *RankingService) GetMyReward(ctx context.Context, userID uint) (*dto.RankingReward, error) {
	record, err := s.RankingRepository.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the active ranking: %w", err)
	}

	reward := &dto.RankingReward{
		UserID:     userID,
		RewardType: "personal",
	}
	if nickname, nickErr := s.users.Nickname(ctx, userID); nickErr == nil {
		reward.Nickname = nickname
	}

	if record == nil {
		return reward, nil
	}

	reward.RankPosition = record.RankPosition
	reward.TotalScore = record.TotalScore
	if record.RankPosition >= 1 && record.RankPosition <= rewardTopSize {
		reward.RewardPoints = seasonRewardPoints[record.RankPosition-1]
	}

	return reward, nil
}

// getTopRankers returns the top ten list, reading through the two cache levels
// before hitting the repository.
func (s *RankingService) getTopRankers(ctx context.Context) ([]dto.RankedUser, error) {
	if mem := s.getFromMemCache(topRankersKey); mem != nil {
		return mem, nil
	}

	if redisData := s.getFromRedis(ctx, topRankersKey); redisData != nil {
		s.memCache.Set(topRankersKey, redisData, TopRankersMemoryCacheDuration)
		return redisData, nil
	}

	records, err := s.RankingRepository.TopActiveByScore(ctx, topRankersSize)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the top rankers: %w", err)
	}

	rankers := make([]dto.RankedUser, 0, len(records))
	for i, record := range records {
		rankers = append(rankers, s.rankedUserFromRecord(ctx, &record, i+1))
	}

	s.populateCaches(ctx, topRankersKey, rankers)

	return rankers, nil
}

// invalidateTopRankers drops the leaderboard caches after bulk writes.
func (s *RankingService) invalidateTopRankers(ctx context.Context) {
	s.memCache.Delete(topRankersKey)

	if err := s.redis.Set(ctx, topRankersKey, "", time.Millisecond); err != nil {
		log.Printf("couldn't invalidate the redis leaderboard key: %v", err)
	}
}

// getFromMemCache retrieves the data from the memory and returns it.
func (s *RankingService) getFromMemCache(key string) []dto.RankedUser {
	if memCachedData := s.memCache.Get(key); memCachedData != nil {
		return memCachedData.([]dto.RankedUser)
	}
	return nil
}

// getFromRedis retrieves the data from the redis.
func (s *RankingService) getFromRedis(ctx context.Context, key string) []dto.RankedUser {
	ctx, cancel := context.WithTimeout(ctx, time.Millisecond*200)
	defer cancel()

	redisCached, err := s.redis.Get(ctx, key)
	if err != nil || redisCached == "" {
		return nil
	}

	var rankers []dto.RankedUser
	if err := json.Unmarshal([]byte(redisCached), &rankers); err != nil {
		return nil
	}

	return rankers
}

// populateCaches will set the mem cache and redis cache.
func (s *RankingService) populateCaches(ctx context.Context, key string, data []dto.RankedUser) {
	s.memCache.Set(key, data, TopRankersMemoryCacheDuration)

	if j, err := json.Marshal(data); err == nil {
		s.redis.Set(ctx, key, string(j), TopRankersRedisCacheDuration)
	}
}

// rankedUserFromRecord maps a ledger row to the leaderboard DTO.
func (s *RankingService) rankedUserFromRecord(ctx context.Context, record *models.UserRanking, rank int) dto.RankedUser {
	ranker := dto.RankedUser{
		Rank:       rank,
		UserID:     record.UserID,
		Score:      record.TotalScore,
		Badge:      "default",
		StreakDays: record.StreakDays,
		Tier:       record.Tier,
		ColorCode:  tiervalues.ColorCode(record.Tier),
	}

	if nickname, err := s.users.Nickname(ctx, record.UserID); err == nil {
		ranker.Nickname = nickname
	}

	return ranker
}

// rankedUserFromSnapshot maps a season-close snapshot to the leaderboard DTO.
// Snapshots don't store the tier; it is recomputed from the frozen score.
func (s *RankingService) rankedUserFromSnapshot(ctx context.Context, history *models.RankingHistory) dto.RankedUser {
	tier := tiervalues.CalculateTier(history.TotalScore)

	ranker := dto.RankedUser{
		Rank:       history.RankPosition,
		UserID:     history.UserRanking.UserID,
		Score:      history.TotalScore,
		Badge:      "default",
		StreakDays: history.StreakDays,
		Tier:       tier,
		ColorCode:  tiervalues.ColorCode(tier),
	}

	if nickname, err := s.users.Nickname(ctx, history.UserRanking.UserID); err == nil {
		ranker.Nickname = nickname
	}

	return ranker
}

// rewardFromRecord maps a ledger row to a reward DTO.
func (s *RankingService) rewardFromRecord(ctx context.Context, record *models.UserRanking, rank int, rewardType string, points int) dto.RankingReward {
	reward := dto.RankingReward{
		UserID:       record.UserID,
		RankPosition: rank,
		TotalScore:   record.TotalScore,
		RewardType:   rewardType,
		RewardPoints: points,
	}

	if nickname, err := s.users.Nickname(ctx, record.UserID); err == nil {
		reward.Nickname = nickname
	}

	return reward
}
