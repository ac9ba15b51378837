package testutil

import (
	"context"
	"lifebit/api/filters"
	"lifebit/api/services/score"
	"lifebit/pkg/database/models"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

// Shared constants for the service tests.
const (
	DatabaseError   = "database error occurred"
	DefaultTimerCtx = "*context.timerCtx"
)

// Assert the expectations of all mocks.
func VerifyAllMocks(t *testing.T, mocks ...any) {
	t.Helper()

	for _, m := range mocks {
		if mockObj, ok := m.(interface{ AssertExpectations(*testing.T) bool }); ok {
			mockObj.AssertExpectations(t)
		}
	}
}

// ============================================================================
// Mock Implementations used on the Ranking service tests.
// ============================================================================

// Ranking repository mock implementation.
type MockRankingRepository struct {
	mock.Mock
}

func (m *MockRankingRepository) AcquireSeasonLock(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRankingRepository) AcquireSeasonLockShared(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRankingRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRankingRepository) CountActiveWithHigherScore(ctx context.Context, totalScore int) (int64, error) {
	args := m.Called(ctx, totalScore)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRankingRepository) Create(ctx context.Context, ranking *models.UserRanking) error {
	args := m.Called(ctx, ranking)
	return args.Error(0)
}

func (m *MockRankingRepository) CurrentSeason(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Get(0).(int), args.Error(1)
}

func (m *MockRankingRepository) Deactivate(ctx context.Context, ranking *models.UserRanking, now time.Time) error {
	args := m.Called(ctx, ranking, now)
	return args.Error(0)
}

func (m *MockRankingRepository) GetActiveByUserID(ctx context.Context, userID uint) (*models.UserRanking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserRanking), args.Error(1)
}

func (m *MockRankingRepository) GetActiveByUserIDForUpdate(ctx context.Context, userID uint) (*models.UserRanking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserRanking), args.Error(1)
}

func (m *MockRankingRepository) ListActive(ctx context.Context) ([]models.UserRanking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.UserRanking), args.Error(1)
}

func (m *MockRankingRepository) ResetActiveForNewSeason(ctx context.Context, newSeason int, now time.Time) error {
	args := m.Called(ctx, newSeason, now)
	return args.Error(0)
}

func (m *MockRankingRepository) Save(ctx context.Context, ranking *models.UserRanking) error {
	args := m.Called(ctx, ranking)
	return args.Error(0)
}

func (m *MockRankingRepository) SaveAll(ctx context.Context, rankings []models.UserRanking) error {
	args := m.Called(ctx, rankings)
	return args.Error(0)
}

func (m *MockRankingRepository) TopActiveByScore(ctx context.Context, limit int) ([]models.UserRanking, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.UserRanking), args.Error(1)
}

func (m *MockRankingRepository) TopActiveByStreak(ctx context.Context, limit int) ([]models.UserRanking, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.UserRanking), args.Error(1)
}

func (m *MockRankingRepository) TopBySeason(ctx context.Context, season, limit int) ([]models.UserRanking, error) {
	args := m.Called(ctx, season, limit)
	return args.Get(0).([]models.UserRanking), args.Error(1)
}

// History repository mock implementation.
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) CreateBatch(ctx context.Context, entries []models.RankingHistory) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListByFilter(ctx context.Context, filter *filters.RankingHistoryFilter) ([]models.RankingHistory, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.RankingHistory), args.Error(1)
}

func (m *MockHistoryRepository) TopByPeriod(ctx context.Context, periodType string, limit int) ([]models.RankingHistory, error) {
	args := m.Called(ctx, periodType, limit)
	return args.Get(0).([]models.RankingHistory), args.Error(1)
}

func (m *MockHistoryRepository) TopBySeason(ctx context.Context, season, limit int) ([]models.RankingHistory, error) {
	args := m.Called(ctx, season, limit)
	return args.Get(0).([]models.RankingHistory), args.Error(1)
}

// ============================================================================
// Cache mock implementations.
// ============================================================================

type MockMemCache struct {
	mock.Mock
}

func (m *MockMemCache) Get(key string) any {
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockMemCache) Set(key string, value any, ttl time.Duration) {
	m.Called(key, value, ttl)
}

func (m *MockMemCache) Delete(key string) {
	m.Called(key)
}

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockRedisClient) Publish(ctx context.Context, channel string, payload any) error {
	args := m.Called(ctx, channel, payload)
	return args.Error(0)
}

// ============================================================================
// Collaborator mock implementations.
// ============================================================================

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) Nickname(ctx context.Context, userID uint) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type MockScoreCalculator struct {
	mock.Mock
}

func (m *MockScoreCalculator) GoalBasedScore(ctx context.Context, userID uint) int {
	args := m.Called(ctx, userID)
	return args.Int(0)
}

func (m *MockScoreCalculator) TotalScore(ctx context.Context, userID uint) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) TierChange(ctx context.Context, userID uint, previousTier, newTier string) {
	m.Called(ctx, userID, previousTier, newTier)
}

func (m *MockNotifier) SeasonEnd(ctx context.Context, season int) {
	m.Called(ctx, season)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Send(ctx context.Context, userID *uint, kind, title, body string) error {
	args := m.Called(ctx, userID, kind, title, body)
	return args.Error(0)
}

// ============================================================================
// Mock Implementations used on the score calculator tests.
// ============================================================================

type MockExerciseStats struct {
	mock.Mock
}

func (m *MockExerciseStats) MinutesByPeriod(ctx context.Context, userID uint, days int) (int, error) {
	args := m.Called(ctx, userID, days)
	return args.Int(0), args.Error(1)
}

func (m *MockExerciseStats) CaloriesBurnedByPeriod(ctx context.Context, userID uint, days int) (int, error) {
	args := m.Called(ctx, userID, days)
	return args.Int(0), args.Error(1)
}

func (m *MockExerciseStats) WeeklyTotalSets(ctx context.Context, userID uint) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockNutritionStats struct {
	mock.Mock
}

func (m *MockNutritionStats) WeeklyAchievementRate(ctx context.Context, userID uint) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNutritionStats) DailyIntake(ctx context.Context, userID uint, day time.Time) (score.DailyIntake, error) {
	args := m.Called(ctx, userID, day)
	return args.Get(0).(score.DailyIntake), args.Error(1)
}

type MockGoalProvider struct {
	mock.Mock
}

func (m *MockGoalProvider) GoalOrDefault(ctx context.Context, userID uint) (*score.UserGoal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*score.UserGoal), args.Error(1)
}
