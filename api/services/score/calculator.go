package score

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"
)

// Weekly ceiling of each goal sub-score: one point per day.
const maxWeeklyGoalPoints = 7

// DailyIntake is one day of consumed macro nutrients.
type DailyIntake struct {
	Carbs    float64
	Protein  float64
	Fat      float64
	Calories float64
}

// UserGoal holds the configured targets. Any target may be absent.
type UserGoal struct {
	WeeklyWorkoutTarget *int
	DailyCarbsTarget    *float64
	DailyProteinTarget  *float64
	DailyFatTarget      *float64
}

// ExerciseStats is the exercise statistics collaborator.
type ExerciseStats interface {
	MinutesByPeriod(ctx context.Context, userID uint, days int) (int, error)
	CaloriesBurnedByPeriod(ctx context.Context, userID uint, days int) (int, error)
	WeeklyTotalSets(ctx context.Context, userID uint) (int, error)
}

// NutritionStats is the meal statistics collaborator.
type NutritionStats interface {
	WeeklyAchievementRate(ctx context.Context, userID uint) (int, error)
	DailyIntake(ctx context.Context, userID uint, day time.Time) (DailyIntake, error)
}

// GoalProvider resolves the configured targets of a user.
type GoalProvider interface {
	GoalOrDefault(ctx context.Context, userID uint) (*UserGoal, error)
}

// Calculator turns activity facts into ranking scores.
type Calculator struct {
	exercise  ExerciseStats
	nutrition NutritionStats
	goals     GoalProvider
	now       func() time.Time
}

// CalculatorDeps is the dependency list for the calculator.
type CalculatorDeps struct {
	Exercise  ExerciseStats
	Nutrition NutritionStats
	Goals     GoalProvider

	// Now overrides the clock, mainly on tests.
	Now func() time.Time
}

// NewCalculator creates a score calculator.
func NewCalculator(deps *CalculatorDeps) *Calculator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Calculator{
		exercise:  deps.Exercise,
		nutrition: deps.Nutrition,
		goals:     deps.Goals,
		now:       now,
	}
}

// GoalBasedScore sums the exercise and nutrition goal sub-scores (0-14).
// A failing sub-calculation contributes 0; the call itself never fails.
func (c *Calculator) GoalBasedScore(ctx context.Context, userID uint) int {
	exerciseScore, err := c.exerciseGoalScore(ctx, userID)
	if err != nil {
		log.Printf("exercise goal score failed for user %d: %v", userID, err)
		exerciseScore = 0
	}

	nutritionScore, err := c.nutritionGoalScore(ctx, userID)
	if err != nil {
		log.Printf("nutrition goal score failed for user %d: %v", userID, err)
		nutritionScore = 0
	}

	return exerciseScore + nutritionScore
}

// TotalScore is the legacy aggregate formula kept for the scheduled bulk job:
// seven day exercise minutes and calories plus the weekly nutrition rate.
// Unlike GoalBasedScore it surfaces collaborator failures, so the bulk job can
// skip the user instead of overwriting an accumulated score with zero.
func (c *Calculator) TotalScore(ctx context.Context, userID uint) (int, error) {
	minutes, err := c.exercise.MinutesByPeriod(ctx, userID, 7)
	if err != nil {
		return 0, fmt.Errorf("exercise minutes lookup failed: %w", err)
	}

	calories, err := c.exercise.CaloriesBurnedByPeriod(ctx, userID, 7)
	if err != nil {
		return 0, fmt.Errorf("calories lookup failed: %w", err)
	}

	mealScore, err := c.nutrition.WeeklyAchievementRate(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("weekly nutrition rate failed: %w", err)
	}

	return minutes*2 + int(float64(calories)*0.5) + mealScore, nil
}

// exerciseGoalScore scores the weekly workout target achievement (0-7).
func (c *Calculator) exerciseGoalScore(ctx context.Context, userID uint) (int, error) {
	goal, err := c.goals.GoalOrDefault(ctx, userID)
	if err != nil {
		return 0, err
	}

	if goal == nil || goal.WeeklyWorkoutTarget == nil || *goal.WeeklyWorkoutTarget <= 0 {
		return 0, nil
	}

	weeklyTotalSets, err := c.exercise.WeeklyTotalSets(ctx, userID)
	if err != nil {
		return 0, err
	}

	achievementRate := math.Min(float64(weeklyTotalSets)/float64(*goal.WeeklyWorkoutTarget), 1.0)

	return int(math.Round(achievementRate * maxWeeklyGoalPoints)), nil
}

// nutritionGoalScore counts the days of the last week where every macro target
// was fully met (0-7).
func (c *Calculator) nutritionGoalScore(ctx context.Context, userID uint) (int, error) {
	goal, err := c.goals.GoalOrDefault(ctx, userID)
	if err != nil {
		return 0, err
	}

	if goal == nil {
		return 0, nil
	}

	totalDays := 0
	today := c.now()

	// Today plus the six prior calendar days.
	for i := 0; i < maxWeeklyGoalPoints; i++ {
		day := today.AddDate(0, 0, -i)

		intake, err := c.nutrition.DailyIntake(ctx, userID, day)
		if err != nil {
			return 0, err
		}

		carbsRate := targetRate(intake.Carbs, goal.DailyCarbsTarget)
		proteinRate := targetRate(intake.Protein, goal.DailyProteinTarget)
		fatRate := targetRate(intake.Fat, goal.DailyFatTarget)

		if carbsRate >= 1.0 && proteinRate >= 1.0 && fatRate >= 1.0 {
			totalDays++
		}
	}

	return totalDays, nil
}

// targetRate is the consumed/target ratio, 0 when the target is unset.
func targetRate(consumed float64, target *float64) float64 {
	if target == nil || *target <= 0 {
		return 0
	}
	return consumed / *target
}
