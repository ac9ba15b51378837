// Package platform implements the external collaborator interfaces over the
// shared platform schema. The ranking service reads these tables but never
// writes them; the main application owns them.
package platform

import (
	"context"
	"errors"
	"fmt"
	"lifebit/api/services/score"
	"time"

	"gorm.io/gorm"
)

// UserDirectory resolves user display data from the users table.
type UserDirectory struct {
	db *gorm.DB
}

// NewUserDirectory creates a directory over the given connection.
func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

// Nickname returns the display name of a user.
func (d *UserDirectory) Nickname(ctx context.Context, userID uint) (string, error) {
	var nickname string
	err := d.db.WithContext(ctx).
		Raw("SELECT nickname FROM users WHERE user_id = ?", userID).
		Scan(&nickname).Error
	if err != nil {
		return "", fmt.Errorf("couldn't resolve the nickname of user %d: %w", userID, err)
	}
	return nickname, nil
}

// ExerciseStats aggregates the exercise session facts.
type ExerciseStats struct {
	db *gorm.DB
}

// NewExerciseStats creates the exercise statistics reader.
func NewExerciseStats(db *gorm.DB) *ExerciseStats {
	return &ExerciseStats{db: db}
}

// MinutesByPeriod sums the exercise minutes of the last N days.
func (e *ExerciseStats) MinutesByPeriod(ctx context.Context, userID uint, days int) (int, error) {
	var minutes int
	err := e.db.WithContext(ctx).
		Raw(`SELECT COALESCE(SUM(duration_minutes), 0)
		     FROM exercise_sessions
		     WHERE user_id = ? AND exercise_date >= CURRENT_DATE - ?::int`, userID, days).
		Scan(&minutes).Error
	if err != nil {
		return 0, fmt.Errorf("couldn't sum the exercise minutes: %w", err)
	}
	return minutes, nil
}

// CaloriesBurnedByPeriod sums the burned calories of the last N days.
func (e *ExerciseStats) CaloriesBurnedByPeriod(ctx context.Context, userID uint, days int) (int, error) {
	var calories int
	err := e.db.WithContext(ctx).
		Raw(`SELECT COALESCE(SUM(calories_burned), 0)
		     FROM exercise_sessions
		     WHERE user_id = ? AND exercise_date >= CURRENT_DATE - ?::int`, userID, days).
		Scan(&calories).Error
	if err != nil {
		return 0, fmt.Errorf("couldn't sum the burned calories: %w", err)
	}
	return calories, nil
}

// WeeklyTotalSets sums the completed sets of the running week.
func (e *ExerciseStats) WeeklyTotalSets(ctx context.Context, userID uint) (int, error) {
	var sets int
	err := e.db.WithContext(ctx).
		Raw(`SELECT COALESCE(SUM(sets), 0)
		     FROM exercise_sessions
		     WHERE user_id = ? AND exercise_date >= CURRENT_DATE - 7`, userID).
		Scan(&sets).Error
	if err != nil {
		return 0, fmt.Errorf("couldn't sum the weekly sets: %w", err)
	}
	return sets, nil
}

// NutritionStats aggregates the meal log facts.
type NutritionStats struct {
	db *gorm.DB
}

// NewNutritionStats creates the nutrition statistics reader.
func NewNutritionStats(db *gorm.DB) *NutritionStats {
	return &NutritionStats{db: db}
}

// WeeklyAchievementRate is the share of the last seven days with at least one
// logged meal, as a 0-100 percentage.
func (n *NutritionStats) WeeklyAchievementRate(ctx context.Context, userID uint) (int, error) {
	var loggedDays int
	err := n.db.WithContext(ctx).
		Raw(`SELECT COUNT(DISTINCT log_date)
		     FROM meal_logs
		     WHERE user_id = ? AND log_date >= CURRENT_DATE - 7`, userID).
		Scan(&loggedDays).Error
	if err != nil {
		return 0, fmt.Errorf("couldn't compute the weekly achievement rate: %w", err)
	}
	return loggedDays * 100 / 7, nil
}

// DailyIntake sums the consumed macros of one calendar day, scaled by the
// logged quantity of each food item.
func (n *NutritionStats) DailyIntake(ctx context.Context, userID uint, day time.Time) (score.DailyIntake, error) {
	var intake score.DailyIntake
	err := n.db.WithContext(ctx).
		Raw(`SELECT COALESCE(SUM(f.carbs * m.quantity), 0) AS carbs,
		            COALESCE(SUM(f.protein * m.quantity), 0) AS protein,
		            COALESCE(SUM(f.fat * m.quantity), 0) AS fat,
		            COALESCE(SUM(f.calories * m.quantity), 0) AS calories
		     FROM meal_logs m
		     JOIN food_items f ON f.food_item_id = m.food_item_id
		     WHERE m.user_id = ? AND m.log_date = ?`, userID, day.Format("2006-01-02")).
		Scan(&intake).Error
	if err != nil {
		return score.DailyIntake{}, fmt.Errorf("couldn't sum the daily intake: %w", err)
	}
	return intake, nil
}

// GoalProvider reads the latest configured goal of a user.
type GoalProvider struct {
	db *gorm.DB
}

// NewGoalProvider creates the goal reader.
func NewGoalProvider(db *gorm.DB) *GoalProvider {
	return &GoalProvider{db: db}
}

type goalRow struct {
	WeeklyWorkoutTarget *int
	DailyCarbsTarget    *float64
	DailyProteinTarget  *float64
	DailyFatTarget      *float64
}

// GoalOrDefault returns the most recent goal row of a user, nil when the user
// never configured one.
func (g *GoalProvider) GoalOrDefault(ctx context.Context, userID uint) (*score.UserGoal, error) {
	var row goalRow
	err := g.db.WithContext(ctx).
		Raw(`SELECT weekly_workout_target, daily_carbs_target,
		            daily_protein_target, daily_fat_target
		     FROM user_goals
		     WHERE user_id = ?
		     ORDER BY created_at DESC
		     LIMIT 1`, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("couldn't load the goal of user %d: %w", userID, err)
	}

	return &score.UserGoal{
		WeeklyWorkoutTarget: row.WeeklyWorkoutTarget,
		DailyCarbsTarget:    row.DailyCarbsTarget,
		DailyProteinTarget:  row.DailyProteinTarget,
		DailyFatTarget:      row.DailyFatTarget,
	}, nil
}
