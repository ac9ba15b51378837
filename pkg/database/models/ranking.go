package models

import (
	"time"
)

// UserRanking is one version of a user's ranking state.
// Score changes never edit a row in place: the current row is deactivated and a
// new active row is inserted. At most one row per user has Active set, which the
// schema enforces with a partial unique index.
type UserRanking struct {
	ID uint `gorm:"primaryKey"`

	UserID uint `gorm:"index:idx_user_rankings_user_active,priority:1"`

	TotalScore     int
	GoalBasedScore int
	StreakDays     int
	RankPosition   int
	PreviousRank   int

	Tier   string `gorm:"type:ranking_tier"`
	Season int
	Active bool `gorm:"index:idx_user_rankings_user_active,priority:2"`

	CreatedAt     time.Time `gorm:"autoCreateTime"`
	LastUpdatedAt time.Time
}

// RankingHistory is an immutable snapshot of a ranking row, taken at a season
// close or period boundary. Rows are never updated after insert.
type RankingHistory struct {
	ID uint `gorm:"primaryKey"`

	// Reference to the ranking row that was snapshotted.
	UserRankingID uint        `gorm:"index:idx_ranking_histories_ranking"`
	UserRanking   UserRanking `gorm:"foreignKey:UserRankingID"`

	TotalScore   int
	StreakDays   int
	RankPosition int
	Season       int       `gorm:"index:idx_ranking_histories_period,priority:2"`
	PeriodType   string    `gorm:"type:varchar(16);index:idx_ranking_histories_period,priority:1"`
	RecordedAt   time.Time `gorm:"index"`
}
