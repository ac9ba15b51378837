package dto

import "time"

// RankedUser is one leaderboard row.
type RankedUser struct {
	Rank       int    `json:"rank"`
	UserID     uint   `json:"userId"`
	Nickname   string `json:"nickname"`
	Score      int    `json:"score"`
	Badge      string `json:"badge"`
	StreakDays int    `json:"streakDays"`
	Tier       string `json:"tier"`
	ColorCode  string `json:"colorCode"`
}

// MyRanking is the requesting user's own standing.
type MyRanking struct {
	Rank       int    `json:"rank"`
	UserID     uint   `json:"userId"`
	Nickname   string `json:"nickname,omitempty"`
	Score      int    `json:"score"`
	StreakDays int    `json:"streakDays"`
	TotalUsers int64  `json:"totalUsers"`
	Tier       string `json:"tier"`
	ColorCode  string `json:"colorCode"`
}

// RankingResponse bundles the main ranking screen payload.
type RankingResponse struct {
	TopRankers []RankedUser `json:"topRankers"`
	MyRanking  MyRanking    `json:"myRanking"`
}

// RankingHistoryEntry is one archived snapshot.
type RankingHistoryEntry struct {
	RecordedAt   time.Time `json:"recordedAt"`
	TotalScore   int       `json:"totalScore"`
	RankPosition int       `json:"rankPosition"`
	StreakDays   int       `json:"streakDays"`
	Season       int       `json:"season"`
	PeriodType   string    `json:"periodType"`
	Tier         string    `json:"tier"`
	ColorCode    string    `json:"colorCode"`
}

// RankingStats is the aggregate counters endpoint payload.
type RankingStats struct {
	TotalUsers int64 `json:"totalUsers"`
	MyRank     int   `json:"myRank"`
	MyScore    int   `json:"myScore"`
	MyStreak   int   `json:"myStreak"`
}

// RankingReward is one reward table entry.
type RankingReward struct {
	UserID       uint   `json:"userId"`
	Nickname     string `json:"nickname"`
	RankPosition int    `json:"rankPosition"`
	TotalScore   int    `json:"totalScore"`
	RewardType   string `json:"rewardType"`
	RewardPoints int    `json:"rewardPoints"`
}
