package messages

const (
	ActiveRankingNotFound = "no active ranking record for user %d"
	InvalidPeriodType     = "invalid period type"
	InvalidSeason         = "invalid season"
	MissingUserIdentity   = "could not resolve the current user"
	SeasonCloseFailed     = "season close failed"
	ScoreUpdateFailed     = "score update failed for user %d"
)
