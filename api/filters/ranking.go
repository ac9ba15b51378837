package filters

// RankingHistoryQueryParams are the raw query params of the history endpoint.
type RankingHistoryQueryParams struct {
	PeriodType string `form:"periodType"`
	Season     *int   `form:"season"`
}

// RankingHistoryFilter is the parsed filter passed down to the repository.
// Both fields are optional; an empty filter returns everything, newest first.
type RankingHistoryFilter struct {
	PeriodType string
	Season     *int
}

// AsFilter converts the bound query params.
func (qp *RankingHistoryQueryParams) AsFilter() *RankingHistoryFilter {
	return &RankingHistoryFilter{
		PeriodType: qp.PeriodType,
		Season:     qp.Season,
	}
}
