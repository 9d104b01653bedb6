package dto

import "github.com/westservices/ticketd/internal/service"

// StatsResponse is the aggregate counters view.
type StatsResponse struct {
	CreatedTotal      int            `json:"created_total"`
	CreatedByCategory map[string]int `json:"created_by_category"`
	ClosedTotal       int            `json:"closed_total"`
	ClosedByCategory  map[string]int `json:"closed_by_category"`
	RatingHistogram   map[string]int `json:"rating_histogram"`
	AverageRating     float64        `json:"average_rating"`
	AverageDisplay    string         `json:"average_display"`
}

// NewStatsResponse maps an aggregate summary.
func NewStatsResponse(summary service.StatsSummary) StatsResponse {
	return StatsResponse{
		CreatedTotal:      summary.CreatedTotal,
		CreatedByCategory: summary.CreatedByCategory,
		ClosedTotal:       summary.ClosedTotal,
		ClosedByCategory:  summary.ClosedByCategory,
		RatingHistogram:   summary.RatingHistogram,
		AverageRating:     summary.AverageRating,
		AverageDisplay:    summary.FormattedAverage(),
	}
}
