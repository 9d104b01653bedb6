package service

import (
	"strconv"

	"github.com/westservices/ticketd/internal/domain"
	"github.com/westservices/ticketd/internal/repository"
)

// StatsSummary is the aggregate view over counters and ratings.
type StatsSummary struct {
	CreatedTotal      int            `json:"created_total"`
	CreatedByCategory map[string]int `json:"created_by_category"`
	ClosedTotal       int            `json:"closed_total"`
	ClosedByCategory  map[string]int `json:"closed_by_category"`
	RatingHistogram   map[string]int `json:"rating_histogram"`
	AverageRating     float64        `json:"average_rating"`
}

// FormattedAverage renders the average to one decimal, e.g. 4.666... -> "4.7".
func (s StatsSummary) FormattedAverage() string {
	return strconv.FormatFloat(s.AverageRating, 'f', 1, 64)
}

// StatsService computes derived aggregates from the counters and ratings
// collections.
type StatsService struct {
	stats   repository.StatsRepository
	ratings repository.RatingRepository
}

// NewStatsService constructs the service.
func NewStatsService(stats repository.StatsRepository, ratings repository.RatingRepository) *StatsService {
	return &StatsService{stats: stats, ratings: ratings}
}

// Aggregate builds the summary. An empty ratings collection yields average 0.
func (s *StatsService) Aggregate() StatsSummary {
	counters := s.stats.Counters()

	summary := StatsSummary{
		CreatedByCategory: counters.Metric(domain.MetricTicketsCreated),
		ClosedByCategory:  counters.Metric(domain.MetricTicketsClosed),
		RatingHistogram:   counters.Metric(domain.MetricRatings),
	}
	for _, count := range summary.CreatedByCategory {
		summary.CreatedTotal += count
	}
	for _, count := range summary.ClosedByCategory {
		summary.ClosedTotal += count
	}

	ratings := s.ratings.All()
	if len(ratings) > 0 {
		total := 0
		for _, rating := range ratings {
			total += rating.Stars
		}
		summary.AverageRating = float64(total) / float64(len(ratings))
	}
	return summary
}
