package collectors

import (
	"context"
	"math"
)

// CPSummary aggregates competitive-programming contest ratings.
type CPSummary struct {
	Average  float64 `json:"average"`
	Attempts int     `json:"attempts"`
}

// CPCollector averages contest ratings.
type CPCollector struct{}

// NewCPCollector creates a CPCollector.
func NewCPCollector() *CPCollector {
	return &CPCollector{}
}

// Source implements Collector.
func (c *CPCollector) Source() Source {
	return SourceCP
}

// Collect implements Collector. It never fails.
func (c *CPCollector) Collect(_ context.Context, ratings []int) (any, error) {
	return AggregateCPRatings(ratings), nil
}

// AggregateCPRatings returns the mean rating rounded to two decimals and the
// number of ratings. An empty list yields zeros.
func AggregateCPRatings(ratings []int) CPSummary {
	if len(ratings) == 0 {
		return CPSummary{Average: 0, Attempts: 0}
	}

	var sum float64
	for _, r := range ratings {
		sum += float64(r)
	}
	return CPSummary{
		Average:  round2(sum / float64(len(ratings))),
		Attempts: len(ratings),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
