// Package store holds the durable leaderboard backends the earnings cache
// writes behind to, and the ranking queries served from them.
package store

import (
	"context"
	"time"

	"papertrader/internal/clock"
	apperrors "papertrader/internal/errors"
	"papertrader/internal/pagination"
)

// Period is a leaderboard ranking window.
type Period string

const (
	PeriodDay     Period = "day"
	PeriodMonth   Period = "month"
	PeriodOverall Period = "overall"
)

// Periods lists every valid ranking window.
var Periods = []Period{PeriodDay, PeriodMonth, PeriodOverall}

// ParsePeriod validates a period name. An empty name means overall.
func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return PeriodOverall, nil
	}
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", apperrors.ErrInvalidPeriod
}

// Standing is one ranked leaderboard row.
type Standing struct {
	Rank                  int64   `json:"rank"`
	UserID                string  `json:"user_id"`
	UserName              string  `json:"user_name"`
	Earning               float64 `json:"earning"`
	CurrentPortfolioValue float64 `json:"current_portfolio_value"`
}

// Ranker lists users ordered by their earnings in a period, highest first.
// A persisted day or month total whose window closed before now counts as 0.
type Ranker interface {
	Rank(ctx context.Context, period Period, now time.Time, req pagination.PageRequest) (pagination.PageResponse[Standing], error)
}

// windowStart returns the start of the window period covers at now, or the
// zero time for overall.
func windowStart(period Period, now time.Time) time.Time {
	switch period {
	case PeriodDay:
		return clock.StartOfDay(now)
	case PeriodMonth:
		return clock.StartOfMonth(now)
	default:
		return time.Time{}
	}
}
