package earnings

import (
	"math"
	"sync"
	"time"

	"papertrader/internal/clock"
)

// Record is a point-in-time copy of one user's earnings. Values returned by the
// cache are copies; mutating them has no effect on the cache.
type Record struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`

	DayEarning     float64 `json:"day_earning"`
	MonthEarning   float64 `json:"month_earning"`
	OverallEarning float64 `json:"overall_earning"`

	// Accumulator values at the moment their window last closed.
	LastDayEarning   float64 `json:"last_day_earning"`
	LastMonthEarning float64 `json:"last_month_earning"`

	// Start of the window currently open for DayEarning / MonthEarning.
	LastDayReset   time.Time `json:"last_day_reset"`
	LastMonthReset time.Time `json:"last_month_reset"`

	CurrentPortfolioValue float64 `json:"current_portfolio_value"`
	LastPortfolioValue    float64 `json:"last_portfolio_value"`
}

// rollover closes the day and month windows that ended before now and opens
// the windows containing now. A record idle for several days rolls exactly
// once, straight to the current window; the skipped days are not
// reconstructed. It returns the number of windows closed (0, 1 or 2).
func (r *Record) rollover(now time.Time) int {
	closed := 0

	today := clock.StartOfDay(now)
	if r.LastDayReset.Before(today) {
		r.LastDayEarning = r.DayEarning
		r.DayEarning = 0
		r.LastDayReset = today
		closed++
	}

	thisMonth := clock.StartOfMonth(now)
	if r.LastMonthReset.Before(thisMonth) {
		r.LastMonthEarning = r.MonthEarning
		r.MonthEarning = 0
		r.LastMonthReset = thisMonth
		closed++
	}

	return closed
}

// apply adds a profit/loss delta to every window.
func (r *Record) apply(amount float64) {
	r.DayEarning += amount
	r.MonthEarning += amount
	r.OverallEarning += amount
}

// entry is the cache's mutable slot for one user. version increases on every
// mutation so a flush can tell whether the record changed while it was being
// written.
type entry struct {
	mu      sync.Mutex
	rec     Record
	dirty   bool
	version uint64
}

func (e *entry) touch() {
	e.dirty = true
	e.version++
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
