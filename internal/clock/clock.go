// Package clock provides the time source and the IST day/month boundaries
// used for earnings window rollover.
package clock

import (
	"sync"
	"time"

	"github.com/jinzhu/now"
)

// IST is the fixed civil timezone (UTC+5:30) every earnings window is aligned to.
// It never follows the host's local zone.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// StartOfDay returns midnight IST of t's IST calendar date.
func StartOfDay(t time.Time) time.Time {
	return now.New(t.In(IST)).BeginningOfDay()
}

// StartOfMonth returns midnight IST of the first day of t's IST month.
func StartOfMonth(t time.Time) time.Time {
	return now.New(t.In(IST)).BeginningOfMonth()
}

// Clock is the injectable "now" source.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// Now returns the current time.
func (System) Now() time.Time { return time.Now() }

// Fake is a manually driven Clock for tests. It is safe for concurrent use.
type Fake struct {
	mu sync.Mutex
	t  time.Time
}

// NewFake returns a Fake clock set to t.
func NewFake(t time.Time) *Fake {
	return &Fake{t: t}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Set moves the fake clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}
