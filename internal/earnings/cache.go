// Package earnings keeps live per-user day, month and all-time earnings in
// memory and writes them behind to the durable leaderboard store.
//
// Every record has its own lock. The map lock only guards lookups and inserts
// and is never held while a record lock is taken, so updates for different
// users never contend and the flush path cannot deadlock with request paths.
package earnings

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"papertrader/internal/clock"
	apperrors "papertrader/internal/errors"
	"papertrader/internal/logger"
)

// Cache is the authoritative live earnings state. Construct one per process
// with NewCache and share it by pointer.
type Cache struct {
	clock                 clock.Clock
	log                   *zap.SugaredLogger
	defaultPortfolioValue float64

	mu      sync.RWMutex
	entries map[string]*entry

	syncer atomic.Pointer[Syncer]

	updates   atomic.Int64
	rollovers atomic.Int64

	statsMu           sync.Mutex
	flushCount        int64
	failedWrites      int64
	lastFlushAt       time.Time
	lastFlushDuration time.Duration
	lastFlushError    string
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger overrides the cache logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Cache) { c.log = log }
}

// WithDefaultPortfolioValue sets the portfolio value new records start with.
func WithDefaultPortfolioValue(v float64) Option {
	return func(c *Cache) { c.defaultPortfolioValue = v }
}

// NewCache creates an empty cache reading time from clk.
func NewCache(clk clock.Clock, opts ...Option) (*Cache, error) {
	if clk == nil {
		return nil, apperrors.WithMessage(apperrors.ErrConfiguration, "earnings cache requires a clock")
	}
	c := &Cache{
		clock:   clk,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Named("earnings")
	}
	if !isFinite(c.defaultPortfolioValue) {
		return nil, apperrors.WithMessage(apperrors.ErrConfiguration, "default portfolio value must be finite")
	}
	return c, nil
}

// AddUser registers a user. It creates a zeroed record and returns true if the
// user was unknown; otherwise it refreshes the stored name when it changed and
// returns false.
func (c *Cache) AddUser(userID, userName string) bool {
	if userID == "" {
		return false
	}

	e, created := c.getOrCreate(userID, userName)
	if created {
		c.log.Debugw("earnings record created", "user_id", userID)
		return true
	}

	if userName != "" {
		e.mu.Lock()
		if e.rec.UserName != userName {
			e.rec.UserName = userName
			e.touch()
		}
		e.mu.Unlock()
	}
	return false
}

// UpdateEarnings applies a realized profit (positive) or loss (negative) to
// the user's day, month and overall totals, rolling windows over first. The
// record is created if the user has none. Non-finite amounts are rejected and
// leave the cache untouched.
func (c *Cache) UpdateEarnings(userID string, amount float64) (Record, error) {
	if userID == "" {
		return Record{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id is required")
	}
	if !isFinite(amount) {
		return Record{}, apperrors.WithMessage(apperrors.ErrInvalidAmount,
			fmt.Sprintf("amount %v is not a finite number", amount))
	}

	e, _ := c.getOrCreate(userID, "")

	e.mu.Lock()
	defer e.mu.Unlock()

	c.rolloverLocked(e)
	e.rec.apply(amount)
	e.touch()
	c.updates.Add(1)

	return e.rec, nil
}

// GetEarnings returns the user's record with its windows rolled over to the
// current IST day and month. Unknown users yield ErrEarningsNotFound; the
// record is not created.
func (c *Cache) GetEarnings(userID string) (Record, error) {
	e, ok := c.lookup(userID)
	if !ok {
		return Record{}, apperrors.ErrEarningsNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c.rolloverLocked(e)
	return e.rec, nil
}

// SetPortfolioValue records a fresh mark-to-market valuation, keeping the
// previous one in LastPortfolioValue.
func (c *Cache) SetPortfolioValue(userID string, value float64) (Record, error) {
	if userID == "" {
		return Record{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id is required")
	}
	if !isFinite(value) {
		return Record{}, apperrors.WithMessage(apperrors.ErrInvalidAmount,
			fmt.Sprintf("portfolio value %v is not a finite number", value))
	}

	e, _ := c.getOrCreate(userID, "")

	e.mu.Lock()
	defer e.mu.Unlock()

	c.rolloverLocked(e)
	e.rec.LastPortfolioValue = e.rec.CurrentPortfolioValue
	e.rec.CurrentPortfolioValue = value
	e.touch()

	return e.rec, nil
}

// ForceUpdateDatabase flushes every dirty record now and blocks until each one
// has been attempted. It returns ErrPersistenceFailure if any write failed;
// those records stay dirty for the next scheduled cycle.
func (c *Cache) ForceUpdateDatabase(ctx context.Context) (FlushResult, error) {
	s := c.syncer.Load()
	if s == nil {
		return FlushResult{}, apperrors.WithMessage(apperrors.ErrConfiguration, "no leaderboard store attached")
	}

	result := s.Flush(ctx)
	if err := result.Err(); err != nil {
		return result, apperrors.Wrap(apperrors.ErrPersistenceFailure, err)
	}
	return result, nil
}

// Load rehydrates the cache from the durable store. Users already present in
// memory are left alone. Loaded records are clean.
func (c *Cache) Load(ctx context.Context, store Store) (int, error) {
	if store == nil {
		return 0, apperrors.WithMessage(apperrors.ErrConfiguration, "no leaderboard store attached")
	}

	recs, err := store.FetchAll(ctx)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrPersistenceFailure, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	loaded := 0
	for _, rec := range recs {
		if rec.UserID == "" {
			continue
		}
		if _, exists := c.entries[rec.UserID]; exists {
			continue
		}
		c.entries[rec.UserID] = &entry{rec: rec}
		loaded++
	}

	c.log.Infow("earnings cache rehydrated", "records", loaded)
	return loaded, nil
}

// rolloverLocked must be called with e.mu held. A rollover changes persisted
// fields, so it marks the record dirty.
func (c *Cache) rolloverLocked(e *entry) {
	if closed := e.rec.rollover(c.clock.Now()); closed > 0 {
		c.rollovers.Add(int64(closed))
		e.touch()
	}
}

func (c *Cache) lookup(userID string) (*entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	return e, ok
}

func (c *Cache) getOrCreate(userID, userName string) (*entry, bool) {
	if e, ok := c.lookup(userID); ok {
		return e, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[userID]; ok {
		return e, false
	}

	now := c.clock.Now()
	e := &entry{
		rec: Record{
			UserID:                userID,
			UserName:              userName,
			LastDayReset:          clock.StartOfDay(now),
			LastMonthReset:        clock.StartOfMonth(now),
			CurrentPortfolioValue: c.defaultPortfolioValue,
			LastPortfolioValue:    c.defaultPortfolioValue,
		},
	}
	e.touch()
	c.entries[userID] = e
	return e, true
}

func (c *Cache) snapshotEntries() []*entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// pendingWrite is a dirty record copied out for flushing, tagged with the
// version it was copied at.
type pendingWrite struct {
	rec     Record
	version uint64
}

func (c *Cache) dirtySnapshot() []pendingWrite {
	var out []pendingWrite
	for _, e := range c.snapshotEntries() {
		e.mu.Lock()
		if e.dirty {
			out = append(out, pendingWrite{rec: e.rec, version: e.version})
		}
		e.mu.Unlock()
	}
	return out
}

// markClean clears the dirty flag unless the record changed after version.
func (c *Cache) markClean(userID string, version uint64) {
	e, ok := c.lookup(userID)
	if !ok {
		return
	}
	e.mu.Lock()
	if e.version == version {
		e.dirty = false
	}
	e.mu.Unlock()
}
