package earnings

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"papertrader/internal/clock"
)

// baseTime is 10:00 IST on a Sunday in the middle of March.
var baseTime = time.Date(2024, 3, 10, 10, 0, 0, 0, clock.IST)

func newTestCache(t *testing.T, now time.Time) (*Cache, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(now)
	c, err := NewCache(clk, WithLogger(zap.NewNop().Sugar()), WithDefaultPortfolioValue(100000))
	require.NoError(t, err)
	return c, clk
}

func newTestSyncer(t *testing.T, c *Cache, store Store, batchSize int) *Syncer {
	t.Helper()
	s, err := NewSyncer(c, store, SyncConfig{Interval: time.Second, FlushTimeout: time.Second, BatchSize: batchSize})
	require.NoError(t, err)
	return s
}

// memStore is an in-memory Store with per-user failure injection.
type memStore struct {
	mu       sync.Mutex
	rows     map[string]Record
	failFor  map[string]error
	fetchErr error
	upserts  int
	batches  int
	onUpsert func(rec Record)
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]Record{}, failFor: map[string]error{}}
}

func (m *memStore) Upsert(_ context.Context, rec Record) error {
	m.mu.Lock()
	m.upserts++
	hook := m.onUpsert
	err := m.failFor[rec.UserID]
	if err == nil {
		m.rows[rec.UserID] = rec
	}
	m.mu.Unlock()

	if hook != nil {
		hook(rec)
	}
	return err
}

func (m *memStore) FetchAll(_ context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	out := make([]Record, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) fail(userID string) {
	m.mu.Lock()
	m.failFor[userID] = fmt.Errorf("write rejected for %s", userID)
	m.mu.Unlock()
}

func (m *memStore) recover(userID string) {
	m.mu.Lock()
	delete(m.failFor, userID)
	m.mu.Unlock()
}

func (m *memStore) row(userID string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[userID]
	return r, ok
}

func (m *memStore) snapshot() map[string]Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Record, len(m.rows))
	for k, v := range m.rows {
		out[k] = v
	}
	return out
}

// batchMemStore adds all-or-nothing batch writes to memStore.
type batchMemStore struct {
	*memStore
}

func (b batchMemStore) UpsertBatch(_ context.Context, recs []Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches++
	for _, r := range recs {
		if err := b.failFor[r.UserID]; err != nil {
			return fmt.Errorf("batch aborted: %w", err)
		}
	}
	for _, r := range recs {
		b.rows[r.UserID] = r
	}
	return nil
}
