package earnings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/scheduler"
)

const (
	defaultBatchSize    = 100
	defaultFlushTimeout = 10 * time.Second
)

// SyncConfig controls the write-behind cycle.
type SyncConfig struct {
	// Interval between scheduled flushes.
	Interval time.Duration
	// FlushTimeout bounds each batch write and the final flush on Stop.
	FlushTimeout time.Duration
	// BatchSize is the number of records written per round trip.
	BatchSize int
}

// FlushResult summarizes one flush cycle.
type FlushResult struct {
	Attempted int              `json:"attempted"`
	Written   int              `json:"written"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Errors    map[string]error `json:"-"`
	Duration  time.Duration    `json:"duration"`

	abortErr error
}

// Err joins the per-record failures, ordered by user id, or returns nil if
// every attempted record was written.
func (r FlushResult) Err() error {
	if r.Failed == 0 && r.Skipped == 0 {
		return nil
	}

	ids := make([]string, 0, len(r.Errors))
	for id := range r.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	errs := make([]error, 0, len(ids)+1)
	for _, id := range ids {
		errs = append(errs, fmt.Errorf("user %s: %w", id, r.Errors[id]))
	}
	if r.Skipped > 0 {
		errs = append(errs, fmt.Errorf("%d records not attempted: %w", r.Skipped, r.abortErr))
	}
	return errors.Join(errs...)
}

// Syncer periodically copies dirty cache records into the durable store.
// A record's dirty flag is cleared only after its write succeeds, and only if
// it was not modified during the write, so delivery is at-least-once.
type Syncer struct {
	cache *Cache
	store Store
	cfg   SyncConfig
	log   *zap.SugaredLogger

	flushMu sync.Mutex

	lifecycleMu sync.Mutex
	sched       *scheduler.Scheduler
}

// NewSyncer attaches a write-behind syncer to cache. The syncer is idle until
// Start is called; ForceUpdateDatabase works either way.
func NewSyncer(cache *Cache, store Store, cfg SyncConfig) (*Syncer, error) {
	if cache == nil {
		return nil, apperrors.WithMessage(apperrors.ErrConfiguration, "syncer requires a cache")
	}
	if store == nil {
		return nil, apperrors.WithMessage(apperrors.ErrConfiguration, "syncer requires a leaderboard store")
	}
	if cfg.Interval <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrConfiguration, "flush interval must be positive")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = defaultFlushTimeout
	}

	s := &Syncer{
		cache: cache,
		store: store,
		cfg:   cfg,
		log:   cache.log.Named("syncer"),
	}
	cache.syncer.Store(s)
	return s, nil
}

// Name implements scheduler.Job.
func (s *Syncer) Name() string { return "earnings_flush" }

// Run implements scheduler.Job.
func (s *Syncer) Run(ctx context.Context) error {
	return s.Flush(ctx).Err()
}

// Start schedules Flush every Interval.
func (s *Syncer) Start() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.sched != nil {
		return nil
	}

	sched := scheduler.New(s.log)
	if err := sched.AddJob(fmt.Sprintf("@every %s", s.cfg.Interval), s); err != nil {
		return apperrors.Wrap(apperrors.ErrConfiguration, err)
	}
	sched.Start()
	s.sched = sched
	return nil
}

// Stop halts scheduled flushes, letting a running flush finish, then makes
// one last flush bounded by FlushTimeout.
func (s *Syncer) Stop(ctx context.Context) error {
	s.lifecycleMu.Lock()
	sched := s.sched
	s.sched = nil
	s.lifecycleMu.Unlock()

	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			s.log.Warnw("scheduler did not stop cleanly", "error", err)
		}
	}

	finalCtx, cancel := context.WithTimeout(ctx, s.cfg.FlushTimeout)
	defer cancel()

	res := s.Flush(finalCtx)
	s.log.Infow("final earnings flush",
		"written", res.Written,
		"failed", res.Failed,
		"skipped", res.Skipped,
	)
	return res.Err()
}

// Flush writes every dirty record once. Only one flush runs at a time. When
// ctx is done, batches already started finish and the rest are skipped.
func (s *Syncer) Flush(ctx context.Context) FlushResult {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	start := time.Now()
	pending := s.cache.dirtySnapshot()
	res := FlushResult{
		Attempted: len(pending),
		Errors:    make(map[string]error),
	}

	for i := 0; i < len(pending); i += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			res.Skipped = len(pending) - i
			res.abortErr = err
			break
		}
		end := min(i+s.cfg.BatchSize, len(pending))
		s.writeBatch(ctx, pending[i:end], &res)
	}

	res.Duration = time.Since(start)
	s.cache.recordFlush(res, s.cache.clock.Now())

	if res.Attempted > 0 {
		s.log.Infow("earnings flush complete",
			"attempted", res.Attempted,
			"written", res.Written,
			"failed", res.Failed,
			"skipped", res.Skipped,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}
	return res
}

func (s *Syncer) writeBatch(ctx context.Context, batch []pendingWrite, res *FlushResult) {
	// A started batch is not interrupted by cancellation of the flush.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FlushTimeout)
	defer cancel()

	if bs, ok := s.store.(BatchStore); ok && len(batch) > 1 {
		recs := make([]Record, len(batch))
		for i, p := range batch {
			recs[i] = p.rec
		}
		err := bs.UpsertBatch(wctx, recs)
		if err == nil {
			for _, p := range batch {
				s.cache.markClean(p.rec.UserID, p.version)
			}
			res.Written += len(batch)
			return
		}
		s.log.Warnw("batch upsert failed, writing records individually", "records", len(batch), "error", err)
	}

	for _, p := range batch {
		if err := s.store.Upsert(wctx, p.rec); err != nil {
			res.Failed++
			res.Errors[p.rec.UserID] = err
			s.log.Warnw("earnings record write failed", "user_id", p.rec.UserID, "error", err)
			continue
		}
		s.cache.markClean(p.rec.UserID, p.version)
		res.Written++
	}
}
