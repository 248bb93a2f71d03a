package earnings

import "time"

// Stats is a point-in-time view of cache health.
type Stats struct {
	TrackedUsers        int        `json:"tracked_users"`
	DirtyCount          int        `json:"dirty_count"`
	UpdatesApplied      int64      `json:"updates_applied"`
	Rollovers           int64      `json:"rollovers"`
	FlushCount          int64      `json:"flush_count"`
	FailedWrites        int64      `json:"failed_writes"`
	LastFlushAt         *time.Time `json:"last_flush_at,omitempty"`
	LastFlushDurationMS int64      `json:"last_flush_duration_ms"`
	LastFlushError      string     `json:"last_flush_error,omitempty"`
}

// Stats reports cache health. It never rolls windows over.
func (c *Cache) Stats() Stats {
	entries := c.snapshotEntries()

	dirty := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.dirty {
			dirty++
		}
		e.mu.Unlock()
	}

	st := Stats{
		TrackedUsers:   len(entries),
		DirtyCount:     dirty,
		UpdatesApplied: c.updates.Load(),
		Rollovers:      c.rollovers.Load(),
	}

	c.statsMu.Lock()
	st.FlushCount = c.flushCount
	st.FailedWrites = c.failedWrites
	st.LastFlushDurationMS = c.lastFlushDuration.Milliseconds()
	st.LastFlushError = c.lastFlushError
	if !c.lastFlushAt.IsZero() {
		at := c.lastFlushAt
		st.LastFlushAt = &at
	}
	c.statsMu.Unlock()

	return st
}

func (c *Cache) recordFlush(res FlushResult, at time.Time) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	c.flushCount++
	c.failedWrites += int64(res.Failed)
	c.lastFlushAt = at
	c.lastFlushDuration = res.Duration
	if err := res.Err(); err != nil {
		c.lastFlushError = err.Error()
	} else {
		c.lastFlushError = ""
	}
}
