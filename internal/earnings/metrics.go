package earnings

import "github.com/prometheus/client_golang/prometheus"

// Collector exports Cache.Stats to Prometheus at scrape time.
type Collector struct {
	cache *Cache

	trackedUsers   *prometheus.Desc
	dirtyRecords   *prometheus.Desc
	updatesApplied *prometheus.Desc
	rollovers      *prometheus.Desc
	flushes        *prometheus.Desc
	failedWrites   *prometheus.Desc
	lastFlush      *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector for cache.
func NewCollector(cache *Cache) *Collector {
	return &Collector{
		cache:          cache,
		trackedUsers:   prometheus.NewDesc("earnings_cache_tracked_users", "Users held in the earnings cache.", nil, nil),
		dirtyRecords:   prometheus.NewDesc("earnings_cache_dirty_records", "Records not yet written to the leaderboard store.", nil, nil),
		updatesApplied: prometheus.NewDesc("earnings_cache_updates_total", "Earnings deltas applied.", nil, nil),
		rollovers:      prometheus.NewDesc("earnings_cache_rollovers_total", "Day and month windows closed.", nil, nil),
		flushes:        prometheus.NewDesc("earnings_cache_flushes_total", "Write-behind flush cycles run.", nil, nil),
		failedWrites:   prometheus.NewDesc("earnings_cache_failed_writes_total", "Record writes rejected by the leaderboard store.", nil, nil),
		lastFlush:      prometheus.NewDesc("earnings_cache_last_flush_timestamp_seconds", "Unix time of the last flush cycle.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.trackedUsers
	ch <- c.dirtyRecords
	ch <- c.updatesApplied
	ch <- c.rollovers
	ch <- c.flushes
	ch <- c.failedWrites
	ch <- c.lastFlush
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.cache.Stats()

	var lastFlush float64
	if st.LastFlushAt != nil {
		lastFlush = float64(st.LastFlushAt.Unix())
	}

	ch <- prometheus.MustNewConstMetric(c.trackedUsers, prometheus.GaugeValue, float64(st.TrackedUsers))
	ch <- prometheus.MustNewConstMetric(c.dirtyRecords, prometheus.GaugeValue, float64(st.DirtyCount))
	ch <- prometheus.MustNewConstMetric(c.updatesApplied, prometheus.CounterValue, float64(st.UpdatesApplied))
	ch <- prometheus.MustNewConstMetric(c.rollovers, prometheus.CounterValue, float64(st.Rollovers))
	ch <- prometheus.MustNewConstMetric(c.flushes, prometheus.CounterValue, float64(st.FlushCount))
	ch <- prometheus.MustNewConstMetric(c.failedWrites, prometheus.CounterValue, float64(st.FailedWrites))
	ch <- prometheus.MustNewConstMetric(c.lastFlush, prometheus.GaugeValue, lastFlush)
}
