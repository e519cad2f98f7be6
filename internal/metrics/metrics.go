// Package metrics collects generation counters for Prometheus export.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects metrics for Prometheus export.
type Collector struct {
	totalRequests   atomic.Int64
	successRequests atomic.Int64
	failedRequests  atomic.Int64

	// Per-API counters
	apiRequests map[string]*atomic.Int64
	apiMu       sync.RWMutex

	// Duration histogram (milliseconds)
	durationBuckets map[float64]*atomic.Int64
	durationSum     atomic.Int64
	durationCount   atomic.Int64

	startTime time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		apiRequests:     make(map[string]*atomic.Int64),
		durationBuckets: initDurationBuckets(),
		startTime:       time.Now(),
	}
}

func initDurationBuckets() map[float64]*atomic.Int64 {
	buckets := []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}
	m := make(map[float64]*atomic.Int64)
	for _, b := range buckets {
		m[b] = &atomic.Int64{}
	}
	return m
}

// RecordGeneration records one generation request.
func (c *Collector) RecordGeneration(api string, duration time.Duration, success bool) {
	c.totalRequests.Add(1)
	if success {
		c.successRequests.Add(1)
	} else {
		c.failedRequests.Add(1)
	}

	c.apiMu.Lock()
	counter, ok := c.apiRequests[api]
	if !ok {
		counter = &atomic.Int64{}
		c.apiRequests[api] = counter
	}
	c.apiMu.Unlock()
	counter.Add(1)

	ms := duration.Milliseconds()
	c.durationSum.Add(ms)
	c.durationCount.Add(1)
	for bound, counter := range c.durationBuckets {
		if float64(ms) <= bound {
			counter.Add(1)
		}
	}
}

// PrometheusFormat exports metrics in Prometheus text format.
func (c *Collector) PrometheusFormat() string {
	var b strings.Builder

	b.WriteString("# HELP discogen_requests_total Total number of generation requests\n")
	b.WriteString("# TYPE discogen_requests_total counter\n")
	fmt.Fprintf(&b, "discogen_requests_total %d\n\n", c.totalRequests.Load())

	b.WriteString("# HELP discogen_requests_success_total Total number of successful generations\n")
	b.WriteString("# TYPE discogen_requests_success_total counter\n")
	fmt.Fprintf(&b, "discogen_requests_success_total %d\n\n", c.successRequests.Load())

	b.WriteString("# HELP discogen_requests_failed_total Total number of failed generations\n")
	b.WriteString("# TYPE discogen_requests_failed_total counter\n")
	fmt.Fprintf(&b, "discogen_requests_failed_total %d\n\n", c.failedRequests.Load())

	b.WriteString("# HELP discogen_requests_by_api_total Total number of generation requests per API\n")
	b.WriteString("# TYPE discogen_requests_by_api_total counter\n")
	c.apiMu.RLock()
	apis := make([]string, 0, len(c.apiRequests))
	for api := range c.apiRequests {
		apis = append(apis, api)
	}
	sort.Strings(apis)
	for _, api := range apis {
		fmt.Fprintf(&b, "discogen_requests_by_api_total{api=%q} %d\n", api, c.apiRequests[api].Load())
	}
	c.apiMu.RUnlock()
	b.WriteString("\n")

	b.WriteString("# HELP discogen_generation_duration_milliseconds Generation duration histogram\n")
	b.WriteString("# TYPE discogen_generation_duration_milliseconds histogram\n")
	bounds := make([]float64, 0, len(c.durationBuckets))
	for bound := range c.durationBuckets {
		bounds = append(bounds, bound)
	}
	sort.Float64s(bounds)
	for _, bound := range bounds {
		fmt.Fprintf(&b, "discogen_generation_duration_milliseconds_bucket{le=\"%g\"} %d\n", bound, c.durationBuckets[bound].Load())
	}
	fmt.Fprintf(&b, "discogen_generation_duration_milliseconds_bucket{le=\"+Inf\"} %d\n", c.durationCount.Load())
	fmt.Fprintf(&b, "discogen_generation_duration_milliseconds_sum %d\n", c.durationSum.Load())
	fmt.Fprintf(&b, "discogen_generation_duration_milliseconds_count %d\n\n", c.durationCount.Load())

	b.WriteString("# HELP discogen_uptime_seconds Server uptime in seconds\n")
	b.WriteString("# TYPE discogen_uptime_seconds gauge\n")
	fmt.Fprintf(&b, "discogen_uptime_seconds %d\n", int64(time.Since(c.startTime).Seconds()))

	return b.String()
}
