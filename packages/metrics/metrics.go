// Package metrics aggregates per-request latencies into a run summary.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/restcheck/restcheck/packages/core/runner"
)

// Summary holds the latency distribution of one run.
type Summary struct {
	Count int64
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

// Collector records request durations into an HDR histogram. Safe for
// concurrent use.
type Collector struct {
	mu sync.Mutex
	// 1us to 60s range, 3 significant digits
	histogram *hdrhistogram.Histogram
}

func NewCollector() *Collector {
	return &Collector{
		histogram: hdrhistogram.New(1, 60_000_000, 3),
	}
}

func (c *Collector) Record(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.histogram.RecordValue(d.Microseconds())
}

func (c *Collector) Summary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return &Summary{
		Count: c.histogram.TotalCount(),
		Min:   us(c.histogram.Min()),
		Max:   us(c.histogram.Max()),
		Mean:  time.Duration(c.histogram.Mean()) * time.Microsecond,
		P50:   us(c.histogram.ValueAtQuantile(50)),
		P95:   us(c.histogram.ValueAtQuantile(95)),
		P99:   us(c.histogram.ValueAtQuantile(99)),
	}
}

// FromResults summarizes the durations of all executed results.
func FromResults(results []*runner.Result) *Summary {
	c := NewCollector()
	for _, res := range results {
		if res.Executed != nil && res.Executed.Response != nil {
			c.Record(res.Executed.Response.Duration)
		}
	}
	return c.Summary()
}
