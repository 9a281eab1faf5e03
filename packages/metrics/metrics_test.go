package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/restcheck/restcheck/packages/core/runner"
	"github.com/restcheck/restcheck/packages/http"
)

func TestCollectorSummary(t *testing.T) {
	c := NewCollector()
	for _, d := range []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
		40 * time.Millisecond,
	} {
		c.Record(d)
	}

	s := c.Summary()
	assert.Equal(t, int64(4), s.Count)
	assert.InDelta(t, float64(10*time.Millisecond), float64(s.Min), float64(time.Millisecond))
	assert.InDelta(t, float64(40*time.Millisecond), float64(s.Max), float64(time.Millisecond))
	assert.GreaterOrEqual(t, s.P95, s.P50)
	assert.GreaterOrEqual(t, s.P99, s.P95)
}

func TestCollectorEmpty(t *testing.T) {
	s := NewCollector().Summary()
	assert.Equal(t, int64(0), s.Count)
}

func TestFromResults(t *testing.T) {
	results := []*runner.Result{
		{Executed: &http.ExecutedUnit{Response: &http.Response{Duration: 5 * time.Millisecond}}},
		{Executed: &http.ExecutedUnit{Response: &http.Response{Duration: 15 * time.Millisecond}}},
		// Failed before execution; no duration to record.
		{Err: assert.AnError},
	}

	s := FromResults(results)
	assert.Equal(t, int64(2), s.Count)
}

func TestCollectorConcurrentRecord(t *testing.T) {
	c := NewCollector()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				c.Record(time.Millisecond)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	assert.Equal(t, int64(800), c.Summary().Count)
}
