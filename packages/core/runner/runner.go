package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/restcheck/restcheck/packages/compare"
	"github.com/restcheck/restcheck/packages/core/resolve"
	"github.com/restcheck/restcheck/packages/http"
)

// Strategy selects the scheduling model for a run.
type Strategy string

const (
	Sequential Strategy = "sequential"
	Concurrent Strategy = "concurrent"
)

// Executor issues one HTTP call for a resolved unit. *http.Client
// satisfies it; tests substitute stubs.
type Executor interface {
	Execute(ctx context.Context, unit *resolve.Unit) (*http.ExecutedUnit, error)
}

// Config is the normalized run configuration.
type Config struct {
	Timeout        time.Duration
	DefaultHeaders map[string]string
	// Bail halts further scheduling once this many results have failed.
	// Zero means never halt.
	Bail int
	// MaxRequests truncates the unit list before scheduling. Zero means
	// no cap.
	MaxRequests int
	// Delay is inserted between sequential requests, never before the
	// first one. Ignored in concurrent mode.
	Delay    time.Duration
	Strategy Strategy
	// RequestsPerSecond throttles concurrent launches. Zero launches
	// everything up front.
	RequestsPerSecond float64
	FollowRedirects   bool
	ValidateSSL       bool
	Proxy             string
}

// Result is the outcome for one unit. Executed and Comparison are nil
// exactly when execution failed before comparison, in which case Err
// carries the cause. A comparison mismatch is not an error: Passed is
// false and Err stays nil.
type Result struct {
	Unit       *resolve.Unit
	Passed     bool
	Executed   *http.ExecutedUnit
	Comparison *compare.Result
	Err        error
}

// RunResult aggregates one run.
type RunResult struct {
	ID       string
	Results  []*Result
	Duration time.Duration
	Passed   int
	Failed   int
}

// Options tunes a single Execute call. OnResult is invoked as each unit
// completes and is waited for before proceeding: in strict order for
// sequential runs, in completion order for concurrent runs.
type Options struct {
	OnResult func(*Result)
}

type Runner struct {
	executor   Executor
	comparator *compare.Comparator
	config     *Config
}

type Option func(*Runner)

// WithExecutor replaces the HTTP executor.
func WithExecutor(e Executor) Option {
	return func(r *Runner) {
		r.executor = e
	}
}

// WithComparator replaces the response comparator.
func WithComparator(c *compare.Comparator) Option {
	return func(r *Runner) {
		r.comparator = c
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Strategy == "" {
		cfg.Strategy = Sequential
	}

	r := &Runner{
		config:     cfg,
		comparator: compare.NewComparator(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.executor == nil {
		clientOpts := []http.ClientOption{
			http.WithFollowRedirects(cfg.FollowRedirects),
			http.WithValidateSSL(cfg.ValidateSSL),
		}
		if cfg.Timeout > 0 {
			clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
		}
		if len(cfg.DefaultHeaders) > 0 {
			clientOpts = append(clientOpts, http.WithDefaultHeaders(cfg.DefaultHeaders))
		}
		if cfg.Proxy != "" {
			clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
		}
		r.executor = http.NewClient(clientOpts...)
	}
	return r
}

// Run executes the units and wraps the results in a RunResult.
func (r *Runner) Run(ctx context.Context, units []*resolve.Unit, opts *Options) *RunResult {
	start := time.Now()
	results := r.Execute(ctx, units, opts)

	run := &RunResult{
		ID:       uuid.NewString(),
		Results:  results,
		Duration: time.Since(start),
	}
	for _, res := range results {
		if res.Passed {
			run.Passed++
		} else {
			run.Failed++
		}
	}
	return run
}

// Execute schedules the units under the configured strategy. Per-unit
// failures are captured into results and never propagated; one unit's
// failure never cancels sibling in-flight work.
func (r *Runner) Execute(ctx context.Context, units []*resolve.Unit, opts *Options) []*Result {
	if opts == nil {
		opts = &Options{}
	}
	if r.config.MaxRequests > 0 && len(units) > r.config.MaxRequests {
		units = units[:r.config.MaxRequests]
	}

	if r.config.Strategy == Concurrent {
		return r.executeConcurrent(ctx, units, opts)
	}
	return r.executeSequential(ctx, units, opts)
}

// executeSequential keeps one call in flight at a time, in source+index
// order. Delay and bail apply deterministically: unit i finalizes,
// comparison included, before unit i+1 starts.
func (r *Runner) executeSequential(ctx context.Context, units []*resolve.Unit, opts *Options) []*Result {
	results := make([]*Result, 0, len(units))
	failures := 0

	for i, unit := range units {
		if i > 0 && r.config.Delay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(r.config.Delay):
			}
		}

		result := r.executeUnit(ctx, unit)
		results = append(results, result)
		if !result.Passed {
			failures++
		}
		if opts.OnResult != nil {
			opts.OnResult(result)
		}
		if r.config.Bail > 0 && failures >= r.config.Bail {
			break
		}
	}
	return results
}

// executeConcurrent launches every post-cap unit up front, without
// delay. Results come back in completion order. Bail is best-effort: it
// stops goroutines that have not dispatched yet (which matters when a
// rate throttle staggers launches) but never cancels in-flight calls,
// so the result set may exceed the nominal bail count.
func (r *Runner) executeConcurrent(ctx context.Context, units []*resolve.Unit, opts *Options) []*Result {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  = make([]*Result, 0, len(units))
		failures atomic.Int64
	)

	var limiter *rate.Limiter
	if r.config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.config.RequestsPerSecond), 1)
	}

	for _, unit := range units {
		wg.Add(1)
		go func(u *resolve.Unit) {
			defer wg.Done()

			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}
			if r.config.Bail > 0 && failures.Load() >= int64(r.config.Bail) {
				return
			}

			result := r.executeUnit(ctx, u)
			if !result.Passed {
				failures.Add(1)
			}

			mu.Lock()
			results = append(results, result)
			if opts.OnResult != nil {
				opts.OnResult(result)
			}
			mu.Unlock()
		}(unit)
	}

	wg.Wait()
	return results
}

// executeUnit is the per-call safety wrapper: any executor or comparator
// failure, panics included, becomes result data so partial batch
// failures never discard completed or scheduled work.
func (r *Runner) executeUnit(ctx context.Context, unit *resolve.Unit) (result *Result) {
	result = &Result{Unit: unit}
	defer func() {
		if p := recover(); p != nil {
			result.Passed = false
			result.Executed = nil
			result.Comparison = nil
			result.Err = fmt.Errorf("request %s[%d]: %v", unit.Source, unit.Index, p)
		}
	}()

	executed, err := r.executor.Execute(ctx, unit)
	if err != nil {
		result.Err = err
		return result
	}

	result.Executed = executed
	result.Comparison = r.comparator.Compare(unit.Request.Expected, executed.Response)
	result.Passed = result.Comparison.Passed
	return result
}
