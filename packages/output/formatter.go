package output

import (
	"github.com/restcheck/restcheck/packages/core/runner"
	"github.com/restcheck/restcheck/packages/metrics"
)

// Formatter renders run results for humans or machines.
type Formatter interface {
	FormatRun(run *runner.RunResult)
	FormatError(err error)
}

// Flushable formatters accumulate results and emit them at the end.
type Flushable interface {
	Flush() error
}

// SummaryFormatter formatters can render a latency summary.
type SummaryFormatter interface {
	FormatSummary(summary *metrics.Summary)
}
