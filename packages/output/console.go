package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/restcheck/restcheck/packages/core/runner"
	"github.com/restcheck/restcheck/packages/metrics"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatRun(run *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "\n")

	for _, r := range run.Results {
		name := displayName(r)

		if r.Err != nil {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), name, red(fmt.Sprintf("(%v)", r.Err)))
			continue
		}

		symbol := green("✓")
		if !r.Passed {
			symbol = red("✗")
		}

		duration := int64(0)
		if r.Executed != nil && r.Executed.Response != nil {
			duration = r.Executed.Response.DurationMs()
		}
		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, name, cyan(fmt.Sprintf("(%dms)", duration)))

		if f.verbose && r.Executed != nil {
			fmt.Fprintf(f.writer, "    %s %s -> %d\n",
				r.Executed.Sent.Method, r.Executed.Sent.URL, r.Executed.Response.StatusCode)
		}

		if !r.Passed && r.Comparison != nil {
			for _, m := range r.Comparison.Mismatches {
				fmt.Fprintf(f.writer, "    %s %s\n", red("→"), m.Field)
				fmt.Fprintf(f.writer, "      Expected: %s\n", formatValue(m.Expected, 100))
				fmt.Fprintf(f.writer, "      Actual:   %s\n", formatValue(m.Actual, 100))
				if m.Message != "" {
					fmt.Fprintf(f.writer, "      %s\n", m.Message)
				}
			}
		}
	}

	fmt.Fprintf(f.writer, "\nRequests: ")
	if run.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", run.Passed)))
	}
	if run.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", run.Failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(run.Results))
	fmt.Fprintf(f.writer, "Time:     %dms\n\n", run.Duration.Milliseconds())
}

func (f *ConsoleFormatter) FormatSummary(summary *metrics.Summary) {
	if !f.verbose || summary.Count == 0 {
		return
	}
	fmt.Fprintf(f.writer, "Latency:  p50=%s p95=%s p99=%s max=%s\n\n",
		summary.P50, summary.P95, summary.P99, summary.Max)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func displayName(r *runner.Result) string {
	if r.Unit.Request.Name != "" {
		return r.Unit.Request.Name
	}
	return fmt.Sprintf("%s %s", r.Unit.Request.Method, r.Unit.Request.URL)
}

// formatValue truncates or summarizes large values for display.
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case nil:
		return "<none>"
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}
