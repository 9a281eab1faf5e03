package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/restcheck/restcheck/packages/core/runner"
)

// JSONOutput is the complete machine-readable output structure.
type JSONOutput struct {
	RunID    string        `json:"runId"`
	Summary  JSONSummary   `json:"summary"`
	Requests []JSONRequest `json:"requests"`
	Duration float64       `json:"duration"`
	Time     string        `json:"time"`
}

type JSONSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

type JSONRequest struct {
	Name       string         `json:"name,omitempty"`
	Source     string         `json:"source"`
	Index      int            `json:"index"`
	Method     string         `json:"method"`
	URL        string         `json:"url"`
	Passed     bool           `json:"passed"`
	Error      string         `json:"error,omitempty"`
	Strategy   string         `json:"strategy,omitempty"`
	Response   *JSONResponse  `json:"response,omitempty"`
	Mismatches []JSONMismatch `json:"mismatches,omitempty"`
}

type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"`
}

type JSONMismatch struct {
	Field    string `json:"field"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Message  string `json:"message,omitempty"`
}

// JSONFormatter accumulates results and emits one JSON document on Flush.
type JSONFormatter struct {
	writer   io.Writer
	runID    string
	requests []JSONRequest
	duration time.Duration
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:   os.Stdout,
		requests: make([]JSONRequest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatRun(run *runner.RunResult) {
	f.runID = run.ID
	f.duration += run.Duration

	for _, r := range run.Results {
		req := JSONRequest{
			Name:   r.Unit.Request.Name,
			Source: r.Unit.Source,
			Index:  r.Unit.Index,
			Method: r.Unit.Request.Method,
			URL:    r.Unit.Request.URL,
			Passed: r.Passed,
		}
		if r.Err != nil {
			req.Error = r.Err.Error()
		}
		if r.Executed != nil && r.Executed.Response != nil {
			resp := r.Executed.Response
			req.Response = &JSONResponse{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Headers:    resp.Headers,
				Duration:   float64(resp.Duration.Milliseconds()),
			}
		}
		if r.Comparison != nil {
			req.Strategy = string(r.Comparison.Strategy)
			for _, m := range r.Comparison.Mismatches {
				req.Mismatches = append(req.Mismatches, JSONMismatch{
					Field:    m.Field,
					Expected: m.Expected,
					Actual:   m.Actual,
					Message:  m.Message,
				})
			}
		}
		f.requests = append(f.requests, req)
	}
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual request results.
}

// Flush writes the accumulated JSON output.
func (f *JSONFormatter) Flush() error {
	var passed, failed int
	for _, r := range f.requests {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	out := JSONOutput{
		RunID: f.runID,
		Summary: JSONSummary{
			Total:  len(f.requests),
			Passed: passed,
			Failed: failed,
		},
		Requests: f.requests,
		Duration: float64(f.duration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
