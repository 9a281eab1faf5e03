package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restcheck/restcheck/packages/compare"
	"github.com/restcheck/restcheck/packages/core/parser"
	"github.com/restcheck/restcheck/packages/core/resolve"
	"github.com/restcheck/restcheck/packages/core/runner"
	"github.com/restcheck/restcheck/packages/http"
)

func sampleRun() *runner.RunResult {
	unit := func(i int, name string) *resolve.Unit {
		return &resolve.Unit{
			Request: &parser.Request{Name: name, Method: "GET", URL: "http://example/x"},
			Source:  "api.http",
			Index:   i,
		}
	}

	return &runner.RunResult{
		ID:       "run-abc",
		Duration: 250 * time.Millisecond,
		Passed:   1,
		Failed:   2,
		Results: []*runner.Result{
			{
				Unit:   unit(0, "ok"),
				Passed: true,
				Executed: &http.ExecutedUnit{Response: &http.Response{
					StatusCode: 200,
					Status:     "200 OK",
					Duration:   12 * time.Millisecond,
				}},
				Comparison: &compare.Result{Passed: true, Strategy: compare.StrategyJSON},
			},
			{
				Unit:   unit(1, "mismatched"),
				Passed: false,
				Executed: &http.ExecutedUnit{Response: &http.Response{
					StatusCode: 404,
					Status:     "404 Not Found",
				}},
				Comparison: &compare.Result{
					Strategy: compare.StrategyDefault,
					Mismatches: []*compare.Mismatch{
						{Field: "statusCode", Expected: 200, Actual: 404, Message: "expected status 200, got 404"},
					},
				},
			},
			{
				Unit:   unit(2, "broken"),
				Passed: false,
				Err:    errors.New("connection refused"),
			},
		},
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatRun(sampleRun())
	require.NoError(t, f.Flush())

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "run-abc", out.RunID)
	assert.Equal(t, 3, out.Summary.Total)
	assert.Equal(t, 1, out.Summary.Passed)
	assert.Equal(t, 2, out.Summary.Failed)
	require.Len(t, out.Requests, 3)

	assert.Equal(t, "json", out.Requests[0].Strategy)
	assert.Equal(t, 200, out.Requests[0].Response.StatusCode)

	require.Len(t, out.Requests[1].Mismatches, 1)
	assert.Equal(t, "statusCode", out.Requests[1].Mismatches[0].Field)

	assert.Equal(t, "connection refused", out.Requests[2].Error)
	assert.Nil(t, out.Requests[2].Response)
}

func TestConsoleFormatterWritesResults(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatRun(sampleRun())

	s := buf.String()
	assert.Contains(t, s, "ok")
	assert.Contains(t, s, "mismatched")
	assert.Contains(t, s, "connection refused")
	assert.Contains(t, s, "expected status 200, got 404")
	assert.Contains(t, s, "1 passed")
	assert.Contains(t, s, "2 failed")
	assert.Contains(t, s, "3 total")
}

func TestConsoleFormatterError(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatError(errors.New("no files matched"))
	assert.Contains(t, buf.String(), "no files matched")
}
