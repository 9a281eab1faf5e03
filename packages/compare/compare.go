package compare

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/restcheck/restcheck/packages/core/parser"
	"github.com/restcheck/restcheck/packages/http"
)

// Mismatch is one itemized difference between expected and actual.
type Mismatch struct {
	Field    string
	Expected any
	Actual   any
	Message  string
}

// Result is the verdict for one response. Mismatches is empty only when
// Passed is true, and keeps the order the checks ran in.
type Result struct {
	Passed     bool
	Strategy   Strategy
	Mismatches []*Mismatch
}

// Comparator compares actual responses against expected blocks.
type Comparator struct {
	baseDir string
}

type Option func(*Comparator)

// WithBaseDir sets the directory schema file references resolve against.
func WithBaseDir(dir string) Option {
	return func(c *Comparator) {
		c.baseDir = dir
	}
}

func NewComparator(opts ...Option) *Comparator {
	c := &Comparator{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare runs Compare on a zero-configured Comparator.
func Compare(expected *parser.ExpectedResponse, actual *http.Response) *Result {
	return NewComparator().Compare(expected, actual)
}

// Compare produces the verdict for one response. With no expected block
// the default policy applies: pass iff the status code is 200. All
// checks run independently; nothing short-circuits.
func (c *Comparator) Compare(expected *parser.ExpectedResponse, actual *http.Response) *Result {
	result := &Result{Strategy: SelectStrategy(expected, actual)}

	if expected == nil {
		if actual.StatusCode != 200 {
			result.add("statusCode", 200, actual.StatusCode,
				fmt.Sprintf("expected status 200, got %d", actual.StatusCode))
		}
		result.Passed = len(result.Mismatches) == 0
		return result
	}

	if expected.StatusCode > 0 && actual.StatusCode != expected.StatusCode {
		result.add("statusCode", expected.StatusCode, actual.StatusCode,
			fmt.Sprintf("expected status %d, got %d", expected.StatusCode, actual.StatusCode))
	}

	if expected.StatusText != "" && actual.StatusText() != expected.StatusText {
		result.add("statusText", expected.StatusText, actual.StatusText(),
			fmt.Sprintf("expected status text %q, got %q", expected.StatusText, actual.StatusText()))
	}

	c.compareHeaders(expected, actual, result)

	if strings.TrimSpace(expected.Body) != "" {
		c.compareBody(expected, actual, result)
	}

	result.Passed = len(result.Mismatches) == 0
	return result
}

func (r *Result) add(field string, expected, actual any, message string) {
	r.Mismatches = append(r.Mismatches, &Mismatch{
		Field:    field,
		Expected: expected,
		Actual:   actual,
		Message:  message,
	})
}

// compareHeaders checks only the headers the expected block lists, with
// case-insensitive names.
func (c *Comparator) compareHeaders(expected *parser.ExpectedResponse, actual *http.Response, result *Result) {
	for _, h := range expected.Headers {
		actualValue, found := lookupHeader(actual.Headers, h.Name)
		field := "headers." + h.Name
		if !found {
			result.add(field, h.Value, nil,
				fmt.Sprintf("missing header %q", h.Name))
			continue
		}
		if actualValue != h.Value {
			result.add(field, h.Value, actualValue,
				fmt.Sprintf("header %q: expected %q, got %q", h.Name, h.Value, actualValue))
		}
	}
}

func lookupHeader(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func (c *Comparator) compareBody(expected *parser.ExpectedResponse, actual *http.Response, result *Result) {
	switch result.Strategy {
	case StrategyJSON:
		compareJSONBody(expected.Body, actual.BodyString(), result)
	case StrategyPartial:
		comparePartialBody(expected.Body, actual.BodyString(), result)
	case StrategySchema:
		c.compareSchemaBody(expected.Body, actual.BodyString(), result)
	default:
		compareExactBody(expected.Body, actual.BodyString(), result)
	}
}

// compareJSONBody coerces both sides to JSON values and compares their
// canonical key-sorted serializations, so key order never matters.
func compareJSONBody(expected, actual string, result *Result) {
	var expectedValue, actualValue any
	expectedErr := json.Unmarshal([]byte(expected), &expectedValue)
	actualErr := json.Unmarshal([]byte(actual), &actualValue)

	if expectedErr != nil || actualErr != nil {
		side := "actual"
		if expectedErr != nil {
			side = "expected"
		}
		result.add("body", expected, actual,
			fmt.Sprintf("%s body is not valid JSON", side))
		return
	}

	expectedCanon := canonicalJSON(expectedValue)
	actualCanon := canonicalJSON(actualValue)
	if expectedCanon != actualCanon {
		result.add("body", expectedCanon, actualCanon, "JSON bodies differ")
	}
}

// canonicalJSON serializes with sorted object keys, which encoding/json
// guarantees for maps.
func canonicalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func compareExactBody(expected, actual string, result *Result) {
	if expected != actual {
		result.add("body", expected, actual, "bodies are not identical")
	}
}

// comparePartialBody treats * as "any sequence including none" when the
// expected text contains one, otherwise it checks plain containment.
func comparePartialBody(expected, actual string, result *Result) {
	if strings.Contains(expected, "*") {
		pattern := wildcardPattern(expected)
		matched, err := regexp.MatchString(pattern, actual)
		if err != nil || !matched {
			result.add("body", expected, actual, "body does not match wildcard pattern")
		}
		return
	}
	if !strings.Contains(actual, expected) {
		result.add("body", expected, actual, "body does not contain expected text")
	}
}

// wildcardPattern escapes every regex metacharacter except *, maps * to
// a newline-crossing any-sequence, and anchors to the full text.
func wildcardPattern(expected string) string {
	escaped := regexp.QuoteMeta(expected)
	return "(?s)^" + strings.ReplaceAll(escaped, `\*`, ".*") + "$"
}
