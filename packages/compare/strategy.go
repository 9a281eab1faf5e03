package compare

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/restcheck/restcheck/packages/core/parser"
	"github.com/restcheck/restcheck/packages/http"
)

// Strategy is the comparison algorithm chosen for a response body.
type Strategy string

const (
	// StrategyDefault applies when the request has no expected block:
	// the only check is that the actual status code is 200.
	StrategyDefault Strategy = "default"
	StrategyJSON    Strategy = "json"
	StrategyExact   Strategy = "exact"
	StrategyPartial Strategy = "partial"
	StrategySchema  Strategy = "schema"
)

// SelectStrategy picks the comparison strategy from content types and
// body shape, in priority order: schema directive, then json, then
// partial, then exact.
func SelectStrategy(expected *parser.ExpectedResponse, actual *http.Response) Strategy {
	if expected == nil {
		return StrategyDefault
	}
	if isSchemaDirective(expected.Body) {
		return StrategySchema
	}

	expectedCT := headerValue(expected.Headers, "Content-Type")
	if isJSONContentType(expectedCT) || actual.IsJSON() {
		return StrategyJSON
	}
	if looksLikeJSON(expected.Body) || looksLikeJSON(actual.BodyString()) {
		return StrategyJSON
	}

	if strings.Contains(strings.ToLower(expectedCT), "text/html") ||
		strings.Contains(strings.ToLower(actual.ContentType()), "text/html") {
		return StrategyPartial
	}
	if strings.Contains(expected.Body, "*") {
		return StrategyPartial
	}

	return StrategyExact
}

func isJSONContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}

func looksLikeJSON(body string) bool {
	trimmed := strings.TrimSpace(body)
	return trimmed != "" && gjson.Valid(trimmed)
}

func headerValue(headers []*parser.Header, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
