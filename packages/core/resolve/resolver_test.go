package resolve

import (
	"errors"
	"testing"

	"github.com/restcheck/restcheck/packages/core/parser"
)

func source(t *testing.T, input string) *parser.Source {
	t.Helper()
	src, err := parser.Parse(input, "test.http")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	return src
}

func TestResolveSourceFullResolution(t *testing.T) {
	src := source(t, `@base = http://localhost:9000
@token = secret

### get
GET {{base}}/users
Authorization: Bearer {{token}}

{"base": "{{base}}"}
`)

	units, err := NewResolver().ResolveSource(src)
	if err != nil {
		t.Fatalf("ResolveSource returned error: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}

	req := units[0].Request
	if req.URL != "http://localhost:9000/users" {
		t.Errorf("URL not resolved: %q", req.URL)
	}
	if req.Headers[0].Value != "Bearer secret" {
		t.Errorf("header not resolved: %q", req.Headers[0].Value)
	}
	if req.Body.Raw != `{"base": "http://localhost:9000"}` {
		t.Errorf("body not resolved: %q", req.Body.Raw)
	}
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	src := source(t, `@base = http://x

GET {{base}}/a
`)

	if _, err := NewResolver().ResolveSource(src); err != nil {
		t.Fatalf("ResolveSource returned error: %v", err)
	}
	if src.Requests[0].URL != "{{base}}/a" {
		t.Errorf("input request was mutated: %q", src.Requests[0].URL)
	}
}

func TestResolveBlockVariableLocality(t *testing.T) {
	src := source(t, `@id = 1

### first
GET /users/{{id}}

### second
@id = 2
GET /users/{{id}}

### third
GET /users/{{id}}
`)

	units, err := NewResolver().ResolveSource(src)
	if err != nil {
		t.Fatalf("ResolveSource returned error: %v", err)
	}

	want := []string{"/users/1", "/users/2", "/users/1"}
	for i, w := range want {
		if got := units[i].Request.URL; got != w {
			t.Errorf("unit %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestResolveTransitiveDefinitions(t *testing.T) {
	src := source(t, `@a = X
@b = {{a}}Y
@c = {{b}}Z

GET /{{c}}
`)

	units, err := NewResolver().ResolveSource(src)
	if err != nil {
		t.Fatalf("ResolveSource returned error: %v", err)
	}
	if got := units[0].Request.URL; got != "/XYZ" {
		t.Errorf("expected /XYZ, got %q", got)
	}
}

func TestResolveIdempotent(t *testing.T) {
	src := source(t, `@host = example.com

GET https://{{host}}/v1
`)

	r := NewResolver()
	units, err := r.ResolveSource(src)
	if err != nil {
		t.Fatalf("ResolveSource returned error: %v", err)
	}

	// A second interpolation of an already-resolved value is a no-op.
	again, err := r.interpolate(units[0].Request.URL, map[string]string{"host": "example.com"}, "test.http")
	if err != nil {
		t.Fatalf("interpolate returned error: %v", err)
	}
	if again != units[0].Request.URL {
		t.Errorf("resolution is not idempotent: %q vs %q", again, units[0].Request.URL)
	}
}

func TestResolveUnknownPlaceholderLenient(t *testing.T) {
	src := source(t, `GET /users/{{missing}}
`)

	units, err := NewResolver().ResolveSource(src)
	if err != nil {
		t.Fatalf("ResolveSource returned error: %v", err)
	}
	if got := units[0].Request.URL; got != "/users/{{missing}}" {
		t.Errorf("unknown placeholder should stay verbatim, got %q", got)
	}
}

func TestResolveUnknownPlaceholderStrict(t *testing.T) {
	src := source(t, `GET /users/{{missing}}
`)

	_, err := NewResolver(WithStrict(true)).ResolveSource(src)
	if err == nil {
		t.Fatal("expected an error in strict mode")
	}
	var unresolved *UnresolvedError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedError, got %T", err)
	}
	if unresolved.Name != "missing" {
		t.Errorf("expected name %q, got %q", "missing", unresolved.Name)
	}
	if unresolved.Source != "test.http" {
		t.Errorf("expected source test.http, got %q", unresolved.Source)
	}
}

func TestResolveCyclicDefinitionsTerminate(t *testing.T) {
	src := source(t, `@a = {{b}}
@b = {{a}}

GET /{{a}}
`)

	units, err := NewResolver().ResolveSource(src)
	if err != nil {
		t.Fatalf("ResolveSource returned error: %v", err)
	}
	// The pass cap stops the oscillation; the leftover placeholder stays.
	got := units[0].Request.URL
	if got != "/{{a}}" && got != "/{{b}}" {
		t.Errorf("cycle should leave a placeholder, got %q", got)
	}
}

func TestResolveCyclicDefinitionsStrict(t *testing.T) {
	src := source(t, `@a = {{b}}
@b = {{a}}

GET /{{a}}
`)

	if _, err := NewResolver(WithStrict(true)).ResolveSource(src); err == nil {
		t.Fatal("strict mode should reject the unsettled cycle")
	}
}

func TestResolveBaseScopeUnderFileScope(t *testing.T) {
	src := source(t, `@host = from-file

GET https://{{host}}/{{region}}
`)

	r := NewResolver(WithBaseScope(map[string]string{
		"host":   "from-env",
		"region": "eu",
	}))
	units, err := r.ResolveSource(src)
	if err != nil {
		t.Fatalf("ResolveSource returned error: %v", err)
	}
	if got := units[0].Request.URL; got != "https://from-file/eu" {
		t.Errorf("file scope should shadow the base scope, got %q", got)
	}
}

func TestResolveExpectedBlockLocals(t *testing.T) {
	src := source(t, `@id = 7

GET /users/{{id}}

HTTP/1.1 200 OK
@name = Ada

{"id": {{id}}, "name": "{{name}}"}
`)

	units, err := NewResolver().ResolveSource(src)
	if err != nil {
		t.Fatalf("ResolveSource returned error: %v", err)
	}
	exp := units[0].Request.Expected
	if exp.Body != `{"id": 7, "name": "Ada"}` {
		t.Errorf("expected-block locals not applied: %q", exp.Body)
	}
}

func TestResolveExpectedLocalsDoNotLeak(t *testing.T) {
	src := source(t, `### a
GET /x/{{name}}

HTTP/1.1 200 OK
@name = Ada

### b
GET /y/{{name}}
`)

	units, err := NewResolver().ResolveSource(src)
	if err != nil {
		t.Fatalf("ResolveSource returned error: %v", err)
	}
	if got := units[0].Request.URL; got != "/x/{{name}}" {
		t.Errorf("request line must not see expected-block locals, got %q", got)
	}
	if got := units[1].Request.URL; got != "/y/{{name}}" {
		t.Errorf("expected-block locals leaked across requests, got %q", got)
	}
}

func TestResolveAllNilSourceFailsFast(t *testing.T) {
	good := source(t, "GET /ok\n")

	units, err := NewResolver().ResolveAll([]*parser.Source{good, nil})
	if err == nil {
		t.Fatal("expected an error for a nil source")
	}
	if units != nil {
		t.Errorf("no units should be produced, got %d", len(units))
	}
}

func TestResolveBuiltinFunction(t *testing.T) {
	src := source(t, `GET /trace/{{uuid()}}
`)

	units, err := NewResolver().ResolveSource(src)
	if err != nil {
		t.Fatalf("ResolveSource returned error: %v", err)
	}
	url := units[0].Request.URL
	if len(url) != len("/trace/")+36 {
		t.Errorf("expected a uuid in the path, got %q", url)
	}
}
