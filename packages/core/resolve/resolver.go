package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/restcheck/restcheck/packages/builtin"
	"github.com/restcheck/restcheck/packages/core/parser"
)

const (
	// DefaultMaxPasses bounds transitive interpolation so cyclic variable
	// definitions terminate.
	DefaultMaxPasses = 10
)

var (
	placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)
	functionPattern    = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+\([^{}]*\))\s*\}\}`)
)

// UnresolvedError reports a placeholder that has no definition in scope.
// It is returned only when strict mode is enabled.
type UnresolvedError struct {
	Name   string
	Source string
}

func (e *UnresolvedError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: unresolved variable {{%s}}", e.Source, e.Name)
	}
	return fmt.Sprintf("unresolved variable {{%s}}", e.Name)
}

// Unit is a fully interpolated request ready for execution.
type Unit struct {
	Request *parser.Request
	Source  string
	Kind    parser.SourceKind
	Index   int
}

// Resolver expands {{name}} placeholders using layered scopes: base
// (environment) variables below file variables below per-request block
// variables, with expected-response locals layered on top while that
// block is interpolated.
type Resolver struct {
	base      map[string]string
	strict    bool
	maxPasses int
	funcs     *builtin.Registry
}

type Option func(*Resolver)

// WithStrict makes unresolved placeholders fail resolution instead of
// being left verbatim.
func WithStrict(strict bool) Option {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// WithMaxPasses overrides the interpolation pass cap.
func WithMaxPasses(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxPasses = n
		}
	}
}

// WithBaseScope sets variables visible below every file's own scope,
// typically loaded from an environment file.
func WithBaseScope(vars map[string]string) Option {
	return func(r *Resolver) {
		for k, v := range vars {
			r.base[k] = v
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		base:      make(map[string]string),
		maxPasses: DefaultMaxPasses,
		funcs:     builtin.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAll flattens units from every source in source order. A nil
// source aborts the whole batch before anything is resolved.
func (r *Resolver) ResolveAll(sources []*parser.Source) ([]*Unit, error) {
	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("source %d is nil", i)
		}
	}

	var units []*Unit
	for _, src := range sources {
		resolved, err := r.ResolveSource(src)
		if err != nil {
			return nil, err
		}
		units = append(units, resolved...)
	}
	return units, nil
}

// ResolveSource resolves every request in one template document. Each
// request starts from the file scope only; block variables never leak
// across requests.
func (r *Resolver) ResolveSource(src *parser.Source) ([]*Unit, error) {
	if src == nil {
		return nil, fmt.Errorf("source is nil")
	}

	fileScope := mergeScopes(r.base, variableMap(src.Variables))

	units := make([]*Unit, 0, len(src.Requests))
	for i, req := range src.Requests {
		scope := mergeScopes(fileScope, variableMap(req.Variables))

		resolved, err := r.resolveRequest(req, scope, src.Name)
		if err != nil {
			return nil, err
		}
		units = append(units, &Unit{
			Request: resolved,
			Source:  src.Name,
			Kind:    src.Kind,
			Index:   i,
		})
	}
	return units, nil
}

func (r *Resolver) resolveRequest(req *parser.Request, scope map[string]string, source string) (*parser.Request, error) {
	out := cloneRequest(req)

	var err error
	if out.URL, err = r.interpolate(out.URL, scope, source); err != nil {
		return nil, err
	}
	for _, h := range out.Headers {
		if h.Name, err = r.interpolate(h.Name, scope, source); err != nil {
			return nil, err
		}
		if h.Value, err = r.interpolate(h.Value, scope, source); err != nil {
			return nil, err
		}
	}
	if out.Body != nil {
		if out.Body.Raw, err = r.interpolate(out.Body.Raw, scope, source); err != nil {
			return nil, err
		}
	}

	if out.Expected != nil {
		// The expected block sees the request scope overridden by its own
		// locally declared variables; the layer is discarded afterwards.
		blockScope := mergeScopes(scope, variableMap(out.Expected.Variables))
		if out.Expected.StatusText, err = r.interpolate(out.Expected.StatusText, blockScope, source); err != nil {
			return nil, err
		}
		for _, h := range out.Expected.Headers {
			if h.Name, err = r.interpolate(h.Name, blockScope, source); err != nil {
				return nil, err
			}
			if h.Value, err = r.interpolate(h.Value, blockScope, source); err != nil {
				return nil, err
			}
		}
		if out.Expected.Body, err = r.interpolate(out.Expected.Body, blockScope, source); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// interpolate rewrites placeholders with a bounded fixed-point loop: a
// replacement value may itself contain placeholders, so passes repeat
// until nothing changes or the cap is reached.
func (r *Resolver) interpolate(input string, scope map[string]string, source string) (string, error) {
	s := input
	for pass := 0; pass < r.maxPasses; pass++ {
		next := r.substituteOnce(s, scope)
		if next == s {
			break
		}
		s = next
	}

	if r.strict {
		if m := placeholderPattern.FindStringSubmatch(s); m != nil {
			return "", &UnresolvedError{Name: m[1], Source: source}
		}
	}
	return s, nil
}

func (r *Resolver) substituteOnce(s string, scope map[string]string) string {
	s = functionPattern.ReplaceAllStringFunc(s, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if result, ok := r.funcs.Call(expr); ok {
			return fmt.Sprintf("%v", result)
		}
		return match
	})

	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := scope[name]; ok {
			return val
		}
		// Unknown placeholders stay verbatim; strict mode rejects them
		// after the passes settle.
		return match
	})
}

func variableMap(vars []*parser.Variable) map[string]string {
	m := make(map[string]string, len(vars))
	for _, v := range vars {
		m[v.Name] = v.Value
	}
	return m
}

func mergeScopes(lower, upper map[string]string) map[string]string {
	merged := make(map[string]string, len(lower)+len(upper))
	for k, v := range lower {
		merged[k] = v
	}
	for k, v := range upper {
		merged[k] = v
	}
	return merged
}
