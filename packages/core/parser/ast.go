package parser

import "fmt"

// SourceKind says where a template document came from.
type SourceKind int

const (
	KindFile SourceKind = iota
	KindInline
)

func (k SourceKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindInline:
		return "inline"
	default:
		return "unknown"
	}
}

// Source is one template document: file-wide variables followed by requests.
type Source struct {
	Name      string
	Kind      SourceKind
	Variables []*Variable
	Requests  []*Request
}

type Variable struct {
	Name  string
	Value string
	Line  int
}

type Request struct {
	Name      string
	Method    string
	URL       string
	Headers   []*Header
	Body      *Body
	Variables []*Variable // block scope, this request only
	Expected  *ExpectedResponse
	Line      int
}

type Header struct {
	Name  string
	Value string
	Line  int
}

type Body struct {
	Raw         string
	ContentType string
}

// ExpectedResponse is the verification block attached to a request.
// Its Variables are visible only while interpolating the block itself.
type ExpectedResponse struct {
	StatusCode int
	StatusText string
	Headers    []*Header
	Body       string
	Variables  []*Variable
	Line       int
}

type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}
