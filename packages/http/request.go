package http

import "github.com/restcheck/restcheck/packages/core/resolve"

// Request is the literal request sent over the wire, after default
// headers and the declared body content type have been applied.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// ExecutedUnit pairs a resolved unit with what was actually sent and
// what came back.
type ExecutedUnit struct {
	Unit     *resolve.Unit
	Sent     *Request
	Response *Response
}
