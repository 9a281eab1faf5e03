package resolve

import "github.com/restcheck/restcheck/packages/core/parser"

// cloneRequest deep-copies a request so interpolation never mutates the
// parsed document.
func cloneRequest(req *parser.Request) *parser.Request {
	out := &parser.Request{
		Name:   req.Name,
		Method: req.Method,
		URL:    req.URL,
		Line:   req.Line,
	}
	out.Headers = cloneHeaders(req.Headers)
	out.Variables = cloneVariables(req.Variables)
	if req.Body != nil {
		body := *req.Body
		out.Body = &body
	}
	if req.Expected != nil {
		out.Expected = &parser.ExpectedResponse{
			StatusCode: req.Expected.StatusCode,
			StatusText: req.Expected.StatusText,
			Body:       req.Expected.Body,
			Line:       req.Expected.Line,
		}
		out.Expected.Headers = cloneHeaders(req.Expected.Headers)
		out.Expected.Variables = cloneVariables(req.Expected.Variables)
	}
	return out
}

func cloneHeaders(headers []*parser.Header) []*parser.Header {
	if headers == nil {
		return nil
	}
	out := make([]*parser.Header, len(headers))
	for i, h := range headers {
		header := *h
		out[i] = &header
	}
	return out
}

func cloneVariables(vars []*parser.Variable) []*parser.Variable {
	if vars == nil {
		return nil
	}
	out := make([]*parser.Variable, len(vars))
	for i, v := range vars {
		variable := *v
		out[i] = &variable
	}
	return out
}
