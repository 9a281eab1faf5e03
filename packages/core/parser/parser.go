package parser

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	variableLineRe = regexp.MustCompile(`^@([A-Za-z0-9_.-]+)\s*=\s*(.*)$`)
	requestLineRe  = regexp.MustCompile(`^([A-Z]+)\s+(\S.*)$`)
	headerLineRe   = regexp.MustCompile(`^([A-Za-z0-9!#$%&'*+.^_|~-]+):\s*(.*)$`)
	statusLineRe   = regexp.MustCompile(`^HTTP/\d(?:\.\d)?\s+(\d{3})(?:\s+(.*))?$`)
)

var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true,
	"HEAD": true, "OPTIONS": true, "TRACE": true, "CONNECT": true,
}

// ParseFile reads and parses a template document from disk.
func ParseFile(path string) (*Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src, err := Parse(string(content), path)
	if err != nil {
		return nil, err
	}
	src.Kind = KindFile
	return src, nil
}

// Parse parses a template document from a string. The name is used for
// error messages and result display only.
func Parse(input, name string) (*Source, error) {
	p := &parser{
		src:   &Source{Name: name, Kind: KindInline},
		lines: strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n"),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.src, nil
}

type parser struct {
	src   *Source
	lines []string
	pos   int
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return &ParseError{File: p.src.Name, Line: line, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) run() error {
	// File-wide variables live before the first request.
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "" || isComment(trimmed):
			p.pos++
		case strings.HasPrefix(trimmed, "###"):
			if err := p.parseRequest(); err != nil {
				return err
			}
		case variableLineRe.MatchString(trimmed):
			if len(p.src.Requests) > 0 {
				return p.errorf(p.pos+1, "variable outside a request block; file variables must precede the first request")
			}
			m := variableLineRe.FindStringSubmatch(trimmed)
			p.src.Variables = append(p.src.Variables, &Variable{Name: m[1], Value: m[2], Line: p.pos + 1})
			p.pos++
		case isRequestLine(trimmed):
			if err := p.parseRequest(); err != nil {
				return err
			}
		default:
			return p.errorf(p.pos+1, "unexpected line: %q", trimmed)
		}
	}
	return nil
}

func (p *parser) parseRequest() error {
	req := &Request{Line: p.pos + 1}

	// Optional "### Name" separator.
	if trimmed := strings.TrimSpace(p.lines[p.pos]); strings.HasPrefix(trimmed, "###") {
		req.Name = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		p.pos++
	}

	// Block variables, then the method line.
	for p.pos < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.pos])
		if trimmed == "" || isComment(trimmed) {
			p.pos++
			continue
		}
		if m := variableLineRe.FindStringSubmatch(trimmed); m != nil {
			req.Variables = append(req.Variables, &Variable{Name: m[1], Value: m[2], Line: p.pos + 1})
			p.pos++
			continue
		}
		break
	}

	if p.pos >= len(p.lines) {
		return p.errorf(p.pos, "request block has no request line")
	}
	trimmed := strings.TrimSpace(p.lines[p.pos])
	m := requestLineRe.FindStringSubmatch(trimmed)
	if m == nil || !isRequestLine(trimmed) {
		return p.errorf(p.pos+1, "expected a request line, got %q", trimmed)
	}
	req.Method = m[1]
	req.URL = strings.TrimSpace(m[2])
	p.pos++

	// Request headers until a blank line or the end of the block.
	if err := p.parseHeaders(&req.Headers); err != nil {
		return err
	}

	// Raw body until the expected-response block or the next request.
	body := p.collectBody(func(trimmed string) bool {
		return statusLineRe.MatchString(trimmed)
	})
	if body != "" {
		req.Body = &Body{Raw: body, ContentType: detectContentType(body)}
	}

	// Optional expected-response block.
	if p.pos < len(p.lines) {
		if sm := statusLineRe.FindStringSubmatch(strings.TrimSpace(p.lines[p.pos])); sm != nil {
			exp, err := p.parseExpected(sm)
			if err != nil {
				return err
			}
			req.Expected = exp
		}
	}

	p.src.Requests = append(p.src.Requests, req)
	return nil
}

func (p *parser) parseExpected(statusMatch []string) (*ExpectedResponse, error) {
	exp := &ExpectedResponse{Line: p.pos + 1}
	code, err := strconv.Atoi(statusMatch[1])
	if err != nil {
		return nil, p.errorf(p.pos+1, "invalid status code %q", statusMatch[1])
	}
	exp.StatusCode = code
	if len(statusMatch) > 2 {
		exp.StatusText = strings.TrimSpace(statusMatch[2])
	}
	p.pos++

	// Variables local to the expected block sit right under the status line.
	for p.pos < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.pos])
		if m := variableLineRe.FindStringSubmatch(trimmed); m != nil {
			exp.Variables = append(exp.Variables, &Variable{Name: m[1], Value: m[2], Line: p.pos + 1})
			p.pos++
			continue
		}
		break
	}

	if err := p.parseHeaders(&exp.Headers); err != nil {
		return nil, err
	}

	exp.Body = p.collectBody(func(string) bool { return false })
	return exp, nil
}

func (p *parser) parseHeaders(dst *[]*Header) error {
	for p.pos < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.pos])
		if trimmed == "" {
			p.pos++
			return nil
		}
		if strings.HasPrefix(trimmed, "###") || isComment(trimmed) {
			return nil
		}
		m := headerLineRe.FindStringSubmatch(trimmed)
		if m == nil {
			// Not header-shaped; the body starts here without a blank line.
			return nil
		}
		*dst = append(*dst, &Header{Name: m[1], Value: m[2], Line: p.pos + 1})
		p.pos++
	}
	return nil
}

// collectBody gathers raw lines until the next request separator, EOF, or a
// line for which stop returns true. Surrounding blank lines are dropped.
func (p *parser) collectBody(stop func(trimmed string) bool) string {
	var lines []string
	for p.pos < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.pos])
		if strings.HasPrefix(trimmed, "###") || stop(trimmed) {
			break
		}
		lines = append(lines, p.lines[p.pos])
		p.pos++
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func isComment(trimmed string) bool {
	if strings.HasPrefix(trimmed, "###") {
		return false
	}
	return strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//")
}

func isRequestLine(trimmed string) bool {
	m := requestLineRe.FindStringSubmatch(trimmed)
	return m != nil && knownMethods[m[1]]
}

func detectContentType(body string) string {
	t := strings.TrimSpace(body)
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		return "application/json"
	}
	return ""
}
