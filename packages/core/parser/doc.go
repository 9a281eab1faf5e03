// Package parser provides parsing functionality for restcheck template files.
//
// A template document holds file-wide variables followed by one or more
// request definitions separated with ### markers. Each request may carry
// block-scoped variables, headers, a raw body, and an optional expected
// response block opened by an HTTP status line.
//
// The parser handles:
//   - Variable declarations with the @name = value directive
//   - HTTP request definitions (method, URL, headers, body)
//   - Expected response blocks (status line, headers, body)
//   - Variables scoped to a single expected response block
package parser
