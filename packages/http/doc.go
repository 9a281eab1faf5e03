// Package http executes resolved request units against real servers.
//
// It wraps the standard library's http package with:
//   - Configurable per-call timeouts
//   - Redirect handling and optional TLS verification skip
//   - Default headers merged beneath request-declared headers
//   - Response normalization (status, headers, body, duration)
package http
