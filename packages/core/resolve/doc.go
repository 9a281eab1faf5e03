// Package resolve expands {{variable}} placeholders in parsed template
// documents into self-contained request units.
//
// Scopes layer from lowest to highest precedence:
//   - base variables (environment files, CLI overrides)
//   - file-wide variables
//   - per-request block variables
//   - expected-response block locals (visible only inside that block)
//
// Replacement values may reference other variables; interpolation runs a
// bounded fixed-point loop so cyclic definitions terminate. Built-in
// function placeholders such as {{uuid()}} are evaluated through the
// builtin registry.
package resolve
