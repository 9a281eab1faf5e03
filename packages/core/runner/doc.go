// Package runner schedules resolved request units against an HTTP
// executor and verifies each response.
//
// Two mutually exclusive scheduling models exist per run:
//   - Sequential: one call in flight, deterministic order, exact bail,
//     optional delay between requests.
//   - Concurrent: all units launched up front, completion-order results,
//     best-effort bail, optional launch rate throttle.
//
// Per-unit failures (network, timeout, panics) are captured into that
// unit's result and never abort siblings.
package runner
