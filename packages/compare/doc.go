// Package compare verifies actual responses against expected response
// blocks, producing pass/fail verdicts with itemized mismatches.
//
// A strategy is selected per response from content types and body shape:
//   - schema: expected body opens with an @schema directive
//   - json: structural comparison with key-order-independent equality
//   - partial: * wildcard patterns or plain substring containment
//   - exact: verbatim text equality
//
// Without an expected block the default policy applies: the actual
// status code must be 200. Status code, status text, headers, and body
// are checked independently; every failed check adds one mismatch.
package compare
