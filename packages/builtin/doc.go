// Package builtin provides built-in functions for use in restcheck
// template files.
//
// Available functions:
//   - uuid(): Generate a random UUID v4
//   - now(): Current time in RFC 3339 format
//   - timestamp() / timestampMs(): Current Unix timestamp
//   - random(min, max): Random integer in range
//   - randomString(length): Random alphanumeric string
//   - base64(value) / base64Decode(value)
//   - sha256(value)
//   - urlEncode(value) / urlDecode(value)
//
// Functions are invoked with the {{functionName(args)}} syntax.
package builtin
