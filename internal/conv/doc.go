// Package conv collects tiny helper functions that are not part of the public API
// but aid internal conversions.
//
// At the moment it only exposes `AsKey` which normalises JSON-decoded scalar
// values (progress tokens, request ids) into a comparable string key.
package conv
