// Package handlers defines HTTP-layer error codes used across all endpoints.
//
// These symbolic constants are mapped to HTTP responses via the fail()
// helper in this package. They give callers a stable, machine-readable error
// taxonomy that supplements human-readable messages. The recovery and
// rate-limit middleware emit their own envelopes with matching snake_case
// codes; they cannot import this package without a cycle.
//
// Conventions:
//   - Codes are lowercase, snake_case.
//   - Generic codes mirror common HTTP status semantics.
//   - Domain-specific codes cover failures the status alone cannot convey
//     (signature checks).
package handlers

const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"

	// Domain-specific:
	ErrCodeInvalidSignature = "invalid_signature"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
