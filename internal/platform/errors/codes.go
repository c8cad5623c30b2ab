// Package errors provides the structured error type shared by notekeep
// services and its mapping onto transport status codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeValidation marks malformed or out-of-bounds client input. It is
	// always raised before any storage access.
	CodeValidation Code = "VALIDATION_FAILED"

	// CodeConflict marks a uniqueness violation such as a taken email.
	CodeConflict Code = "CONFLICT"

	// CodeUnauthenticated marks a missing, invalid or expired credential.
	CodeUnauthenticated Code = "UNAUTHENTICATED"

	// CodeNotFound marks a record that is absent or not owned by the caller.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInternal marks storage or unexpected failures.
	CodeInternal Code = "INTERNAL"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
