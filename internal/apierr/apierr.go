// Package apierr maps the engine's internal error kinds onto the HTTP
// status codes the connection API's error handling design requires.
package apierr

import "net/http"

// Kind classifies an engine-level failure independent of any particular
// transport.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindNotSupportedForVersion
	KindStagedLocked
	KindDuplicateRegistration
	KindCallbackFailure
	KindInternal
)

// CodeOf returns the canonical HTTP status for a Kind.
func CodeOf(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNotSupportedForVersion:
		return http.StatusConflict
	case KindStagedLocked:
		return http.StatusLocked
	case KindDuplicateRegistration:
		return http.StatusConflict
	case KindCallbackFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the error type handlers return; it carries the status
// code to emit alongside an optional redirect Location.
type APIError struct {
	Kind     Kind
	Message  string
	Location string
}

func (e *APIError) Error() string { return e.Message }

// New constructs an APIError of the given kind.
func New(kind Kind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

// NotSupportedForVersion builds the 409 + Location error used when a
// transceiver's transport isn't visible under the requested API
// version.
func NotSupportedForVersion(message, location string) *APIError {
	return &APIError{Kind: KindNotSupportedForVersion, Message: message, Location: location}
}
