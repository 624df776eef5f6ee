package httpx

import (
	"net/http"

	"github.com/sundayezeilo/urlstore/internal/errx"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
// Handlers can use this as a helper when mapping their own errors.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Conflict:
		return http.StatusConflict
	case errx.Invalid:
		return http.StatusBadRequest
	case errx.Ambiguous:
		return http.StatusConflict
	case errx.Provider:
		return http.StatusBadGateway
	case errx.Service:
		return http.StatusConflict
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	case errx.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKindToCode maps errx.Kind to error codes for JSON responses.
// Handlers can use this as a helper when mapping their own errors.
func ErrorKindToCode(kind errx.Kind) string {
	switch kind {
	case errx.NotFound:
		return "not_found"
	case errx.Conflict:
		return "duplicate_alias"
	case errx.Invalid:
		return "invalid_input"
	case errx.Ambiguous:
		return "ambiguous_match"
	case errx.Provider:
		return "provider_error"
	case errx.Service:
		return "service_error"
	case errx.Unavailable:
		return "unavailable"
	case errx.Internal:
		return "internal_error"
	default:
		return "internal_error"
	}
}
