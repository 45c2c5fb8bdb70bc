package errors

import "net/http"

// ErrorResponse represents the canonical error envelope returned by FindFilms APIs.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// Error codes shared by every handler.
const (
	CodeBadRequest         = "bad_request"
	CodeValidationFailed   = "validation_failed"
	CodeUnauthenticated    = "unauthenticated"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeRemoteUnavailable  = "remote_unavailable"
	CodeCatalogUnavailable = "catalog_unavailable"
	CodeInternal           = "internal_error"
)

// ToStatusCode maps a domain specific error code to an HTTP status for default responses.
func ToStatusCode(code string) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeConflict:
		return http.StatusConflict
	case CodeBadRequest, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeRemoteUnavailable, CodeCatalogUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
