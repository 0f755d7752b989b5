package dto

import (
	"net/http"

	"github.com/gescom/backend/internal/domain/shared"
)

// Input error codes produced at the HTTP boundary
const (
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeInvalidJSON = "INVALID_JSON"
	ErrCodeInternal    = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// A stale version token and an illegal lifecycle transition both map
// to 409: the caller's view of the resource is out of date either way.
var errorCodeHTTPStatus = map[string]int{
	shared.CodeValidation:  http.StatusUnprocessableEntity,
	shared.CodeNotFound:    http.StatusNotFound,
	shared.CodeInvalid:     http.StatusConflict,
	shared.CodeConflict:    http.StatusConflict,
	shared.CodePersistence: http.StatusServiceUnavailable,
	"ALREADY_EXISTS":       http.StatusConflict,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes fall back to 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
