package dto

import (
	"net/http"

	"github.com/factorpool/backend/internal/domain/shared"
)

// Transport-level error codes, alongside the domain codes from
// shared/errors.go
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes.
// INVARIANT_VIOLATION maps to 500 deliberately: it means the pool's own
// accounting is inconsistent, not that the caller did anything wrong.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,

	shared.CodeNotFound:              http.StatusNotFound,
	shared.CodeInvalidInput:          http.StatusBadRequest,
	shared.CodeInvalidState:          http.StatusUnprocessableEntity,
	shared.CodeUnauthorized:          http.StatusForbidden,
	shared.CodeInsufficientLiquidity: http.StatusUnprocessableEntity,
	shared.CodeInvariantViolation:    http.StatusInternalServerError,
	shared.CodeCapacityExceeded:      http.StatusConflict,
	shared.CodeConcurrencyConflict:   http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code,
// defaulting to 500 for unknown codes
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
