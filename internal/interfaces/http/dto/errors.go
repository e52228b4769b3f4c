package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Unmapped codes fall back to 422: they are business rule violations
// raised by the domain layer.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	"NOT_FOUND":            http.StatusNotFound,
	"ACCOUNT_NOT_FOUND":    http.StatusUnprocessableEntity,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"INSUFFICIENT_STOCK":   http.StatusUnprocessableEntity,
	"UNBALANCED_ENTRY":     http.StatusInternalServerError,

	"INVALID_INPUT":         http.StatusBadRequest,
	"INVALID_TENANT":        http.StatusBadRequest,
	"INVALID_QUANTITY":      http.StatusBadRequest,
	"INVALID_AMOUNT":        http.StatusBadRequest,
	"INVALID_LINES":         http.StatusBadRequest,
	"INVALID_WAREHOUSE":     http.StatusBadRequest,
	"INVALID_COSTING_INPUT": http.StatusBadRequest,
	"MISSING_UNIT_COST":     http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
