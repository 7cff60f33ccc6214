package dto

import "net/http"

// Transport error codes. Domain errors keep the code they were created with.
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeQuotaExceeded    = "QUOTA_EXCEEDED"
	ErrCodeGateway          = "GATEWAY_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeGateway:  http.StatusBadGateway,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidSignature:    http.StatusBadRequest,
	"PRICE_REFERENCE_REQUIRED": http.StatusBadRequest,
	"INVALID_TIER_PRICE":       http.StatusBadRequest,
	"INVALID_BILLING_PERIOD":   http.StatusBadRequest,
	"INVALID_TIER_NAME":        http.StatusBadRequest,
	"INVALID_TIER_TOKENS":      http.StatusBadRequest,
	"INVALID_PAYMENT_ID":       http.StatusBadRequest,
	"INVALID_PAYMENT_AMOUNT":   http.StatusBadRequest,
	"INVALID_EXTERNAL_ID":      http.StatusBadRequest,
	"INVALID_PRODUCT_NAME":     http.StatusBadRequest,
	"INVALID_FRONTEND_URL":     http.StatusBadRequest,
	"UNSUPPORTED_LANGUAGE":     http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	"INVALID_ACCESS_TOKEN":  http.StatusUnauthorized,
	ErrCodeForbidden:        http.StatusForbidden,
	"PRODUCT_ACCESS_DENIED": http.StatusForbidden,

	// Resource errors -> 404 Not Found
	ErrCodeNotFound:          http.StatusNotFound,
	"TIER_NOT_FOUND":         http.StatusNotFound,
	"USER_NOT_FOUND":         http.StatusNotFound,
	"FREE_TIER_NOT_FOUND":    http.StatusNotFound,
	"PRODUCT_NOT_FOUND":      http.StatusNotFound,
	"SUBSCRIPTION_NOT_FOUND": http.StatusNotFound,
	"PAYMENT_NOT_FOUND":      http.StatusNotFound,
	"PRICE_NOT_FOUND":        http.StatusNotFound,

	// Conflicts -> 409
	ErrCodeConflict:        http.StatusConflict,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"ALREADY_SUBSCRIBED":   http.StatusConflict,
	"FREE_TIER_EXISTS":     http.StatusConflict,
	"TIER_IN_USE":          http.StatusConflict,

	// State errors -> 422 Unprocessable Entity
	"INVALID_STATE":              http.StatusUnprocessableEntity,
	"INVALID_PAYMENT_TRANSITION": http.StatusUnprocessableEntity,

	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	// Limits -> 429 Too Many Requests
	ErrCodeRateLimited:   http.StatusTooManyRequests,
	ErrCodeQuotaExceeded: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsServerError reports whether the code maps to a 5xx status. Messages of
// such errors are replaced with a generic text before reaching the client.
func IsServerError(code string) bool {
	return GetHTTPStatus(code) >= http.StatusInternalServerError
}
