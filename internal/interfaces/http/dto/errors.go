package dto

import (
	"net/http"

	"github.com/uxinsight/backend/internal/domain/shared"
)

// API error codes. Clients branch on these, so existing values never change.
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"

	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeInvalidConfig       = "ERR_VALIDATION_CONFIG"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeRequestTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnsupportedProvider = "ERR_UNSUPPORTED_PROVIDER"
	ErrCodeConnectionFailed    = "ERR_CONNECTION_FAILED"

	ErrCodeUnauthorized     = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired     = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid     = "ERR_TOKEN_INVALID"
	ErrCodeInvalidSignature = "ERR_INVALID_SIGNATURE"

	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeAlreadySyncing = "ERR_ALREADY_SYNCING"
	ErrCodeQuotaExceeded  = "ERR_QUOTA_EXCEEDED"

	// upstream analytics provider failures
	ErrCodeProvider       = "ERR_PROVIDER"
	ErrCodeActionNotFound = "ERR_ACTION_NOT_FOUND"

	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

var httpStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeInvalidConfig:       http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeUnsupportedProvider: http.StatusBadRequest,
	ErrCodeConnectionFailed:    http.StatusBadRequest,

	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenInvalid:     http.StatusUnauthorized,
	ErrCodeInvalidSignature: http.StatusUnauthorized,

	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeAlreadySyncing: http.StatusConflict,
	ErrCodeQuotaExceeded:  http.StatusPaymentRequired,

	ErrCodeProvider:       http.StatusBadGateway,
	ErrCodeActionNotFound: http.StatusNotFound,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

var domainCodes = map[string]string{
	shared.CodeNotFound:         ErrCodeNotFound,
	shared.CodeInvalidInput:     ErrCodeInvalidInput,
	shared.CodeAlreadySyncing:   ErrCodeAlreadySyncing,
	shared.CodeQuotaExceeded:    ErrCodeQuotaExceeded,
	shared.CodeConnectionFailed: ErrCodeConnectionFailed,
}

// HTTPStatus returns the status an API error code is served with.
// Unknown codes are treated as internal errors.
func HTTPStatus(code string) int {
	if status, ok := httpStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromDomainCode translates a shared.DomainError code into its API code.
// Codes without a translation fall back to ErrCodeInternal.
func FromDomainCode(code string) string {
	if apiCode, ok := domainCodes[code]; ok {
		return apiCode
	}
	return ErrCodeInternal
}
