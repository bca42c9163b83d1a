package dto

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxinsight/backend/internal/domain/shared"
)

func TestHTTPStatus(t *testing.T) {
	tests := map[string]int{
		ErrCodeInternal:            http.StatusInternalServerError,
		ErrCodeInvalidConfig:       http.StatusBadRequest,
		ErrCodeInvalidSignature:    http.StatusUnauthorized,
		ErrCodeAlreadySyncing:      http.StatusConflict,
		ErrCodeQuotaExceeded:       http.StatusPaymentRequired,
		ErrCodeUnsupportedProvider: http.StatusBadRequest,
		ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
		ErrCodeProvider:            http.StatusBadGateway,
		ErrCodeActionNotFound:      http.StatusNotFound,
		ErrCodeRateLimited:         http.StatusTooManyRequests,
		"ERR_SOMETHING_NEW":        http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
}

func TestFromDomainCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, FromDomainCode(shared.CodeNotFound))
	assert.Equal(t, ErrCodeAlreadySyncing, FromDomainCode(shared.CodeAlreadySyncing))
	assert.Equal(t, ErrCodeConnectionFailed, FromDomainCode(shared.CodeConnectionFailed))
	assert.Equal(t, ErrCodeInternal, FromDomainCode("SOMETHING_ELSE"))
}

func TestErrorCodes_MappedAndPrefixed(t *testing.T) {
	for code, status := range httpStatus {
		assert.True(t, strings.HasPrefix(code, "ERR_"), code)
		assert.GreaterOrEqual(t, status, 400, code)
	}
	for domainCode, code := range domainCodes {
		_, ok := httpStatus[code]
		assert.True(t, ok, "%s maps to unmapped code %s", domainCode, code)
	}
}

func TestNewErrorResponse(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse(ErrCodeAlreadySyncing, "Integration already syncing")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeAlreadySyncing, resp.Error.Code)
	assert.Equal(t, "Integration already syncing", resp.Error.Message)
	assert.False(t, resp.Error.Timestamp.Before(before))
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "config.apiKey", Message: "This field is required"},
		{Field: "name", Message: "Must be at least 1 characters"},
	}

	resp := NewValidationErrorResponse("Validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeQuotaExceeded, "Integration limit reached", "req-1")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")

	errBody := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeQuotaExceeded, errBody["code"])
	assert.Equal(t, "req-1", errBody["request_id"])
	assert.NotContains(t, errBody, "details")
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"status": "ACTIVE"})

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}
