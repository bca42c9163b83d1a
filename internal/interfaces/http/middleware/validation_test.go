package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxinsight/backend/internal/interfaces/http/dto"
)

type batchBody struct {
	IntegrationIDs []uuid.UUID `json:"integrationIds" binding:"required,min=1"`
	Name           string      `json:"name" binding:"omitempty,max=5"`
	Status         string      `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE ERROR"`
}

func bindAndReport(t *testing.T, body string) *dto.ErrorInfo {
	t.Helper()
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/batch", func(c *gin.Context) {
		var req batchBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/batch", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	return decodeError(t, rec)
}

func TestValidationDetails_FieldErrors(t *testing.T) {
	errInfo := bindAndReport(t, `{"integrationIds": [], "name": "too long", "status": "SYNCING"}`)

	assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
	assert.NotEmpty(t, errInfo.RequestID)

	byField := map[string]string{}
	for _, d := range errInfo.Details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "Must contain at least 1 item(s)", byField["integrationIds"])
	assert.Equal(t, "Must be at most 5 characters", byField["name"])
	assert.Equal(t, "Must be one of: ACTIVE INACTIVE ERROR", byField["status"])
}

func TestValidationDetails_TypeMismatch(t *testing.T) {
	errInfo := bindAndReport(t, `{"integrationIds": "not-a-list"}`)

	require.Len(t, errInfo.Details, 1)
	assert.Equal(t, "integrationIds", errInfo.Details[0].Field)
	assert.Contains(t, errInfo.Details[0].Message, "Must be of type")
}

func TestValidationDetails_MalformedJSON(t *testing.T) {
	errInfo := bindAndReport(t, `{"integrationIds": [`)

	require.Len(t, errInfo.Details, 1)
	assert.Equal(t, "body", errInfo.Details[0].Field)
}
