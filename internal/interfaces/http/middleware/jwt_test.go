package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxinsight/backend/internal/infrastructure/auth"
	"github.com/uxinsight/backend/internal/infrastructure/config"
	"github.com/uxinsight/backend/internal/infrastructure/logger"
	"github.com/uxinsight/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: expiration,
		Issuer:                "insight-accounts",
	})
}

func signToken(t *testing.T, svc *auth.JWTService, userID uuid.UUID) string {
	t.Helper()
	token, _, err := svc.GenerateAccessToken(auth.GenerateTokenInput{UserID: userID, Email: "owner@example.com"})
	require.NoError(t, err)
	return token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var body dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.False(t, body.Success)
	return body.Error
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	userID := uuid.New()

	router := gin.New()
	router.Use(JWTAuth(svc, nil))
	router.GET("/api/v1/integrations", func(c *gin.Context) {
		owner, ok := GetJWTUserID(c)
		assert.True(t, ok)
		assert.Equal(t, userID, owner)
		require.NotNil(t, GetJWTClaims(c))
		assert.Equal(t, "owner@example.com", GetJWTClaims(c).Email)
		assert.Equal(t, userID.String(), logger.GetUserID(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/integrations", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+signToken(t, svc, userID))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuth_Rejections(t *testing.T) {
	valid := newTestJWTService(15 * time.Minute)
	expired := newTestJWTService(-time.Minute)
	otherSecret := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-entirely-32-chars!", AccessTokenExpiration: time.Minute, Issuer: "insight-accounts"})

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"not bearer", "Basic dXNlcjpwYXNz", dto.ErrCodeUnauthorized},
		{"empty bearer", "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage", "Bearer not-a-jwt", dto.ErrCodeUnauthorized},
		{"expired", "Bearer " + signToken(t, expired, uuid.New()), dto.ErrCodeTokenExpired},
		{"wrong secret", "Bearer " + signToken(t, otherSecret, uuid.New()), dto.ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequestID(), JWTAuth(valid, nil))
			router.GET("/api/v1/integrations", func(c *gin.Context) {
				t.Fatal("handler must not run")
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/integrations", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			errInfo := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, errInfo.Code)
			assert.NotEmpty(t, errInfo.RequestID)
		})
	}
}

func TestBearerToken(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc":    "abc",
		"bearer abc":    "abc",
		"Bearer  abc  ": "abc",
		"Bearer":        "",
		"Basic abc":     "",
		"":              "",
	} {
		got, ok := bearerToken(header)
		assert.Equal(t, want, got, header)
		assert.Equal(t, want != "", ok, header)
	}
}

func TestGetJWTUserID_Unauthenticated(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetJWTUserID(c)
	assert.False(t, ok)
	assert.Nil(t, GetJWTClaims(c))
}
