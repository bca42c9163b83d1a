package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/uxinsight/backend/internal/interfaces/http/dto"
)

// SystemTokenAuth guards the scheduled-sync endpoints, which act across all
// owners and are called by the trigger binary rather than by end users.
// An empty token rejects every request.
func SystemTokenAuth(token string, log *zap.Logger) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		presented, ok := bearerToken(c.GetHeader(AuthHeaderKey))
		if len(expected) == 0 || !ok || subtle.ConstantTimeCompare([]byte(presented), expected) != 1 {
			if log != nil {
				log.Warn("System token rejected",
					zap.String("path", c.Request.URL.Path),
					zap.Bool("configured", len(expected) > 0),
				)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Invalid system token", GetRequestID(c)))
			return
		}
		c.Next()
	}
}
