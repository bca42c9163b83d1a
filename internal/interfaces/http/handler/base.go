package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uxinsight/backend/internal/domain/integration"
	"github.com/uxinsight/backend/internal/domain/shared"
	"github.com/uxinsight/backend/internal/infrastructure/logger"
	"github.com/uxinsight/backend/internal/interfaces/http/dto"
	"github.com/uxinsight/backend/internal/interfaces/http/middleware"
)

// errMissingIdentity is returned when no authenticated user is on the request
var errMissingIdentity = errors.New("user ID not found in context")

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getUserID returns the authenticated owner. Only the JWT middleware sets it.
func getUserID(c *gin.Context) (uuid.UUID, error) {
	id, ok := middleware.GetJWTUserID(c)
	if !ok {
		return uuid.Nil, errMissingIdentity
	}
	return id, nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response for a binding error
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// requireUser resolves the owner or writes a 401 and returns false
func (h *BaseHandler) requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// parseID reads a uuid path parameter. Malformed ids read as not found so
// callers cannot test for existence.
func (h *BaseHandler) parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, integration.ErrIntegrationNotFound.Message)
		return uuid.Nil, false
	}
	return id, true
}

// HandleError converts service errors to HTTP responses. Domain errors carry
// their own code; provider failures become 502; anything else is a 500 with
// no detail beyond the request id.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var configErr *integration.ConfigValidationError
	if errors.As(err, &configErr) {
		details := make([]dto.ValidationDetail, len(configErr.Errors))
		for i, msg := range configErr.Errors {
			details[i] = dto.ValidationDetail{Field: "config", Message: msg}
		}
		resp := dto.NewValidationErrorResponse("Invalid integration configuration", requestID, details)
		resp.Error.Code = dto.ErrCodeInvalidConfig
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.FromDomainCode(domainErr.Code)
		c.JSON(dto.HTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	code, message := classify(err)
	status := dto.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("Request failed",
			zap.Error(err),
			zap.String("code", code),
			zap.Int("status", status),
		)
	}
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// classify maps sentinel errors that are not domain errors
func classify(err error) (code, message string) {
	switch {
	case errors.Is(err, integration.ErrUnsupportedProvider):
		return dto.ErrCodeUnsupportedProvider, err.Error()
	case errors.Is(err, integration.ErrProviderInvalidConfig):
		return dto.ErrCodeInvalidConfig, err.Error()
	case errors.Is(err, integration.ErrProviderActionNotFound):
		return dto.ErrCodeActionNotFound, err.Error()
	case errors.Is(err, integration.ErrInvalidSignature):
		return dto.ErrCodeInvalidSignature, "Invalid webhook signature"
	case errors.Is(err, integration.ErrProviderUnavailable),
		errors.Is(err, integration.ErrProviderRequestFailed),
		errors.Is(err, integration.ErrProviderAuthFailed),
		errors.Is(err, integration.ErrProviderRateLimited),
		errors.Is(err, integration.ErrProviderInvalidData):
		return dto.ErrCodeProvider, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return dto.ErrCodeProvider, "Provider request timed out"
	default:
		return dto.ErrCodeInternal, "An unexpected error occurred"
	}
}
