package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/shared"
	"github.com/tierhub/backend/internal/infrastructure/logger"
	"github.com/tierhub/backend/internal/interfaces/http/dto"
	"github.com/tierhub/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

const internalErrorMessage = "An unexpected error occurred"

// BaseHandler writes the response envelope shared by every handler
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// fail writes an error envelope with the status mapped from code
func (h *BaseHandler) fail(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.fail(c, dto.ErrCodeBadRequest, message)
}

// requireUser returns the external id of the authenticated caller. It writes
// a 401 and reports false when the request carries none.
func (h *BaseHandler) requireUser(c *gin.Context) (string, bool) {
	id := middleware.GetUserID(c)
	if id == "" {
		h.fail(c, dto.ErrCodeUnauthorized, "Authentication required")
		return "", false
	}
	return id, true
}

// uuidParam parses path parameter name, writing a 400 that names resource
// when it is not a uuid
func (h *BaseHandler) uuidParam(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+resource+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// ValidationError describes binding failures with a 400, or 413 for an
// oversized body
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError maps err onto the envelope. Domain errors keep their code; any
// 5xx other than a gateway failure hides the underlying message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code, message := dto.ErrCodeInternal, internalErrorMessage
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		if !dto.IsServerError(code) || code == dto.ErrCodeGateway {
			message = domainErr.Message
		}
	}

	if dto.IsServerError(code) {
		fields := []zap.Field{zap.String("code", code), zap.Error(err)}
		if domainErr != nil {
			fields = append(fields, zap.Bool("retryable", domainErr.Retryable))
		}
		logger.GetGinLogger(c).Error("Request failed", fields...)
	}
	h.fail(c, code, message)
}
