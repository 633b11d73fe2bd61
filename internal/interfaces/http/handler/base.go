package handler

import (
	"errors"
	"net/http"

	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/factorpool/backend/internal/interfaces/http/dto"
	"github.com/factorpool/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides the response helpers every handler shares
type BaseHandler struct {
	logger *zap.Logger
}

// NewBaseHandler creates a base handler
func NewBaseHandler(logger *zap.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// Success writes a 200 with the given payload
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created writes a 201 with the given payload
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// BadRequest writes a 400, expanding validator errors into field details
func (h *BaseHandler) BadRequest(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		middleware.HandleValidationError(c, err)
		return
	}
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
		dto.ErrCodeBadRequest, err.Error(), middleware.GetRequestID(c)))
}

// HandleError maps a domain error to its HTTP status; anything else is a 500
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	requestID := middleware.GetRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := dto.GetHTTPStatus(domainErr.Code)
		if status >= http.StatusInternalServerError {
			h.logger.Error("request failed",
				zap.String("code", domainErr.Code),
				zap.String("request_id", requestID),
				zap.Error(err))
		}
		c.JSON(status, dto.NewErrorResponse(domainErr.Code, domainErr.Message, requestID))
		return
	}

	if errors.Is(err, shared.ErrConcurrencyConflict) {
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			shared.CodeConcurrencyConflict, "Concurrent modification detected; retry the request", requestID))
		return
	}

	h.logger.Error("unhandled error", zap.String("request_id", requestID), zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.ErrCodeInternal, "Internal server error", requestID))
}

// Actor returns the authenticated actor, writing a 401 when absent
func (h *BaseHandler) Actor(c *gin.Context) (uuid.UUID, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.ErrCodeTokenInvalid, "Authentication required", middleware.GetRequestID(c)))
		return uuid.Nil, false
	}
	return actor, true
}

// PathID parses the :id path parameter as a UUID
func (h *BaseHandler) PathID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUID parses s, returning uuid.Nil for the empty string.
// Format errors are caught by request binding before this runs.
func optionalUUID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, _ := uuid.Parse(s)
	return id
}
