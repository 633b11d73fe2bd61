package handler

import (
	"context"
	"net/http"

	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/factorpool/backend/internal/infrastructure/persistence"
	"github.com/factorpool/backend/internal/interfaces/http/dto"
	"github.com/factorpool/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegistryHandler exposes the receivable registry: issuing receivables,
// recording obligor payments and flagging cancellations
type RegistryHandler struct {
	BaseHandler
	registry *persistence.GormReceivableRegistry
}

// NewRegistryHandler creates a registry handler
func NewRegistryHandler(registry *persistence.GormReceivableRegistry, logger *zap.Logger) *RegistryHandler {
	return &RegistryHandler{
		BaseHandler: NewBaseHandler(logger),
		registry:    registry,
	}
}

// Issue handles POST /api/v1/registry/receivables
func (h *RegistryHandler) Issue(c *gin.Context) {
	var req dto.IssueReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	rec := &persistence.Receivable{
		ID:        optionalUUID(req.ID),
		FaceValue: req.FaceValue,
		DueDate:   req.DueDate,
		Creditor:  optionalUUID(req.Creditor),
		Owner:     optionalUUID(req.Owner),
	}
	if err := h.registry.Issue(c.Request.Context(), rec); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rec)
}

// Get handles GET /api/v1/registry/receivables/:id
func (h *RegistryHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	facts, err := h.registry.GetFacts(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if facts == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			shared.CodeNotFound, "Receivable not found", middleware.GetRequestID(c)))
		return
	}
	h.Success(c, facts)
}

// RecordPayment handles POST /api/v1/registry/receivables/:id/payments
func (h *RegistryHandler) RecordPayment(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	rec, err := h.registry.RecordPayment(c.Request.Context(), id, req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}

// Cancel handles POST /api/v1/registry/receivables/:id/cancel
func (h *RegistryHandler) Cancel(c *gin.Context) {
	h.setFlag(c, h.registry.Cancel, "canceled")
}

// Reject handles POST /api/v1/registry/receivables/:id/reject
func (h *RegistryHandler) Reject(c *gin.Context) {
	h.setFlag(c, h.registry.Reject, "rejected")
}

func (h *RegistryHandler) setFlag(c *gin.Context, flag func(ctx context.Context, receivableID uuid.UUID) error, name string) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := flag(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id, name: true})
}
