package handler

import (
	"context"

	application "github.com/factorpool/backend/internal/application/factoring"
	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/factorpool/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FactoringHandler exposes the receivable lifecycle: approval, funding,
// reconciliation, impairment and unfactoring
type FactoringHandler struct {
	BaseHandler
	engine *application.Engine
}

// NewFactoringHandler creates a factoring handler
func NewFactoringHandler(engine *application.Engine, logger *zap.Logger) *FactoringHandler {
	return &FactoringHandler{
		BaseHandler: NewBaseHandler(logger),
		engine:      engine,
	}
}

// Approve handles POST /api/v1/factoring/approvals
func (h *FactoringHandler) Approve(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	var terms *factoring.FeeTerms
	if req.Terms != nil {
		t := req.Terms.ToDomain()
		terms = &t
	}

	approval, err := h.engine.Approve(c.Request.Context(), actor, optionalUUID(req.ReceivableID), terms)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, approval)
}

// GetApproval handles GET /api/v1/factoring/approvals/:id
func (h *FactoringHandler) GetApproval(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	approval, err := h.engine.GetApproval(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, approval)
}

// QuoteFunding handles GET /api/v1/factoring/approvals/:id/quote
func (h *FactoringHandler) QuoteFunding(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	var req dto.QuoteFundingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	quote, err := h.engine.QuoteFunding(c.Request.Context(), id, req.ChosenUpfrontBps)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Fund handles POST /api/v1/factoring/fundings
func (h *FactoringHandler) Fund(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	quote, err := h.engine.Fund(c.Request.Context(), actor,
		optionalUUID(req.ReceivableID), req.ChosenUpfrontBps, optionalUUID(req.Receiver))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, quote)
}

// Reconcile handles POST /api/v1/factoring/reconcile
func (h *FactoringHandler) Reconcile(c *gin.Context) {
	report, err := h.engine.Reconcile(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Impair handles POST /api/v1/factoring/approvals/:id/impair
func (h *FactoringHandler) Impair(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	result, err := h.engine.Impair(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// PreviewUnfactor handles GET /api/v1/factoring/approvals/:id/unfactor
func (h *FactoringHandler) PreviewUnfactor(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	quote, err := h.engine.PreviewUnfactor(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Unfactor handles POST /api/v1/factoring/approvals/:id/unfactor
func (h *FactoringHandler) Unfactor(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c)
	if !ok {
		return
	}

	quote, err := h.engine.Unfactor(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// ActiveStatuses handles GET /api/v1/factoring/receivables
func (h *FactoringHandler) ActiveStatuses(c *gin.Context) {
	h.scan(c, h.engine.ViewPoolStatus)
}

// PaidStatuses handles GET /api/v1/factoring/receivables/paid
func (h *FactoringHandler) PaidStatuses(c *gin.Context) {
	h.scan(c, h.engine.ViewPaidStatus)
}

// ImpairedStatuses handles GET /api/v1/factoring/receivables/impaired
func (h *FactoringHandler) ImpairedStatuses(c *gin.Context) {
	h.scan(c, h.engine.ViewImpairedStatus)
}

func (h *FactoringHandler) scan(c *gin.Context, view func(ctx context.Context, page shared.Page) (*application.StatusPage, error)) {
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	page, err := view(c.Request.Context(), shared.Page{Offset: req.Offset, Limit: req.Limit})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}
