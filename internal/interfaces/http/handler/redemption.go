package handler

import (
	application "github.com/factorpool/backend/internal/application/factoring"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/factorpool/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RedemptionHandler exposes depositor operations: deposits, redemptions,
// withdrawals and the redemption queue
type RedemptionHandler struct {
	BaseHandler
	engine *application.Engine
}

// NewRedemptionHandler creates a redemption handler
func NewRedemptionHandler(engine *application.Engine, logger *zap.Logger) *RedemptionHandler {
	return &RedemptionHandler{
		BaseHandler: NewBaseHandler(logger),
		engine:      engine,
	}
}

// Deposit handles POST /api/v1/pool/deposits
func (h *RedemptionHandler) Deposit(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	result, err := h.engine.Deposit(c.Request.Context(), actor, req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Redeem handles POST /api/v1/pool/redemptions
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	result, err := h.engine.RequestRedeem(c.Request.Context(), actor, req.Units)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Withdraw handles POST /api/v1/pool/withdrawals
func (h *RedemptionHandler) Withdraw(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	result, err := h.engine.RequestWithdraw(c.Request.Context(), actor, req.Assets)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ProcessQueue handles POST /api/v1/pool/queue/process
func (h *RedemptionHandler) ProcessQueue(c *gin.Context) {
	report, err := h.engine.ProcessRedemptionQueue(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// ViewQueue handles GET /api/v1/pool/queue
func (h *RedemptionHandler) ViewQueue(c *gin.Context) {
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	entries, err := h.engine.ViewRedemptionQueue(c.Request.Context(),
		shared.Page{Offset: req.Offset, Limit: req.Limit})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}
