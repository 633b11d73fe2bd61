package handler

import (
	"context"
	"net/http"

	application "github.com/factorpool/backend/internal/application/factoring"
	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/shared"
	"github.com/factorpool/backend/internal/infrastructure/persistence"
	"github.com/factorpool/backend/internal/interfaces/http/dto"
	"github.com/factorpool/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PoolHandler exposes pool administration: bootstrap, settings, reserve,
// fee withdrawals and role management
type PoolHandler struct {
	BaseHandler
	engine *application.Engine
	access *persistence.GormAccessController
}

// NewPoolHandler creates a pool handler
func NewPoolHandler(engine *application.Engine, access *persistence.GormAccessController, logger *zap.Logger) *PoolHandler {
	return &PoolHandler{
		BaseHandler: NewBaseHandler(logger),
		engine:      engine,
		access:      access,
	}
}

// Bootstrap handles POST /api/v1/pool/bootstrap
func (h *PoolHandler) Bootstrap(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.BootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	state, err := h.engine.Bootstrap(c.Request.Context(), actor,
		optionalUUID(req.CustodyAccount), req.Settings.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, state)
}

// Status handles GET /api/v1/pool/status
func (h *PoolHandler) Status(c *gin.Context) {
	status, err := h.engine.PoolStatus(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// UpdateSettings handles PUT /api/v1/pool/settings
func (h *PoolHandler) UpdateSettings(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	if err := h.engine.UpdateSettings(c.Request.Context(), actor, req.ToDomain()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"updated": true})
}

// TopUpReserve handles POST /api/v1/pool/reserve/top-up
func (h *PoolHandler) TopUpReserve(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.TopUpReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	if err := h.engine.TopUpReserve(c.Request.Context(), actor, req.Amount); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"amount": req.Amount})
}

// WithdrawProtocolFees handles POST /api/v1/pool/fees/protocol/withdraw
func (h *PoolHandler) WithdrawProtocolFees(c *gin.Context) {
	h.withdrawFees(c, h.engine.WithdrawProtocolFees)
}

// WithdrawAdminFees handles POST /api/v1/pool/fees/admin/withdraw
func (h *PoolHandler) WithdrawAdminFees(c *gin.Context) {
	h.withdrawFees(c, h.engine.WithdrawAdminFees)
}

func (h *PoolHandler) withdrawFees(c *gin.Context, withdraw func(ctx context.Context, actor, to uuid.UUID, amount decimal.Decimal) error) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.WithdrawFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	if err := withdraw(c.Request.Context(), actor, optionalUUID(req.To), req.Amount); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"amount": req.Amount})
}

// GrantRole handles POST /api/v1/pool/roles
func (h *PoolHandler) GrantRole(c *gin.Context) {
	h.changeRole(c, h.access.Grant)
}

// RevokeRole handles DELETE /api/v1/pool/roles
func (h *PoolHandler) RevokeRole(c *gin.Context) {
	h.changeRole(c, h.access.Revoke)
}

// changeRole applies a role mutation after checking the caller holds the
// operator role. The very first operator grant has no operator yet; it is
// expected to be seeded out of band.
func (h *PoolHandler) changeRole(c *gin.Context, change func(ctx context.Context, actor uuid.UUID, role string) error) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	allowed, err := h.access.IsAllowed(c.Request.Context(), actor, factoring.OperationOperate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, dto.NewErrorResponse(
			shared.CodeUnauthorized, "Operator role required", middleware.GetRequestID(c)))
		return
	}

	var req dto.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	if err := change(c.Request.Context(), optionalUUID(req.Actor), req.Role); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"actor": req.Actor, "role": req.Role})
}
