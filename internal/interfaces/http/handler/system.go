package handler

import (
	"net/http"

	"github.com/factorpool/backend/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SystemHandler exposes health and runtime diagnostics
type SystemHandler struct {
	BaseHandler
	db      *persistence.Database
	version string
}

// NewSystemHandler creates a system handler
func NewSystemHandler(db *persistence.Database, version string, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		BaseHandler: NewBaseHandler(logger),
		db:          db,
		version:     version,
	}
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
	})
}

// Stats handles GET /api/v1/system/stats
func (h *SystemHandler) Stats(c *gin.Context) {
	stats, err := h.db.Stats()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"database": stats})
}
