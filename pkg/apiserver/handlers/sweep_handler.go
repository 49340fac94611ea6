package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Sweeper runs one auto-approve pass and reports how many approvals it
// processed.
type Sweeper interface {
	AutoApproveSweep(ctx context.Context) (int, error)
}

// SweepHandler exposes the sweep to an external scheduler. The shared
// secret check is skipped when no secret is configured; that permissive
// default is deliberate.
type SweepHandler struct {
	sweeper Sweeper
	secret  string
	logger  *zap.Logger
}

func NewSweepHandler(sweeper Sweeper, secret string, logger *zap.Logger) *SweepHandler {
	return &SweepHandler{sweeper: sweeper, secret: secret, logger: logger}
}

func (h *SweepHandler) Run(c *gin.Context) {
	if h.secret != "" && c.GetHeader("X-Cron-Secret") != h.secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid cron secret"})
		return
	}

	processed, err := h.sweeper.AutoApproveSweep(c.Request.Context())
	if err != nil {
		h.logger.Error("auto-approve sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"processed": processed})
}
