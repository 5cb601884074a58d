package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Reconcile godoc
// @Summary      Repair relationships and counters
// @Description  Fixes one-sided friend edges and recounts every user's engagement counters from the ledger.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  coordinator.ReconcileReport
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /admin/reconcile [post]
func (h *Handler) Reconcile(c *gin.Context) {
	report, err := h.Coordinator.Reconcile(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.Info("Reconciliation triggered over HTTP", zap.String("userID", currentUser(c)))
	c.JSON(http.StatusOK, report)
}
