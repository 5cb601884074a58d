package handler

import (
	"fmt"
	"net/http"
	"slices"

	"recky/backend/internal/engagement"
	"recky/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// GetMyStats godoc
// @Summary      Get my recommendation stats
// @Description  Vote tallies and percentages for recommendations the viewer sent and received.
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  engagement.Stats
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/me/stats [get]
func (h *Handler) GetMyStats(c *gin.Context) {
	h.writeStats(c, currentUser(c))
}

// GetUserStats godoc
// @Summary      Get a friend's recommendation stats
// @Tags         stats
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  engagement.Stats
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not a friend"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/stats [get]
func (h *Handler) GetUserStats(c *gin.Context) {
	viewerID, targetID := currentUser(c), c.Param("id")
	if targetID != viewerID {
		friends, err := h.Relationships.ListFriends(c.Request.Context(), viewerID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		if !slices.Contains(friends, targetID) {
			h.writeError(c, fmt.Errorf("stats of %s are visible to friends only: %w", targetID, models.ErrForbidden))
			return
		}
	}
	h.writeStats(c, targetID)
}

func (h *Handler) writeStats(c *gin.Context, userID string) {
	counters, err := h.Engagement.Counters(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, engagement.Summarize(counters))
}
