package handler

import (
	"context"
	"fmt"
	"net/http"

	"recky/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterInput defines the structure for joining with the token's user id.
type RegisterInput struct {
	DisplayName string `json:"display_name" binding:"required" example:"Alice"`
}

// PublicUserResponse defines the structure for a user's profile.
type PublicUserResponse struct {
	ID            string `json:"id" example:"u_123"`
	DisplayName   string `json:"display_name" example:"Alice"`
	FriendsCount  int    `json:"friends_count"`
	IncomingCount int    `json:"pending_incoming_count"`
	OutgoingCount int    `json:"pending_outgoing_count"`
	// RelationToMe is the viewer's edge to this user: friend, outgoing
	// (the viewer asked) or incoming (this user asked). Absent when unrelated
	// or when viewing yourself.
	RelationToMe *models.EdgeState `json:"relation_to_me,omitempty" enums:"friend,outgoing,incoming"`
}

// RegisterMe godoc
// @Summary      Register the authenticated user
// @Description  Adds the token's subject to the user directory under a display name.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RegisterInput true "Profile"
// @Success      201  {object}  PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already registered"
// @Router       /users/me [put]
func (h *Handler) RegisterMe(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	userID := currentUser(c)
	if _, err := h.Users.Register(c.Request.Context(), userID, input.DisplayName); err != nil {
		h.writeError(c, err)
		return
	}
	h.writeProfile(c, http.StatusCreated, userID)
}

// GetMe godoc
// @Summary      Get my profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PublicUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Authenticated user not registered"
// @Router       /users/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	h.writeProfile(c, http.StatusOK, currentUser(c))
}

// GetUserByID godoc
// @Summary      Get a user's profile
// @Description  Fetches a user's display name, relation counts and their relation to the viewer.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /users/{id} [get]
func (h *Handler) GetUserByID(c *gin.Context) {
	h.writeProfile(c, http.StatusOK, c.Param("id"))
}

func (h *Handler) writeProfile(c *gin.Context, status int, targetID string) {
	resp, err := h.buildProfile(c.Request.Context(), currentUser(c), targetID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, resp)
}

func (h *Handler) buildProfile(ctx context.Context, viewerID, targetID string) (*PublicUserResponse, error) {
	names, err := h.Users.Names(ctx, []string{targetID})
	if err != nil {
		return nil, err
	}
	name, ok := names[targetID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", targetID, models.ErrNotFound)
	}

	target, err := h.Relationships.Relationship(ctx, targetID)
	if err != nil {
		return nil, err
	}

	resp := &PublicUserResponse{
		ID:            targetID,
		DisplayName:   name,
		FriendsCount:  len(target.Friends()),
		IncomingCount: len(target.Incoming()),
		OutgoingCount: len(target.Outgoing()),
	}
	if targetID != viewerID {
		// The target's record mirrors the viewer's edge.
		if state, ok := target.State(viewerID); ok {
			mine := state.Mirror()
			resp.RelationToMe = &mine
		}
	}
	return resp, nil
}
