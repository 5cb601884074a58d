package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserSummary is a user id with its display name.
type UserSummary struct {
	ID          string `json:"id" example:"u_123"`
	DisplayName string `json:"display_name,omitempty" example:"Alice"`
}

// RelationsResponse lists every relationship of the viewer.
type RelationsResponse struct {
	Friends         []UserSummary `json:"friends"`
	PendingIncoming []UserSummary `json:"pending_incoming"`
	PendingOutgoing []UserSummary `json:"pending_outgoing"`
}

// summaries attaches display names to ids. Unknown names are left empty.
func (h *Handler) summaries(c *gin.Context, ids ...[]string) ([][]UserSummary, error) {
	var all []string
	for _, set := range ids {
		all = append(all, set...)
	}
	names, err := h.Users.Names(c.Request.Context(), all)
	if err != nil {
		return nil, err
	}

	out := make([][]UserSummary, len(ids))
	for i, set := range ids {
		out[i] = make([]UserSummary, 0, len(set))
		for _, id := range set {
			out[i] = append(out[i], UserSummary{ID: id, DisplayName: names[id]})
		}
	}
	return out, nil
}

// GetRelations godoc
// @Summary      Get my relations
// @Description  Fetches the viewer's friends and pending requests in both directions.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RelationsResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/me/relations [get]
func (h *Handler) GetRelations(c *gin.Context) {
	r, err := h.Relationships.Relationship(c.Request.Context(), currentUser(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	sets, err := h.summaries(c, r.Friends(), r.Incoming(), r.Outgoing())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, RelationsResponse{
		Friends:         sets[0],
		PendingIncoming: sets[1],
		PendingOutgoing: sets[2],
	})
}

// GetRelationSet godoc
// @Summary      Get one relation set
// @Description  Fetches the viewer's friends, incoming requests or outgoing requests.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        set  path      string  true  "Relation set"  Enums(friends, incoming, outgoing)
// @Success      200  {array}   UserSummary
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/me/relations/{set} [get]
func (h *Handler) GetRelationSet(c *gin.Context) {
	ctx, viewerID := c.Request.Context(), currentUser(c)

	var (
		ids []string
		err error
	)
	switch c.Param("set") {
	case "friends":
		ids, err = h.Relationships.ListFriends(ctx, viewerID)
	case "incoming":
		ids, err = h.Relationships.ListIncoming(ctx, viewerID)
	case "outgoing":
		ids, err = h.Relationships.ListOutgoing(ctx, viewerID)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Relation set must be friends, incoming or outgoing"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	sets, err := h.summaries(c, ids)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sets[0])
}

// relationAction runs op against the path user and answers with message.
func (h *Handler) relationAction(c *gin.Context, status int, message string, op func(viewerID, targetID string) error) {
	if err := op(currentUser(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, MessageResponse{Message: message})
}

// SendRequest godoc
// @Summary      Send friend request
// @Description  Sends a friend request to another user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Target User ID"
// @Success      201  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse "Request to yourself"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Target user not found"
// @Failure      409  {object}  ErrorResponse "Relation already exists"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/request [post]
func (h *Handler) SendRequest(c *gin.Context) {
	h.relationAction(c, http.StatusCreated, "Request sent successfully", func(viewerID, targetID string) error {
		return h.Relationships.SendRequest(c.Request.Context(), viewerID, targetID)
	})
}

// AcceptRequest godoc
// @Summary      Accept friend request
// @Description  Accepts a pending friend request from another user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Requesting User ID"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/accept [post]
func (h *Handler) AcceptRequest(c *gin.Context) {
	h.relationAction(c, http.StatusOK, "Request accepted", func(viewerID, requesterID string) error {
		return h.Relationships.AcceptRequest(c.Request.Context(), viewerID, requesterID)
	})
}

// IgnoreRequest godoc
// @Summary      Ignore friend request
// @Description  Drops a pending friend request from another user without befriending them.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Requesting User ID"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/ignore [post]
func (h *Handler) IgnoreRequest(c *gin.Context) {
	h.relationAction(c, http.StatusOK, "Request ignored", func(viewerID, requesterID string) error {
		return h.Relationships.IgnoreRequest(c.Request.Context(), viewerID, requesterID)
	})
}

// CancelRequest godoc
// @Summary      Cancel friend request
// @Description  Withdraws a friend request the viewer sent.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Target User ID"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/cancel [post]
func (h *Handler) CancelRequest(c *gin.Context) {
	h.relationAction(c, http.StatusOK, "Request cancelled", func(viewerID, targetID string) error {
		return h.Relationships.CancelRequest(c.Request.Context(), viewerID, targetID)
	})
}

// Unfriend godoc
// @Summary      Remove friend
// @Description  Ends a friendship on both sides.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Friend User ID"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Not a friend"
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id}/unfriend [post]
func (h *Handler) Unfriend(c *gin.Context) {
	h.relationAction(c, http.StatusOK, "Friend removed", func(viewerID, peerID string) error {
		return h.Relationships.Unfriend(c.Request.Context(), viewerID, peerID)
	})
}
