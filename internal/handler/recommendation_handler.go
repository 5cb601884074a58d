package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"recky/backend/internal/ledger"
	"recky/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateRecommendationInput is the body of POST /recommendations. Exactly
// one of recipient_id, recipient_ids and group_id must be set.
type CreateRecommendationInput struct {
	RecipientID  string   `json:"recipient_id" example:"u_456"`
	RecipientIDs []string `json:"recipient_ids"`
	GroupID      string   `json:"group_id"`
	Title        string   `json:"title" binding:"required" example:"Dune"`
	Tags         string   `json:"tags" example:"book, scifi"`
	Note         string   `json:"note" example:"You will love the worms"`
}

// VoteInput is the body of POST /recommendations/{id}/vote.
type VoteInput struct {
	Vote models.Vote `json:"vote" binding:"required" enums:"up,down" example:"up"`
}

// VoteNoteInput is the body of PUT /recommendations/{id}/vote-note.
type VoteNoteInput struct {
	Note string `json:"note" example:"Loved it"`
}

// RecommendationResponse is a recommendation with participant names.
type RecommendationResponse struct {
	ID            string      `json:"id"`
	SenderID      string      `json:"sender_id"`
	SenderName    string      `json:"sender_name,omitempty"`
	RecipientID   string      `json:"recipient_id"`
	RecipientName string      `json:"recipient_name,omitempty"`
	Title         string      `json:"title"`
	Tags          []string    `json:"tags"`
	Note          *string     `json:"note,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	Vote          models.Vote `json:"vote" enums:"unset,up,down"`
	VoteNote      *string     `json:"vote_note,omitempty"`
	Viewed        bool        `json:"viewed"`
	Archived      bool        `json:"archived"`
}

// SendResponse reports a fan-out send.
type SendResponse struct {
	Sent  []RecommendationResponse `json:"sent"`
	Error string                   `json:"error,omitempty"`
}

// VoteResponse reports the transition a vote made.
type VoteResponse struct {
	Recommendation RecommendationResponse `json:"recommendation"`
	Previous       models.Vote            `json:"previous" enums:"unset,up,down"`
	Effective      models.Vote            `json:"effective" enums:"unset,up,down"`
}

// present converts records for viewerID, resolving participant names.
func (h *Handler) present(c *gin.Context, viewerID string, recs ...*models.Recommendation) ([]RecommendationResponse, error) {
	ids := make([]string, 0, len(recs)*2)
	for _, r := range recs {
		ids = append(ids, r.SenderID, r.RecipientID)
	}
	names, err := h.Users.Names(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}

	out := make([]RecommendationResponse, 0, len(recs))
	for _, r := range recs {
		tags := []string(r.Tags)
		if tags == nil {
			tags = []string{}
		}
		out = append(out, RecommendationResponse{
			ID:            r.ID,
			SenderID:      r.SenderID,
			SenderName:    names[r.SenderID],
			RecipientID:   r.RecipientID,
			RecipientName: names[r.RecipientID],
			Title:         r.Title,
			Tags:          tags,
			Note:          r.Note,
			CreatedAt:     r.CreatedAt,
			Vote:          r.Vote,
			VoteNote:      r.VoteNote,
			Viewed:        r.Viewed,
			Archived:      r.IsArchivedBy(viewerID),
		})
	}
	return out, nil
}

// respondOne writes a single recommendation.
func (h *Handler) respondOne(c *gin.Context, status int, r *models.Recommendation) {
	out, err := h.present(c, currentUser(c), r)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, out[0])
}

// CreateRecommendation godoc
// @Summary      Send a recommendation
// @Description  Sends a recommendation to one friend, to a list of friends, or to one of the viewer's groups. Fan-out sends are independent; the ones that failed are reported in "error".
// @Tags         recommendations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input  body      CreateRecommendationInput  true  "Recommendation"
// @Success      201    {object}  RecommendationResponse     "Single recipient"
// @Success      207    {object}  SendResponse               "Fan-out with failures"
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      403    {object}  ErrorResponse "Recipient is not a friend"
// @Failure      500    {object}  ErrorResponse
// @Router       /recommendations [post]
func (h *Handler) CreateRecommendation(c *gin.Context) {
	var input CreateRecommendationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	targets := 0
	for _, set := range []bool{input.RecipientID != "", len(input.RecipientIDs) > 0, input.GroupID != ""} {
		if set {
			targets++
		}
	}
	if targets != 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Exactly one of recipient_id, recipient_ids or group_id is required"})
		return
	}

	ctx := c.Request.Context()
	draft := ledger.Draft{
		SenderID:    currentUser(c),
		RecipientID: input.RecipientID,
		Title:       input.Title,
		Tags:        ledger.ParseTags(input.Tags),
		Note:        input.Note,
	}

	if input.RecipientID != "" {
		rec, err := h.Coordinator.Send(ctx, draft)
		if err != nil {
			h.writeError(c, err)
			return
		}
		h.respondOne(c, http.StatusCreated, rec)
		return
	}

	var (
		sent    []*models.Recommendation
		sendErr error
	)
	if input.GroupID != "" {
		sent, sendErr = h.Coordinator.SendToGroup(ctx, draft, input.GroupID)
	} else {
		sent, sendErr = h.Coordinator.SendMany(ctx, draft, input.RecipientIDs)
	}
	if sendErr != nil && len(sent) == 0 {
		h.writeError(c, sendErr)
		return
	}

	out, err := h.present(c, draft.SenderID, sent...)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if sendErr != nil {
		c.JSON(http.StatusMultiStatus, SendResponse{Sent: out, Error: sendErr.Error()})
		return
	}
	c.JSON(http.StatusCreated, SendResponse{Sent: out})
}

// ListRecommendations godoc
// @Summary      List recommendations
// @Description  Lists recommendations the viewer sent or received, newest first. Filters compose.
// @Tags         recommendations
// @Produce      json
// @Security     BearerAuth
// @Param        direction         query     string  false  "all, sent or received"  Enums(all, sent, received)
// @Param        tag               query     string  false  "Exact tag, any case"
// @Param        counterpart       query     string  false  "Substring of the other user's id or name"
// @Param        title             query     string  false  "Substring of the title"
// @Param        include_archived  query     bool    false  "Include recommendations the viewer archived"
// @Param        unviewed          query     bool    false  "Only received recommendations not yet opened"
// @Param        page              query     int     false  "Page number"  default(1)
// @Param        limit             query     int     false  "Page size"    default(20)
// @Success      200  {object}  PaginatedResponse[RecommendationResponse]
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /recommendations [get]
func (h *Handler) ListRecommendations(c *gin.Context) {
	direction, err := ledger.ParseDirection(c.Query("direction"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	includeArchived, _ := strconv.ParseBool(c.DefaultQuery("include_archived", "false"))
	unviewed, _ := strconv.ParseBool(c.DefaultQuery("unviewed", "false"))
	page, limit := pageParams(c)

	viewerID := currentUser(c)
	recs, err := h.Ledger.List(c.Request.Context(), viewerID, ledger.Filter{
		Direction:       direction,
		Tag:             c.Query("tag"),
		Counterpart:     c.Query("counterpart"),
		Title:           c.Query("title"),
		IncludeArchived: includeArchived,
		UnviewedOnly:    unviewed,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	paged := Paginate(recs, page, limit)
	out, err := h.present(c, viewerID, paged.Data...)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(out, paged.Meta.TotalItems, page, limit))
}

// GetRecommendation godoc
// @Summary      Get a recommendation
// @Description  Fetches one recommendation. Archived recommendations stay retrievable.
// @Tags         recommendations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Recommendation ID"
// @Success      200  {object}  RecommendationResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /recommendations/{id} [get]
func (h *Handler) GetRecommendation(c *gin.Context) {
	rec, err := h.Ledger.Get(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondOne(c, http.StatusOK, rec)
}

// VoteRecommendation godoc
// @Summary      Vote on a recommendation
// @Description  Sets the recipient's vote. Sending the current vote again clears it.
// @Tags         recommendations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string     true  "Recommendation ID"
// @Param        input  body      VoteInput  true  "Vote"
// @Success      200    {object}  VoteResponse
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      403    {object}  ErrorResponse "Only the recipient may vote"
// @Failure      404    {object}  ErrorResponse
// @Failure      409    {object}  ErrorResponse
// @Router       /recommendations/{id}/vote [post]
func (h *Handler) VoteRecommendation(c *gin.Context) {
	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	rec, change, err := h.Coordinator.Vote(c.Request.Context(), c.Param("id"), currentUser(c), input.Vote)
	if err != nil {
		h.writeError(c, err)
		return
	}
	out, err := h.present(c, currentUser(c), rec)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, VoteResponse{
		Recommendation: out[0],
		Previous:       change.Previous,
		Effective:      change.Effective,
	})
}

// SetVoteNote godoc
// @Summary      Comment on a vote
// @Description  Sets the recipient's note. Blank notes are ignored.
// @Tags         recommendations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string         true  "Recommendation ID"
// @Param        input  body      VoteNoteInput  true  "Note"
// @Success      200    {object}  RecommendationResponse
// @Failure      400    {object}  ErrorResponse "Note too long"
// @Failure      401    {object}  ErrorResponse
// @Failure      403    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Router       /recommendations/{id}/vote-note [put]
func (h *Handler) SetVoteNote(c *gin.Context) {
	var input VoteNoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	rec, err := h.Ledger.SetVoteNote(c.Request.Context(), c.Param("id"), currentUser(c), input.Note)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondOne(c, http.StatusOK, rec)
}

// MarkViewed godoc
// @Summary      Mark a recommendation viewed
// @Tags         recommendations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Recommendation ID"
// @Success      200  {object}  RecommendationResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /recommendations/{id}/viewed [post]
func (h *Handler) MarkViewed(c *gin.Context) {
	h.recommendationAction(c, h.Ledger.MarkViewed)
}

// Archive godoc
// @Summary      Archive a recommendation
// @Description  Hides the recommendation from the viewer's default list only.
// @Tags         recommendations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Recommendation ID"
// @Success      200  {object}  RecommendationResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /recommendations/{id}/archive [post]
func (h *Handler) Archive(c *gin.Context) {
	h.recommendationAction(c, h.Ledger.Archive)
}

// Unarchive godoc
// @Summary      Unarchive a recommendation
// @Tags         recommendations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Recommendation ID"
// @Success      200  {object}  RecommendationResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /recommendations/{id}/unarchive [post]
func (h *Handler) Unarchive(c *gin.Context) {
	h.recommendationAction(c, h.Ledger.Unarchive)
}

func (h *Handler) recommendationAction(
	c *gin.Context, op func(ctx context.Context, id, actor string) (*models.Recommendation, error),
) {
	rec, err := op(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondOne(c, http.StatusOK, rec)
}
