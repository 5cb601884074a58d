package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateGroupInput is the body of POST /groups.
type CreateGroupInput struct {
	Name      string   `json:"name" binding:"required" example:"Movie night"`
	MemberIDs []string `json:"member_ids" binding:"required"`
}

// CreateGroup godoc
// @Summary      Create a friend group
// @Description  Creates a named group of the viewer's friends to send recommendations to.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input  body      CreateGroupInput  true  "Group"
// @Success      201    {object}  models.FriendGroup
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      403    {object}  ErrorResponse "Member is not a friend"
// @Failure      500    {object}  ErrorResponse
// @Router       /groups [post]
func (h *Handler) CreateGroup(c *gin.Context) {
	var input CreateGroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	g, err := h.Groups.Create(c.Request.Context(), currentUser(c), input.Name, input.MemberIDs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// ListGroups godoc
// @Summary      List my friend groups
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.FriendGroup
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /groups [get]
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.Groups.List(c.Request.Context(), currentUser(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}
