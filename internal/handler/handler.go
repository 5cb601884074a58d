package handler

import (
	"context"
	"errors"
	"net/http"

	"recky/backend/internal/auth"
	"recky/backend/internal/coordinator"
	"recky/backend/internal/directory"
	"recky/backend/internal/engagement"
	"recky/backend/internal/group"
	"recky/backend/internal/ledger"
	"recky/backend/internal/models"
	"recky/backend/internal/relationship"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services are the domain services the HTTP layer calls into.
type Services struct {
	Relationships *relationship.Service
	Ledger        *ledger.Ledger
	Coordinator   *coordinator.Coordinator
	Engagement    *engagement.Store
	Groups        *group.Service
	Users         directory.Directory
}

// Handler serves the REST API.
type Handler struct {
	Services
	logger *zap.Logger
}

// New creates a Handler.
func New(s Services, logger *zap.Logger) *Handler {
	return &Handler{Services: s, logger: logger.Named("http")}
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// MessageResponse represents a generic success message.
type MessageResponse struct {
	Message string `json:"message" example:"Request sent successfully"`
}

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidTarget),
		errors.Is(err, models.ErrSameUser),
		errors.Is(err, models.ErrNoteTooLong):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrNoSuchRequest):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyRelated),
		errors.Is(err, models.ErrAlreadyExists),
		errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return 499
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as an ErrorResponse. Unexpected errors are logged
// and hidden from the client.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, ErrorResponse{Error: "Internal server error"})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func currentUser(c *gin.Context) string {
	userID, _ := auth.UserID(c)
	return userID
}
