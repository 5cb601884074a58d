package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"recky/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{models.ErrInvalidTarget, http.StatusBadRequest},
		{models.ErrSameUser, http.StatusBadRequest},
		{models.ErrNoteTooLong, http.StatusBadRequest},
		{models.ErrForbidden, http.StatusForbidden},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrNoSuchRequest, http.StatusNotFound},
		{models.ErrAlreadyRelated, http.StatusConflict},
		{models.ErrAlreadyExists, http.StatusConflict},
		{models.ErrConflict, http.StatusConflict},
		{models.ErrCounterDrift, http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		wrapped := fmt.Errorf("outer: %w", tt.err)
		assert.Equal(t, tt.want, statusOf(wrapped), "%v", tt.err)
	}
}
