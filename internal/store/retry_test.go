package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"recky/backend/internal/models"
	"recky/backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStore returns the scripted errors in order, then nil.
type scriptedStore struct {
	errs  []error
	calls int
}

func (s *scriptedStore) Atomic(ctx context.Context, fn store.TxFunc) error {
	s.calls++
	if len(s.errs) == 0 {
		return fn(ctx, nil)
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func conflict(n int) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = fmt.Errorf("attempt %d: %w", i, models.ErrConflict)
	}
	return errs
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		errs      []error
		retries   int
		wantErr   error
		wantCalls int
	}{
		{"first try", nil, 3, nil, 1},
		{"conflicts then success", conflict(2), 3, nil, 3},
		{"exhausted", conflict(5), 3, models.ErrConflict, 4},
		{"no retries", conflict(1), 0, models.ErrConflict, 1},
		{"other errors are final", []error{errBoom}, 3, errBoom, 1},
		{"not found is final", []error{models.ErrNotFound}, 3, models.ErrNotFound, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inner := &scriptedStore{errs: tt.errs}
			ran := 0
			err := store.WithRetry(inner, tt.retries).Atomic(t.Context(), func(context.Context, store.Tx) error {
				ran++
				return nil
			})

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, 1, ran)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, ran)
			}
			assert.Equal(t, tt.wantCalls, inner.calls)
		})
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	inner := &scriptedStore{errs: conflict(100)}
	s := store.WithRetry(&cancelAfterFirst{next: inner, cancel: cancel}, 50)

	err := s.Atomic(ctx, func(context.Context, store.Tx) error { return nil })
	require.Error(t, err)
	assert.Less(t, inner.calls, 50)
}

type cancelAfterFirst struct {
	next   store.Store
	cancel context.CancelFunc
}

func (c *cancelAfterFirst) Atomic(ctx context.Context, fn store.TxFunc) error {
	defer c.cancel()
	return c.next.Atomic(ctx, fn)
}
