package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"recky/backend/internal/models"
)

var (
	initialInterval = 10 * time.Millisecond
	maxInterval     = 200 * time.Millisecond
	maxElapsedTime  = 5 * time.Second
)

// DefaultRetries bounds how often a conflicting unit of work is rerun.
const DefaultRetries = 3

type retrying struct {
	next       Store
	maxRetries uint64
}

// WithRetry wraps s so that units of work failing with models.ErrConflict are
// rerun from scratch, with fresh reads, up to maxRetries more times. Any other
// error is returned immediately.
func WithRetry(s Store, maxRetries int) Store {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &retrying{next: s, maxRetries: uint64(maxRetries)}
}

// Atomic implements Store.
func (r *retrying) Atomic(ctx context.Context, fn TxFunc) error {
	var lastErr error

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(maxElapsedTime),
		backoff.WithInitialInterval(initialInterval),
		backoff.WithMaxInterval(maxInterval),
	), r.maxRetries)

	err := backoff.Retry(func() error {
		err := r.next.Atomic(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return backoff.Permanent(err)
		}
		lastErr = err
		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		if lastErr != nil && errors.Is(err, models.ErrConflict) {
			return fmt.Errorf("gave up after %d retries: %w", r.maxRetries, lastErr)
		}
		return err
	}
	return nil
}
