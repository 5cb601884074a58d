package memory_test

import (
	"context"
	"testing"
	"time"

	"recky/backend/internal/models"
	"recky/backend/internal/store"
	"recky/backend/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutRelationshipsChecksVersion(t *testing.T) {
	t.Parallel()

	s := memory.New()
	ctx := t.Context()

	var stale *models.Relationships
	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Relationships(ctx, "a")
		if err != nil {
			return err
		}
		r.Set("b", models.EdgeOutgoing)
		if err := tx.PutRelationships(ctx, r); err != nil {
			return err
		}
		assert.Equal(t, int64(1), r.Version)
		stale = r.Clone()
		return nil
	})
	require.NoError(t, err)

	// A concurrent writer moves the record on.
	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Relationships(ctx, "a")
		if err != nil {
			return err
		}
		r.Set("b", models.EdgeFriend)
		return tx.PutRelationships(ctx, r)
	})
	require.NoError(t, err)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		stale.Remove("b")
		return tx.PutRelationships(ctx, stale)
	})
	require.ErrorIs(t, err, models.ErrConflict)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Relationships(ctx, "a")
		if err != nil {
			return err
		}
		state, ok := r.State("b")
		assert.True(t, ok)
		assert.Equal(t, models.EdgeFriend, state)
		assert.Equal(t, int64(2), r.Version)
		return nil
	})
	require.NoError(t, err)
}

func TestFailedUnitCommitsNothing(t *testing.T) {
	t.Parallel()

	s := memory.New()
	ctx := t.Context()

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.PutCounters(ctx, &models.EngagementCounters{UserID: "a", SentNoVote: 1}); err != nil {
			return err
		}
		return models.ErrForbidden
	})
	require.ErrorIs(t, err, models.ErrForbidden)

	cancelled, cancel := context.WithCancel(ctx)
	err = s.Atomic(cancelled, func(ctx context.Context, tx store.Tx) error {
		if err := tx.PutCounters(ctx, &models.EngagementCounters{UserID: "a", SentUp: 1}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Counters(ctx, "a")
		if err != nil {
			return err
		}
		assert.Zero(t, c.Version)
		assert.Zero(t, c.SentTotal())
		return nil
	})
	require.NoError(t, err)
}

func TestReadsSeeOwnWrites(t *testing.T) {
	t.Parallel()

	s := memory.New()
	now := time.Now()

	err := s.Atomic(t.Context(), func(ctx context.Context, tx store.Tx) error {
		rec := &models.Recommendation{ID: "r1", SenderID: "a", RecipientID: "b", Title: "t", CreatedAt: now}
		if err := tx.CreateRecommendation(ctx, rec); err != nil {
			return err
		}
		got, err := tx.Recommendation(ctx, "r1")
		if err != nil {
			return err
		}
		got.Vote = models.VoteUp
		if err := tx.UpdateRecommendation(ctx, got); err != nil {
			return err
		}

		recs, err := tx.RecommendationsFor(ctx, "b")
		if err != nil {
			return err
		}
		require.Len(t, recs, 1)
		assert.Equal(t, models.VoteUp, recs[0].Vote)
		assert.Equal(t, int64(2), recs[0].Version)
		return nil
	})
	require.NoError(t, err)
}

func TestRecommendationChecks(t *testing.T) {
	t.Parallel()

	s := memory.New()
	ctx := t.Context()
	rec := &models.Recommendation{ID: "r1", SenderID: "a", RecipientID: "b", Title: "t", CreatedAt: time.Now()}

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateRecommendation(ctx, rec)
	}))

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateRecommendation(ctx, rec.Clone())
	})
	require.ErrorIs(t, err, models.ErrConflict)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		missing := rec.Clone()
		missing.ID = "r2"
		return tx.UpdateRecommendation(ctx, missing)
	})
	require.ErrorIs(t, err, models.ErrNotFound)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Recommendation(ctx, "r2")
		return err
	})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateUserTwice(t *testing.T) {
	t.Parallel()

	s := memory.New()
	create := func() error {
		return s.Atomic(t.Context(), func(ctx context.Context, tx store.Tx) error {
			return tx.CreateUser(ctx, &models.User{ID: "a", DisplayName: "A"})
		})
	}
	require.NoError(t, create())
	require.ErrorIs(t, create(), models.ErrAlreadyExists)
}

func TestGuardRelationshipsDetectsConcurrentWrite(t *testing.T) {
	t.Parallel()

	s := memory.New()
	ctx := t.Context()

	putEdge := func(state models.EdgeState) error {
		return s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
			r, err := tx.Relationships(ctx, "a")
			if err != nil {
				return err
			}
			r.Set("b", state)
			return tx.PutRelationships(ctx, r)
		})
	}
	require.NoError(t, putEdge(models.EdgeFriend))

	// Untouched guard commits and leaves the version alone.
	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Relationships(ctx, "a")
		if err != nil {
			return err
		}
		return tx.GuardRelationships(ctx, r)
	})
	require.NoError(t, err)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Relationships(ctx, "a")
		if err != nil {
			return err
		}
		if err := tx.GuardRelationships(ctx, r); err != nil {
			return err
		}
		require.NoError(t, putEdge(models.EdgeOutgoing))
		return tx.PutCounters(ctx, &models.EngagementCounters{UserID: "a", SentNoVote: 1})
	})
	require.ErrorIs(t, err, models.ErrConflict)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Relationships(ctx, "a")
		if err != nil {
			return err
		}
		assert.Equal(t, int64(2), r.Version)

		c, err := tx.Counters(ctx, "a")
		if err != nil {
			return err
		}
		assert.Zero(t, c.Version)
		return nil
	})
	require.NoError(t, err)
}
