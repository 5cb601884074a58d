package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"recky/backend/internal/database"
	"recky/backend/internal/directory"
	"recky/backend/internal/models"
	"recky/backend/internal/relationship"
	"recky/backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

func setupStore(t *testing.T) *database.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.Open(sqlite.Open(dsn), zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return database.NewStore(db)
}

func TestRelationshipsRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := t.Context()

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Relationships(ctx, "a")
		if err != nil {
			return err
		}
		assert.Zero(t, r.Version)
		r.Set("b", models.EdgeFriend)
		r.Set("c", models.EdgeOutgoing)
		return tx.PutRelationships(ctx, r)
	})
	require.NoError(t, err)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Relationships(ctx, "a")
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), r.Version)
		assert.Equal(t, []string{"b"}, r.Friends())
		assert.Equal(t, []string{"c"}, r.Outgoing())

		r.Remove("c")
		if err := tx.PutRelationships(ctx, r); err != nil {
			return err
		}

		all, err := tx.AllRelationships(ctx)
		if err != nil {
			return err
		}
		require.Len(t, all, 1)
		assert.Equal(t, []string{"b"}, all[0].Friends())
		assert.Empty(t, all[0].Outgoing())
		return nil
	})
	require.NoError(t, err)
}

func TestStaleWritesConflict(t *testing.T) {
	s := setupStore(t)
	ctx := t.Context()

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.PutCounters(ctx, &models.EngagementCounters{UserID: "a", SentNoVote: 1}); err != nil {
			return err
		}
		return tx.CreateRecommendation(ctx, &models.Recommendation{
			ID: "r1", SenderID: "a", RecipientID: "b", Title: "Dune", Vote: models.VoteUnset, CreatedAt: time.Now(),
		})
	}))

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.PutCounters(ctx, &models.EngagementCounters{UserID: "a", SentUp: 1, Version: 7})
	})
	require.ErrorIs(t, err, models.ErrConflict)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.UpdateRecommendation(ctx, &models.Recommendation{ID: "r1", Vote: models.VoteUp, Version: 3})
	})
	require.ErrorIs(t, err, models.ErrConflict)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.UpdateRecommendation(ctx, &models.Recommendation{ID: "nope", Vote: models.VoteUp, Version: 1})
	})
	require.ErrorIs(t, err, models.ErrNotFound)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Recommendation(ctx, "r1")
		if err != nil {
			return err
		}
		r.Vote = models.VoteUp
		r.ArchivedBy = append(r.ArchivedBy, "b")
		if err := tx.UpdateRecommendation(ctx, r); err != nil {
			return err
		}
		assert.Equal(t, int64(2), r.Version)
		return nil
	})
	require.NoError(t, err)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Recommendation(ctx, "r1")
		if err != nil {
			return err
		}
		assert.Equal(t, models.VoteUp, r.Vote)
		assert.Equal(t, models.StringList{"b"}, r.ArchivedBy)
		assert.Equal(t, models.StringList{}, r.Tags)

		c, err := tx.Counters(ctx, "a")
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), c.SentNoVote)
		assert.Zero(t, c.SentUp)
		return nil
	})
	require.NoError(t, err)
}

func TestGuardRelationships(t *testing.T) {
	s := setupStore(t)
	ctx := t.Context()

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r := models.NewRelationships("a")
		r.Set("b", models.EdgeFriend)
		return tx.PutRelationships(ctx, r)
	}))

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Relationships(ctx, "a")
		if err != nil {
			return err
		}
		return tx.GuardRelationships(ctx, r)
	})
	require.NoError(t, err)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		stale := models.NewRelationships("a")
		stale.Version = 5
		return tx.GuardRelationships(ctx, stale)
	})
	require.ErrorIs(t, err, models.ErrConflict)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.GuardRelationships(ctx, models.NewRelationships("a"))
	})
	require.ErrorIs(t, err, models.ErrConflict)

	err = s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.GuardRelationships(ctx, models.NewRelationships("nobody"))
	})
	require.NoError(t, err)

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Relationships(ctx, "a")
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), r.Version)
		return nil
	}))
}

func TestFailedUnitRollsBack(t *testing.T) {
	s := setupStore(t)
	ctx := t.Context()

	err := s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.PutCounters(ctx, &models.EngagementCounters{UserID: "a", SentNoVote: 1}); err != nil {
			return err
		}
		return models.ErrForbidden
	})
	require.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Counters(ctx, "a")
		if err != nil {
			return err
		}
		assert.Zero(t, c.Version)
		return nil
	}))
}

func TestUsersAndGroups(t *testing.T) {
	s := setupStore(t)
	ctx := t.Context()
	dir := directory.New(s)

	_, err := dir.Register(ctx, "b", "Bob")
	require.NoError(t, err)
	_, err = dir.Register(ctx, "a", "Alice")
	require.NoError(t, err)
	_, err = dir.Register(ctx, "a", "Again")
	require.ErrorIs(t, err, models.ErrAlreadyExists)

	ids, err := dir.UserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	names, err := dir.Names(ctx, []string{"a", "zed"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "Alice"}, names)

	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateGroup(ctx, &models.FriendGroup{
			ID: "g1", OwnerID: "a", Name: "readers", MemberIDs: models.StringList{"b"}, CreatedAt: time.Now(),
		})
	}))
	require.NoError(t, s.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		groups, err := tx.GroupsOf(ctx, "a")
		if err != nil {
			return err
		}
		require.Len(t, groups, 1)
		assert.Equal(t, models.StringList{"b"}, groups[0].MemberIDs)

		_, err = tx.Group(ctx, "g2")
		assert.ErrorIs(t, err, models.ErrNotFound)
		return nil
	}))
}

func TestRelationshipServiceOnDatabase(t *testing.T) {
	s := setupStore(t)
	ctx := t.Context()
	dir := directory.New(s)
	for _, id := range []string{"a", "b"} {
		_, err := dir.Register(ctx, id, id)
		require.NoError(t, err)
	}

	rel := relationship.NewService(store.WithRetry(s, store.DefaultRetries), dir, zap.NewNop())
	require.NoError(t, rel.SendRequest(ctx, "a", "b"))
	require.ErrorIs(t, rel.SendRequest(ctx, "b", "a"), models.ErrAlreadyRelated)
	require.NoError(t, rel.AcceptRequest(ctx, "b", "a"))

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		friends, err := rel.ListFriends(ctx, pair[0])
		require.NoError(t, err)
		assert.Equal(t, []string{pair[1]}, friends)
	}

	report, err := rel.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Zero(t, report.Repaired)
}
