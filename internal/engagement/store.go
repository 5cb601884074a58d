package engagement

import (
	"context"
	"fmt"

	"recky/backend/internal/models"
	"recky/backend/internal/store"

	"go.uber.org/zap"
)

// Store reads and adjusts engagement counters.
type Store struct {
	store  store.Store
	logger *zap.Logger
}

// NewStore creates an engagement store.
func NewStore(s store.Store, logger *zap.Logger) *Store {
	return &Store{
		store:  s,
		logger: logger.Named("engagement_store"),
	}
}

// ApplyDelta adjusts the counter family selected by role by the change the
// previous→next transition implies. It must run inside the same unit of
// work that recorded the transition.
func (s *Store) ApplyDelta(
	ctx context.Context, tx store.Tx, userID string, role models.Role, previous, next models.Vote,
) error {
	change := Delta(previous, next)
	if change.IsZero() {
		return nil
	}

	c, err := tx.Counters(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load counters of %s: %w", userID, err)
	}
	if err := Apply(c, role, change); err != nil {
		s.logger.Error("Refusing counter update",
			zap.String("userID", userID),
			zap.String("role", string(role)),
			zap.String("previous", string(previous)),
			zap.String("next", string(next)),
			zap.Error(err))
		return err
	}
	return tx.PutCounters(ctx, c)
}

// Apply adds change to the family of c selected by role. It fails with
// models.ErrCounterDrift, leaving c untouched, if any counter would go negative.
func Apply(c *models.EngagementCounters, role models.Role, change Change) error {
	var up, down, noVote *int64
	switch role {
	case models.RoleSender:
		up, down, noVote = &c.SentUp, &c.SentDown, &c.SentNoVote
	case models.RoleRecipient:
		up, down, noVote = &c.ReceivedUp, &c.ReceivedDown, &c.ReceivedNoVote
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	if *up+change.Up < 0 || *down+change.Down < 0 || *noVote+change.NoVote < 0 {
		return fmt.Errorf("%s counters of %s: %w", role, c.UserID, models.ErrCounterDrift)
	}
	*up += change.Up
	*down += change.Down
	*noVote += change.NoVote
	return nil
}

// Counters returns the user's counters; users without activity get zeroes.
func (s *Store) Counters(ctx context.Context, userID string) (*models.EngagementCounters, error) {
	var c *models.EngagementCounters
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		c, err = tx.Counters(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Tally counts userID's recommendations from scratch.
func Tally(userID string, recs []*models.Recommendation) models.EngagementCounters {
	c := models.EngagementCounters{UserID: userID}
	for _, r := range recs {
		if r.SenderID == userID {
			_ = Apply(&c, models.RoleSender, unit(r.Vote))
		}
		if r.RecipientID == userID {
			_ = Apply(&c, models.RoleRecipient, unit(r.Vote))
		}
	}
	return c
}

// Recompute recounts userID's counters from the ledger and overwrites them
// when they drifted. It reports whether a repair was written.
func (s *Store) Recompute(ctx context.Context, userID string) (bool, error) {
	var repaired bool
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		repaired = false
		// Counters first: any send or vote committed after this read bumps
		// their version, so the rewrite below conflicts instead of storing a
		// stale tally.
		current, err := tx.Counters(ctx, userID)
		if err != nil {
			return err
		}
		recs, err := tx.RecommendationsFor(ctx, userID)
		if err != nil {
			return err
		}

		want := Tally(userID, recs)
		if current.SameTallies(&want) {
			return nil
		}

		s.logger.Warn("Engagement counters drifted, rewriting",
			zap.String("userID", userID),
			zap.Any("stored", current),
			zap.Any("expected", want))

		want.Version = current.Version
		repaired = true
		return tx.PutCounters(ctx, &want)
	})
	if err != nil {
		return false, fmt.Errorf("failed to recompute counters of %s: %w", userID, err)
	}
	return repaired, nil
}
