// Package coordinator runs every operation that touches both a
// recommendation and engagement counters as one unit of work, so the
// counters always equal a recount of the ledger.
package coordinator

import (
	"context"
	"fmt"

	"recky/backend/internal/directory"
	"recky/backend/internal/engagement"
	"recky/backend/internal/group"
	"recky/backend/internal/ledger"
	"recky/backend/internal/models"
	"recky/backend/internal/relationship"
	"recky/backend/internal/store"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// DefaultFanoutConcurrency bounds concurrent sends of one fan-out.
const DefaultFanoutConcurrency = 8

// Coordinator composes the ledger, engagement counters and friend graph.
type Coordinator struct {
	store         store.Store
	ledger        *ledger.Ledger
	engagement    *engagement.Store
	relationships *relationship.Service
	groups        *group.Service
	users         directory.Directory
	locks         *keyLock
	fanout        int
	logger        *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithFanoutConcurrency sets how many sends of one fan-out run at once.
func WithFanoutConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.fanout = n
		}
	}
}

// New creates a coordinator. s should retry conflicts; see store.WithRetry.
func New(
	s store.Store,
	l *ledger.Ledger,
	e *engagement.Store,
	relationships *relationship.Service,
	groups *group.Service,
	users directory.Directory,
	logger *zap.Logger,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		store:         s,
		ledger:        l,
		engagement:    e,
		relationships: relationships,
		groups:        groups,
		users:         users,
		locks:         newKeyLock(),
		fanout:        DefaultFanoutConcurrency,
		logger:        logger.Named("coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send creates one recommendation between friends and counts it for both
// participants.
func (c *Coordinator) Send(ctx context.Context, d ledger.Draft) (*models.Recommendation, error) {
	var rec *models.Recommendation
	err := c.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		if d.SenderID != d.RecipientID {
			ok, err := relationship.AreFriends(ctx, tx, d.SenderID, d.RecipientID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not a friend of %s: %w", d.RecipientID, d.SenderID, models.ErrForbidden)
			}
		}

		r, err := c.ledger.Create(ctx, tx, d)
		if err != nil {
			return err
		}
		if err := c.engagement.ApplyDelta(
			ctx, tx, r.SenderID, models.RoleSender, models.VoteNone, r.Vote,
		); err != nil {
			return err
		}
		if err := c.engagement.ApplyDelta(
			ctx, tx, r.RecipientID, models.RoleRecipient, models.VoteNone, r.Vote,
		); err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Recommendation sent",
		zap.String("id", rec.ID),
		zap.String("senderID", rec.SenderID),
		zap.String("recipientID", rec.RecipientID))
	return rec, nil
}

// SendMany sends d to every distinct recipient independently. It returns the
// recommendations that were created, in recipient order, together with the
// joined errors of the sends that failed.
func (c *Coordinator) SendMany(
	ctx context.Context, d ledger.Draft, recipients []string,
) ([]*models.Recommendation, error) {
	unique := make([]string, 0, len(recipients))
	seen := make(map[string]struct{}, len(recipients))
	for _, id := range recipients {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("no recipients: %w", models.ErrInvalidTarget)
	}

	var (
		results = make([]*models.Recommendation, len(unique))
		p       = pool.New().WithContext(ctx).WithMaxGoroutines(c.fanout)
	)
	for i, recipientID := range unique {
		p.Go(func(ctx context.Context) error {
			draft := d
			draft.RecipientID = recipientID

			r, err := c.Send(ctx, draft)
			if err != nil {
				c.logger.Warn("Failed to send recommendation",
					zap.String("senderID", d.SenderID),
					zap.String("recipientID", recipientID),
					zap.Error(err))
				return fmt.Errorf("send to %s: %w", recipientID, err)
			}
			results[i] = r
			return nil
		})
	}
	err := p.Wait()

	sent := make([]*models.Recommendation, 0, len(results))
	for _, r := range results {
		if r != nil {
			sent = append(sent, r)
		}
	}
	return sent, err
}

// SendToGroup sends d to every member of one of the sender's groups.
func (c *Coordinator) SendToGroup(
	ctx context.Context, d ledger.Draft, groupID string,
) ([]*models.Recommendation, error) {
	g, err := c.groups.Get(ctx, groupID, d.SenderID)
	if err != nil {
		return nil, err
	}
	return c.SendMany(ctx, d, g.MemberIDs)
}

// Vote applies the recipient's vote and moves both participants' counters
// by exactly the resulting transition. Votes on one recommendation are
// serialized.
func (c *Coordinator) Vote(
	ctx context.Context, id, actor string, desired models.Vote,
) (*models.Recommendation, ledger.VoteChange, error) {
	release, err := c.locks.Lock(ctx, id)
	if err != nil {
		return nil, ledger.VoteChange{}, err
	}
	defer release()

	var (
		rec    *models.Recommendation
		change ledger.VoteChange
	)
	err = c.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		change, rec, err = c.ledger.SetVote(ctx, tx, id, actor, desired)
		if err != nil {
			return err
		}
		if err := c.engagement.ApplyDelta(
			ctx, tx, rec.SenderID, models.RoleSender, change.Previous, change.Effective,
		); err != nil {
			return err
		}
		return c.engagement.ApplyDelta(
			ctx, tx, rec.RecipientID, models.RoleRecipient, change.Previous, change.Effective,
		)
	})
	if err != nil {
		return nil, ledger.VoteChange{}, err
	}

	c.logger.Debug("Vote recorded",
		zap.String("id", id),
		zap.String("previous", string(change.Previous)),
		zap.String("effective", string(change.Effective)))
	return rec, change, nil
}
