// Package relationship owns the friend graph. Each edge is stored twice, once
// in each user's record, and every operation rewrites both records inside one
// unit of work so the two sides never disagree.
package relationship

import (
	"context"
	"fmt"

	"recky/backend/internal/directory"
	"recky/backend/internal/models"
	"recky/backend/internal/store"

	"go.uber.org/zap"
)

// Service handles friend requests and friendships.
type Service struct {
	store  store.Store
	users  directory.Directory
	logger *zap.Logger
}

// NewService creates a relationship service.
func NewService(s store.Store, users directory.Directory, logger *zap.Logger) *Service {
	return &Service{
		store:  s,
		users:  users,
		logger: logger.Named("relationship_service"),
	}
}

// SendRequest records a pending request from one user to another.
func (s *Service) SendRequest(ctx context.Context, from, to string) error {
	if from == to {
		return fmt.Errorf("cannot send a request to yourself: %w", models.ErrInvalidTarget)
	}
	exists, err := s.users.Exists(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to resolve user %s: %w", to, err)
	}
	if !exists {
		return fmt.Errorf("user %s: %w", to, models.ErrNotFound)
	}

	err = s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		sender, err := tx.Relationships(ctx, from)
		if err != nil {
			return err
		}
		if state, ok := sender.State(to); ok {
			return fmt.Errorf("%s is %s for %s: %w", to, state, from, models.ErrAlreadyRelated)
		}
		target, err := tx.Relationships(ctx, to)
		if err != nil {
			return err
		}

		sender.Set(to, models.EdgeOutgoing)
		target.Set(from, models.EdgeIncoming)
		return putBoth(ctx, tx, sender, target)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Friend request sent", zap.String("from", from), zap.String("to", to))
	return nil
}

// AcceptRequest turns a pending request into a friendship on both sides.
func (s *Service) AcceptRequest(ctx context.Context, responder, requester string) error {
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		mine, err := tx.Relationships(ctx, responder)
		if err != nil {
			return err
		}
		if state, ok := mine.State(requester); !ok || state != models.EdgeIncoming {
			return fmt.Errorf("no request from %s to %s: %w", requester, responder, models.ErrNoSuchRequest)
		}
		theirs, err := tx.Relationships(ctx, requester)
		if err != nil {
			return err
		}

		mine.Set(requester, models.EdgeFriend)
		theirs.Set(responder, models.EdgeFriend)
		return putBoth(ctx, tx, mine, theirs)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Friend request accepted",
		zap.String("responder", responder),
		zap.String("requester", requester))
	return nil
}

// IgnoreRequest drops a pending request without creating a friendship.
func (s *Service) IgnoreRequest(ctx context.Context, responder, requester string) error {
	return s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		mine, err := tx.Relationships(ctx, responder)
		if err != nil {
			return err
		}
		if state, ok := mine.State(requester); !ok || state != models.EdgeIncoming {
			return fmt.Errorf("no request from %s to %s: %w", requester, responder, models.ErrNoSuchRequest)
		}
		theirs, err := tx.Relationships(ctx, requester)
		if err != nil {
			return err
		}

		mine.Remove(requester)
		if state, ok := theirs.State(responder); ok && state == models.EdgeOutgoing {
			theirs.Remove(responder)
		}
		return putBoth(ctx, tx, mine, theirs)
	})
}

// CancelRequest withdraws a request the sender has not had answered yet.
func (s *Service) CancelRequest(ctx context.Context, from, to string) error {
	return s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		mine, err := tx.Relationships(ctx, from)
		if err != nil {
			return err
		}
		if state, ok := mine.State(to); !ok || state != models.EdgeOutgoing {
			return fmt.Errorf("no request from %s to %s: %w", from, to, models.ErrNoSuchRequest)
		}
		theirs, err := tx.Relationships(ctx, to)
		if err != nil {
			return err
		}

		mine.Remove(to)
		if state, ok := theirs.State(from); ok && state == models.EdgeIncoming {
			theirs.Remove(from)
		}
		return putBoth(ctx, tx, mine, theirs)
	})
}

// Unfriend removes a friendship from both users.
func (s *Service) Unfriend(ctx context.Context, user, peer string) error {
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		mine, err := tx.Relationships(ctx, user)
		if err != nil {
			return err
		}
		if state, ok := mine.State(peer); !ok || state != models.EdgeFriend {
			return fmt.Errorf("%s is not a friend of %s: %w", peer, user, models.ErrNotFound)
		}
		theirs, err := tx.Relationships(ctx, peer)
		if err != nil {
			return err
		}

		mine.Remove(peer)
		if state, ok := theirs.State(user); ok && state == models.EdgeFriend {
			theirs.Remove(user)
		}
		return putBoth(ctx, tx, mine, theirs)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Friendship removed", zap.String("user", user), zap.String("peer", peer))
	return nil
}

// Relationship returns the user's full record.
func (s *Service) Relationship(ctx context.Context, user string) (*models.Relationships, error) {
	var r *models.Relationships
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		r, err = tx.Relationships(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListFriends returns the user's friends, sorted.
func (s *Service) ListFriends(ctx context.Context, user string) ([]string, error) {
	r, err := s.Relationship(ctx, user)
	if err != nil {
		return nil, err
	}
	return r.Friends(), nil
}

// ListIncoming returns the users who sent this user a request, sorted.
func (s *Service) ListIncoming(ctx context.Context, user string) ([]string, error) {
	r, err := s.Relationship(ctx, user)
	if err != nil {
		return nil, err
	}
	return r.Incoming(), nil
}

// ListOutgoing returns the users this user sent a request to, sorted.
func (s *Service) ListOutgoing(ctx context.Context, user string) ([]string, error) {
	r, err := s.Relationship(ctx, user)
	if err != nil {
		return nil, err
	}
	return r.Outgoing(), nil
}

// AreFriends reports, inside an existing unit of work, whether a and b are
// friends on both sides.
func AreFriends(ctx context.Context, tx store.Tx, a, b string) (bool, error) {
	left, err := tx.Relationships(ctx, a)
	if err != nil {
		return false, err
	}
	if state, ok := left.State(b); !ok || state != models.EdgeFriend {
		return false, nil
	}
	right, err := tx.Relationships(ctx, b)
	if err != nil {
		return false, err
	}
	if state, ok := right.State(a); !ok || state != models.EdgeFriend {
		return false, nil
	}

	// The unit commits only if neither side unfriended in the meantime.
	// Guards go in id order so two opposite sends lock rows alike.
	first, second := left, right
	if b < a {
		first, second = right, left
	}
	if err := tx.GuardRelationships(ctx, first); err != nil {
		return false, err
	}
	if err := tx.GuardRelationships(ctx, second); err != nil {
		return false, err
	}
	return true, nil
}

func putBoth(ctx context.Context, tx store.Tx, a, b *models.Relationships) error {
	if err := tx.PutRelationships(ctx, a); err != nil {
		return err
	}
	return tx.PutRelationships(ctx, b)
}
