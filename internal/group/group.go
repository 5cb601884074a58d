// Package group manages named friend groups used as fan-out targets.
package group

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"recky/backend/internal/models"
	"recky/backend/internal/relationship"
	"recky/backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxNameLength is the longest group name accepted, in characters.
const MaxNameLength = 64

// Service creates and reads friend groups.
type Service struct {
	store  store.Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a group service.
func NewService(s store.Store, logger *zap.Logger) *Service {
	return &Service{
		store:  s,
		now:    time.Now,
		logger: logger.Named("group_service"),
	}
}

// Create stores a group of the owner's friends. Every member must be a
// friend at creation time.
func (s *Service) Create(ctx context.Context, ownerID, name string, memberIDs []string) (*models.FriendGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, fmt.Errorf("group name must be 1 to %d characters: %w", MaxNameLength, models.ErrInvalidTarget)
	}

	members := make(models.StringList, 0, len(memberIDs))
	seen := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if id == ownerID {
			return nil, fmt.Errorf("cannot add yourself to a group: %w", models.ErrInvalidTarget)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("group needs at least one member: %w", models.ErrInvalidTarget)
	}

	g := &models.FriendGroup{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		MemberIDs: members,
		CreatedAt: s.now().UTC(),
	}
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, id := range members {
			ok, err := relationship.AreFriends(ctx, tx, ownerID, id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not a friend of %s: %w", id, ownerID, models.ErrForbidden)
			}
		}
		return tx.CreateGroup(ctx, g)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Group created",
		zap.String("groupID", g.ID),
		zap.String("ownerID", ownerID),
		zap.Int("members", len(members)))
	return g, nil
}

// Get returns one of the owner's groups.
func (s *Service) Get(ctx context.Context, id, ownerID string) (*models.FriendGroup, error) {
	var g *models.FriendGroup
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		g, err = tx.Group(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if g.OwnerID != ownerID {
		return nil, fmt.Errorf("group %s belongs to someone else: %w", id, models.ErrForbidden)
	}
	return g, nil
}

// List returns the owner's groups ordered by name.
func (s *Service) List(ctx context.Context, ownerID string) ([]*models.FriendGroup, error) {
	var groups []*models.FriendGroup
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		groups, err = tx.GroupsOf(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []*models.FriendGroup{}
	}
	return groups, nil
}
