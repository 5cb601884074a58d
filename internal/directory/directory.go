// Package directory resolves user ids to display names. The relationship and
// ledger layers store ids only and ask the directory for names when needed.
package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recky/backend/internal/models"
	"recky/backend/internal/store"
)

// Directory is the read side of user identity plus seeding for tests and tools.
type Directory interface {
	Register(ctx context.Context, id, displayName string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	// Names maps every known id to its display name; unknown ids are absent.
	Names(ctx context.Context, ids []string) (map[string]string, error)
	UserIDs(ctx context.Context) ([]string, error)
}

// StoreDirectory reads users from the primary store.
type StoreDirectory struct {
	store store.Store
	now   func() time.Time
}

// New creates a directory backed by s.
func New(s store.Store) *StoreDirectory {
	return &StoreDirectory{store: s, now: time.Now}
}

// Register implements Directory.
func (d *StoreDirectory) Register(ctx context.Context, id, displayName string) (*models.User, error) {
	id = strings.TrimSpace(id)
	displayName = strings.TrimSpace(displayName)
	if id == "" || displayName == "" {
		return nil, fmt.Errorf("id and display name are required: %w", models.ErrInvalidTarget)
	}

	u := &models.User{ID: id, DisplayName: displayName, CreatedAt: d.now().UTC()}
	err := d.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.CreateUser(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Exists implements Directory.
func (d *StoreDirectory) Exists(ctx context.Context, id string) (bool, error) {
	names, err := d.Names(ctx, []string{id})
	if err != nil {
		return false, err
	}
	_, ok := names[id]
	return ok, nil
}

// Names implements Directory.
func (d *StoreDirectory) Names(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	err := d.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		users, err := tx.Users(ctx, ids)
		if err != nil {
			return err
		}
		for _, u := range users {
			names[u.ID] = u.DisplayName
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// UserIDs implements Directory.
func (d *StoreDirectory) UserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := d.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		ids, err = tx.UserIDs(ctx)
		return err
	})
	return ids, err
}
