// Package store defines the persistence boundary shared by the relationship,
// ledger and engagement layers.
//
// Every read and write happens inside Store.Atomic. Writes carry the Version
// observed when the record was read; a write against a record that changed
// since then fails with models.ErrConflict and the whole unit is discarded.
package store

import (
	"context"

	"recky/backend/internal/models"
)

// TxFunc is a unit of work run by Store.Atomic.
type TxFunc func(ctx context.Context, tx Tx) error

// Store runs units of work atomically: either every write made through tx
// commits, or none does.
type Store interface {
	Atomic(ctx context.Context, fn TxFunc) error
}

// Tx is the view of the store inside a unit of work.
type Tx interface {
	// Relationships returns the user's record, or an empty one with Version 0.
	Relationships(ctx context.Context, userID string) (*models.Relationships, error)
	// AllRelationships returns every stored relationship record.
	AllRelationships(ctx context.Context) ([]*models.Relationships, error)
	// PutRelationships replaces the record and increments r.Version.
	PutRelationships(ctx context.Context, r *models.Relationships) error
	// GuardRelationships fails the unit with models.ErrConflict if r changed
	// after it was read, even though the unit never writes it.
	GuardRelationships(ctx context.Context, r *models.Relationships) error

	// Counters returns the user's counters, or zeroes with Version 0.
	Counters(ctx context.Context, userID string) (*models.EngagementCounters, error)
	// PutCounters replaces the counters and increments c.Version.
	PutCounters(ctx context.Context, c *models.EngagementCounters) error

	CreateRecommendation(ctx context.Context, r *models.Recommendation) error
	Recommendation(ctx context.Context, id string) (*models.Recommendation, error)
	// UpdateRecommendation writes the recipient-owned and archive fields and
	// increments r.Version.
	UpdateRecommendation(ctx context.Context, r *models.Recommendation) error
	// RecommendationsFor returns everything sent or received by userID, newest first.
	RecommendationsFor(ctx context.Context, userID string) ([]*models.Recommendation, error)

	CreateGroup(ctx context.Context, g *models.FriendGroup) error
	Group(ctx context.Context, id string) (*models.FriendGroup, error)
	GroupsOf(ctx context.Context, ownerID string) ([]*models.FriendGroup, error)

	CreateUser(ctx context.Context, u *models.User) error
	// Users returns the known users among ids; unknown ids are skipped.
	Users(ctx context.Context, ids []string) ([]*models.User, error)
	UserIDs(ctx context.Context) ([]string, error)
}
