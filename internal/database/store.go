package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recky/backend/internal/models"
	"recky/backend/internal/store"

	"gorm.io/gorm"
)

// Store implements store.Store on a gorm connection. Each unit of work is a
// database transaction; versioned rows are written with
// "UPDATE ... WHERE version = ?" so a lost race surfaces as models.ErrConflict.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open, migrated connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Atomic implements store.Store.
func (s *Store) Atomic(ctx context.Context, fn store.TxFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(ctx, &gormTx{db: tx}); err != nil {
			return err
		}
		// A caller that went away before commit must not see its writes land.
		return ctx.Err()
	})
}

// translate maps gorm errors onto the models taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, models.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Relationships(_ context.Context, userID string) (*models.Relationships, error) {
	r := models.NewRelationships(userID)

	var rec models.RelationshipRecord
	err := t.db.Where("user_id = ?", userID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r, nil
	}
	if err != nil {
		return nil, translate(err, "load relationships")
	}
	r.Version = rec.Version

	var edges []models.RelationshipEdge
	if err := t.db.Where("owner_id = ?", userID).Find(&edges).Error; err != nil {
		return nil, translate(err, "load relationship edges")
	}
	for _, e := range edges {
		r.Set(e.PeerID, e.State)
	}
	return r, nil
}

func (t *gormTx) AllRelationships(_ context.Context) ([]*models.Relationships, error) {
	var records []models.RelationshipRecord
	if err := t.db.Order("user_id").Find(&records).Error; err != nil {
		return nil, translate(err, "load relationship records")
	}
	var edges []models.RelationshipEdge
	if err := t.db.Find(&edges).Error; err != nil {
		return nil, translate(err, "load relationship edges")
	}

	byUser := make(map[string]*models.Relationships, len(records))
	out := make([]*models.Relationships, 0, len(records))
	for _, rec := range records {
		r := models.NewRelationships(rec.UserID)
		r.Version = rec.Version
		byUser[rec.UserID] = r
		out = append(out, r)
	}
	for _, e := range edges {
		if r, ok := byUser[e.OwnerID]; ok {
			r.Set(e.PeerID, e.State)
		}
	}
	return out, nil
}

func (t *gormTx) PutRelationships(_ context.Context, r *models.Relationships) error {
	now := time.Now()
	if r.Version == 0 {
		rec := models.RelationshipRecord{UserID: r.UserID, Version: 1, UpdatedAt: now}
		if err := t.db.Create(&rec).Error; err != nil {
			return translate(err, "create relationship record")
		}
	} else {
		res := t.db.Model(&models.RelationshipRecord{}).
			Where("user_id = ? AND version = ?", r.UserID, r.Version).
			Updates(map[string]any{"version": r.Version + 1, "updated_at": now})
		if res.Error != nil {
			return translate(res.Error, "update relationship record")
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("relationships of %s: %w", r.UserID, models.ErrConflict)
		}
	}

	if err := t.db.Where("owner_id = ?", r.UserID).Delete(&models.RelationshipEdge{}).Error; err != nil {
		return translate(err, "clear relationship edges")
	}
	if len(r.Edges) > 0 {
		edges := make([]models.RelationshipEdge, 0, len(r.Edges))
		for peer, state := range r.Edges {
			edges = append(edges, models.RelationshipEdge{
				OwnerID:   r.UserID,
				PeerID:    peer,
				State:     state,
				CreatedAt: now,
			})
		}
		if err := t.db.Create(&edges).Error; err != nil {
			return translate(err, "write relationship edges")
		}
	}

	r.Version++
	return nil
}

// GuardRelationships rewrites the record's version in place. The row lock it
// takes holds off concurrent writers until commit, and a row that moved on
// since it was read matches nothing.
func (t *gormTx) GuardRelationships(_ context.Context, r *models.Relationships) error {
	if r.Version == 0 {
		var count int64
		if err := t.db.Model(&models.RelationshipRecord{}).Where("user_id = ?", r.UserID).Count(&count).Error; err != nil {
			return translate(err, "guard relationship record")
		}
		if count > 0 {
			return fmt.Errorf("relationships of %s: %w", r.UserID, models.ErrConflict)
		}
		return nil
	}
	res := t.db.Model(&models.RelationshipRecord{}).
		Where("user_id = ? AND version = ?", r.UserID, r.Version).
		UpdateColumn("version", gorm.Expr("version"))
	if res.Error != nil {
		return translate(res.Error, "guard relationship record")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("relationships of %s: %w", r.UserID, models.ErrConflict)
	}
	return nil
}

func (t *gormTx) Counters(_ context.Context, userID string) (*models.EngagementCounters, error) {
	var c models.EngagementCounters
	err := t.db.Where("user_id = ?", userID).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.EngagementCounters{UserID: userID}, nil
	}
	if err != nil {
		return nil, translate(err, "load counters")
	}
	return &c, nil
}

func (t *gormTx) PutCounters(_ context.Context, c *models.EngagementCounters) error {
	now := time.Now()
	if c.Version == 0 {
		row := *c
		row.Version = 1
		row.UpdatedAt = now
		if err := t.db.Create(&row).Error; err != nil {
			return translate(err, "create counters")
		}
		c.Version = 1
		return nil
	}

	res := t.db.Model(&models.EngagementCounters{}).
		Where("user_id = ? AND version = ?", c.UserID, c.Version).
		Updates(map[string]any{
			"sent_up":          c.SentUp,
			"sent_down":        c.SentDown,
			"sent_no_vote":     c.SentNoVote,
			"received_up":      c.ReceivedUp,
			"received_down":    c.ReceivedDown,
			"received_no_vote": c.ReceivedNoVote,
			"version":          c.Version + 1,
			"updated_at":       now,
		})
	if res.Error != nil {
		return translate(res.Error, "update counters")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("counters of %s: %w", c.UserID, models.ErrConflict)
	}
	c.Version++
	return nil
}

func (t *gormTx) CreateRecommendation(_ context.Context, r *models.Recommendation) error {
	r.Version = 1
	if r.Tags == nil {
		r.Tags = models.StringList{}
	}
	if r.ArchivedBy == nil {
		r.ArchivedBy = models.StringList{}
	}
	return translate(t.db.Create(r).Error, "create recommendation")
}

func (t *gormTx) Recommendation(_ context.Context, id string) (*models.Recommendation, error) {
	var r models.Recommendation
	if err := t.db.Where("id = ?", id).Take(&r).Error; err != nil {
		return nil, translate(err, "recommendation "+id)
	}
	return &r, nil
}

func (t *gormTx) UpdateRecommendation(ctx context.Context, r *models.Recommendation) error {
	archived := r.ArchivedBy
	if archived == nil {
		archived = models.StringList{}
	}
	res := t.db.Model(&models.Recommendation{}).
		Where("id = ? AND version = ?", r.ID, r.Version).
		Updates(map[string]any{
			"vote":        string(r.Vote),
			"vote_note":   r.VoteNote,
			"viewed":      r.Viewed,
			"archived_by": archived,
			"version":     r.Version + 1,
		})
	if res.Error != nil {
		return translate(res.Error, "update recommendation")
	}
	if res.RowsAffected == 0 {
		if _, err := t.Recommendation(ctx, r.ID); err != nil {
			return err
		}
		return fmt.Errorf("recommendation %s: %w", r.ID, models.ErrConflict)
	}
	r.Version++
	return nil
}

func (t *gormTx) RecommendationsFor(_ context.Context, userID string) ([]*models.Recommendation, error) {
	var recs []*models.Recommendation
	err := t.db.Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, translate(err, "list recommendations")
	}
	return recs, nil
}

func (t *gormTx) CreateGroup(_ context.Context, g *models.FriendGroup) error {
	return translate(t.db.Create(g).Error, "create group")
}

func (t *gormTx) Group(_ context.Context, id string) (*models.FriendGroup, error) {
	var g models.FriendGroup
	if err := t.db.Where("id = ?", id).Take(&g).Error; err != nil {
		return nil, translate(err, "group "+id)
	}
	return &g, nil
}

func (t *gormTx) GroupsOf(_ context.Context, ownerID string) ([]*models.FriendGroup, error) {
	var groups []*models.FriendGroup
	if err := t.db.Where("owner_id = ?", ownerID).Order("name, id").Find(&groups).Error; err != nil {
		return nil, translate(err, "list groups")
	}
	return groups, nil
}

func (t *gormTx) CreateUser(_ context.Context, u *models.User) error {
	err := t.db.Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("user %s: %w", u.ID, models.ErrAlreadyExists)
	}
	return translate(err, "create user")
}

func (t *gormTx) Users(_ context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*models.User
	if err := t.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err, "load users")
	}
	return users, nil
}

func (t *gormTx) UserIDs(_ context.Context) ([]string, error) {
	var ids []string
	if err := t.db.Model(&models.User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, translate(err, "list user ids")
	}
	return ids, nil
}
