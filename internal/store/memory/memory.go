// Package memory is an in-process store.Store with optimistic versioning.
// A unit of work stages its writes and commits them under one lock after
// checking that every written or guarded record still has the version it was read at.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"recky/backend/internal/models"
	"recky/backend/internal/store"
)

// mustNotExist marks a staged create.
const mustNotExist = -1

type staged[T any] struct {
	base  int64
	value T
}

// Store keeps every record in maps guarded by one RWMutex.
type Store struct {
	mu              sync.RWMutex
	relationships   map[string]*models.Relationships
	counters        map[string]*models.EngagementCounters
	recommendations map[string]*models.Recommendation
	groups          map[string]*models.FriendGroup
	users           map[string]*models.User
}

// New creates an empty store.
func New() *Store {
	return &Store{
		relationships:   make(map[string]*models.Relationships),
		counters:        make(map[string]*models.EngagementCounters),
		recommendations: make(map[string]*models.Recommendation),
		groups:          make(map[string]*models.FriendGroup),
		users:           make(map[string]*models.User),
	}
}

// Atomic implements store.Store. Nothing fn wrote is visible unless fn
// returns nil and ctx is still live at commit time.
func (s *Store) Atomic(ctx context.Context, fn store.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := &tx{
		s:               s,
		relationships:   make(map[string]*staged[*models.Relationships]),
		guarded:         make(map[string]int64),
		counters:        make(map[string]*staged[*models.EngagementCounters]),
		recommendations: make(map[string]*staged[*models.Recommendation]),
		groups:          make(map[string]*staged[*models.FriendGroup]),
		users:           make(map[string]*staged[*models.User]),
	}
	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range t.relationships {
		var current int64
		if r, ok := s.relationships[id]; ok {
			current = r.Version
		}
		if current != e.base {
			return fmt.Errorf("relationships of %s: %w", id, models.ErrConflict)
		}
	}
	for id, version := range t.guarded {
		var current int64
		if r, ok := s.relationships[id]; ok {
			current = r.Version
		}
		if current != version {
			return fmt.Errorf("relationships of %s: %w", id, models.ErrConflict)
		}
	}
	for id, e := range t.counters {
		var current int64
		if c, ok := s.counters[id]; ok {
			current = c.Version
		}
		if current != e.base {
			return fmt.Errorf("counters of %s: %w", id, models.ErrConflict)
		}
	}
	for id, e := range t.recommendations {
		r, ok := s.recommendations[id]
		switch {
		case e.base == mustNotExist && ok:
			return fmt.Errorf("recommendation %s: %w", id, models.ErrConflict)
		case e.base != mustNotExist && (!ok || r.Version != e.base):
			return fmt.Errorf("recommendation %s: %w", id, models.ErrConflict)
		}
	}
	for id := range t.groups {
		if _, ok := s.groups[id]; ok {
			return fmt.Errorf("group %s: %w", id, models.ErrConflict)
		}
	}
	for id := range t.users {
		if _, ok := s.users[id]; ok {
			return fmt.Errorf("user %s: %w", id, models.ErrAlreadyExists)
		}
	}

	for id, e := range t.relationships {
		s.relationships[id] = e.value
	}
	for id, e := range t.counters {
		s.counters[id] = e.value
	}
	for id, e := range t.recommendations {
		s.recommendations[id] = e.value
	}
	for id, e := range t.groups {
		s.groups[id] = e.value
	}
	for id, e := range t.users {
		s.users[id] = e.value
	}
	return nil
}

type tx struct {
	s               *Store
	relationships   map[string]*staged[*models.Relationships]
	guarded         map[string]int64
	counters        map[string]*staged[*models.EngagementCounters]
	recommendations map[string]*staged[*models.Recommendation]
	groups          map[string]*staged[*models.FriendGroup]
	users           map[string]*staged[*models.User]
}

func (t *tx) Relationships(ctx context.Context, userID string) (*models.Relationships, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e, ok := t.relationships[userID]; ok {
		return e.value.Clone(), nil
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if r, ok := t.s.relationships[userID]; ok {
		return r.Clone(), nil
	}
	return models.NewRelationships(userID), nil
}

func (t *tx) AllRelationships(ctx context.Context) ([]*models.Relationships, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byUser := make(map[string]*models.Relationships)
	t.s.mu.RLock()
	for id, r := range t.s.relationships {
		byUser[id] = r.Clone()
	}
	t.s.mu.RUnlock()
	for id, e := range t.relationships {
		byUser[id] = e.value.Clone()
	}

	out := make([]*models.Relationships, 0, len(byUser))
	for _, r := range byUser {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (t *tx) PutRelationships(ctx context.Context, r *models.Relationships) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := r.Clone()
	next.Version = r.Version + 1

	if e, ok := t.relationships[r.UserID]; ok {
		if e.value.Version != r.Version {
			return fmt.Errorf("relationships of %s: %w", r.UserID, models.ErrConflict)
		}
		e.value = next
	} else {
		t.relationships[r.UserID] = &staged[*models.Relationships]{base: r.Version, value: next}
	}
	r.Version = next.Version
	return nil
}

func (t *tx) GuardRelationships(ctx context.Context, r *models.Relationships) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Staged records are already checked against their base version.
	if _, ok := t.relationships[r.UserID]; ok {
		return nil
	}
	if version, ok := t.guarded[r.UserID]; ok && version != r.Version {
		return fmt.Errorf("relationships of %s: %w", r.UserID, models.ErrConflict)
	}
	t.guarded[r.UserID] = r.Version
	return nil
}

func (t *tx) Counters(ctx context.Context, userID string) (*models.EngagementCounters, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e, ok := t.counters[userID]; ok {
		c := *e.value
		return &c, nil
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if c, ok := t.s.counters[userID]; ok {
		cp := *c
		return &cp, nil
	}
	return &models.EngagementCounters{UserID: userID}, nil
}

func (t *tx) PutCounters(ctx context.Context, c *models.EngagementCounters) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := *c
	next.Version = c.Version + 1

	if e, ok := t.counters[c.UserID]; ok {
		if e.value.Version != c.Version {
			return fmt.Errorf("counters of %s: %w", c.UserID, models.ErrConflict)
		}
		e.value = &next
	} else {
		t.counters[c.UserID] = &staged[*models.EngagementCounters]{base: c.Version, value: &next}
	}
	c.Version = next.Version
	return nil
}

func (t *tx) CreateRecommendation(ctx context.Context, r *models.Recommendation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.recommendations[r.ID]; ok {
		return fmt.Errorf("recommendation %s: %w", r.ID, models.ErrConflict)
	}
	t.s.mu.RLock()
	_, exists := t.s.recommendations[r.ID]
	t.s.mu.RUnlock()
	if exists {
		return fmt.Errorf("recommendation %s: %w", r.ID, models.ErrConflict)
	}

	r.Version = 1
	t.recommendations[r.ID] = &staged[*models.Recommendation]{base: mustNotExist, value: r.Clone()}
	return nil
}

func (t *tx) Recommendation(ctx context.Context, id string) (*models.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e, ok := t.recommendations[id]; ok {
		return e.value.Clone(), nil
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if r, ok := t.s.recommendations[id]; ok {
		return r.Clone(), nil
	}
	return nil, fmt.Errorf("recommendation %s: %w", id, models.ErrNotFound)
}

func (t *tx) UpdateRecommendation(ctx context.Context, r *models.Recommendation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := r.Clone()
	next.Version = r.Version + 1

	if e, ok := t.recommendations[r.ID]; ok {
		if e.value.Version != r.Version {
			return fmt.Errorf("recommendation %s: %w", r.ID, models.ErrConflict)
		}
		e.value = next
	} else {
		t.s.mu.RLock()
		_, exists := t.s.recommendations[r.ID]
		t.s.mu.RUnlock()
		if !exists {
			return fmt.Errorf("recommendation %s: %w", r.ID, models.ErrNotFound)
		}
		t.recommendations[r.ID] = &staged[*models.Recommendation]{base: r.Version, value: next}
	}
	r.Version = next.Version
	return nil
}

func (t *tx) RecommendationsFor(ctx context.Context, userID string) ([]*models.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Recommendation)
	t.s.mu.RLock()
	for id, r := range t.s.recommendations {
		if r.IsParticipant(userID) {
			byID[id] = r.Clone()
		}
	}
	t.s.mu.RUnlock()
	for id, e := range t.recommendations {
		if e.value.IsParticipant(userID) {
			byID[id] = e.value.Clone()
		}
	}

	out := make([]*models.Recommendation, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (t *tx) CreateGroup(ctx context.Context, g *models.FriendGroup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.s.mu.RLock()
	_, exists := t.s.groups[g.ID]
	t.s.mu.RUnlock()
	if _, pending := t.groups[g.ID]; pending || exists {
		return fmt.Errorf("group %s: %w", g.ID, models.ErrConflict)
	}

	cp := *g
	cp.MemberIDs = append(models.StringList{}, g.MemberIDs...)
	t.groups[g.ID] = &staged[*models.FriendGroup]{base: mustNotExist, value: &cp}
	return nil
}

func (t *tx) Group(ctx context.Context, id string) (*models.FriendGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, ok := t.lookupGroup(id)
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, models.ErrNotFound)
	}
	cp := *g
	cp.MemberIDs = append(models.StringList{}, g.MemberIDs...)
	return &cp, nil
}

func (t *tx) lookupGroup(id string) (*models.FriendGroup, bool) {
	if e, ok := t.groups[id]; ok {
		return e.value, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	g, ok := t.s.groups[id]
	return g, ok
}

func (t *tx) GroupsOf(ctx context.Context, ownerID string) ([]*models.FriendGroup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*models.FriendGroup
	collect := func(g *models.FriendGroup) {
		if g.OwnerID == ownerID {
			cp := *g
			cp.MemberIDs = append(models.StringList{}, g.MemberIDs...)
			out = append(out, &cp)
		}
	}
	t.s.mu.RLock()
	for _, g := range t.s.groups {
		collect(g)
	}
	t.s.mu.RUnlock()
	for _, e := range t.groups {
		collect(e.value)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (t *tx) CreateUser(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.s.mu.RLock()
	_, exists := t.s.users[u.ID]
	t.s.mu.RUnlock()
	if _, pending := t.users[u.ID]; pending || exists {
		return fmt.Errorf("user %s: %w", u.ID, models.ErrAlreadyExists)
	}

	cp := *u
	t.users[u.ID] = &staged[*models.User]{base: mustNotExist, value: &cp}
	return nil
}

func (t *tx) Users(ctx context.Context, ids []string) ([]*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.User, 0, len(ids))
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	for _, id := range ids {
		if e, ok := t.users[id]; ok {
			cp := *e.value
			out = append(out, &cp)
			continue
		}
		if u, ok := t.s.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (t *tx) UserIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	t.s.mu.RLock()
	for id := range t.s.users {
		seen[id] = struct{}{}
	}
	t.s.mu.RUnlock()
	for id := range t.users {
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
