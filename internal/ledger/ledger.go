// Package ledger stores recommendations and enforces who may touch which
// field. Vote changes report the transition they made so the caller can
// adjust engagement counters in the same unit of work.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"recky/backend/internal/directory"
	"recky/backend/internal/models"
	"recky/backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxVoteNoteLength is the longest vote note accepted, in characters.
	MaxVoteNoteLength = 250
	// MaxTitleLength matches the title column size.
	MaxTitleLength = 512
)

// Ledger creates and updates recommendations.
type Ledger struct {
	store  store.Store
	users  directory.Directory
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDs overrides the id generator.
func WithIDs(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New creates a ledger. Ids are random UUIDs unless overridden.
func New(s store.Store, users directory.Directory, logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:  s,
		users:  users,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		logger: logger.Named("ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Draft is the sender-supplied content of a recommendation.
type Draft struct {
	SenderID    string
	RecipientID string
	Title       string
	Tags        []string
	Note        string
}

// ParseTags splits a comma separated tag string, dropping empty entries.
func ParseTags(raw string) []string {
	return normalizeTags(strings.Split(raw, ","))
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Create stores a new unvoted recommendation inside tx.
func (l *Ledger) Create(ctx context.Context, tx store.Tx, d Draft) (*models.Recommendation, error) {
	if d.SenderID == d.RecipientID {
		return nil, fmt.Errorf("cannot recommend to yourself: %w", models.ErrSameUser)
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", models.ErrInvalidTarget)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, fmt.Errorf("title longer than %d characters: %w", MaxTitleLength, models.ErrInvalidTarget)
	}

	r := &models.Recommendation{
		ID:          l.newID(),
		SenderID:    d.SenderID,
		RecipientID: d.RecipientID,
		Title:       title,
		Tags:        normalizeTags(d.Tags),
		CreatedAt:   l.now().UTC(),
		Vote:        models.VoteUnset,
		ArchivedBy:  models.StringList{},
	}
	if note := strings.TrimSpace(d.Note); note != "" {
		r.Note = &note
	}

	if err := tx.CreateRecommendation(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create recommendation: %w", err)
	}
	return r, nil
}

// VoteChange is the transition a SetVote call made.
type VoteChange struct {
	Previous  models.Vote
	Effective models.Vote
}

// SetVote applies the recipient's vote inside tx. Repeating the current vote
// clears it back to unset.
func (l *Ledger) SetVote(
	ctx context.Context, tx store.Tx, id, actor string, vote models.Vote,
) (VoteChange, *models.Recommendation, error) {
	if vote != models.VoteUp && vote != models.VoteDown {
		return VoteChange{}, nil, fmt.Errorf("vote must be up or down, got %q: %w", vote, models.ErrInvalidTarget)
	}

	r, err := tx.Recommendation(ctx, id)
	if err != nil {
		return VoteChange{}, nil, err
	}
	if r.RecipientID != actor {
		return VoteChange{}, nil, fmt.Errorf("only the recipient may vote on %s: %w", id, models.ErrForbidden)
	}

	change := VoteChange{Previous: r.Vote, Effective: vote}
	if vote == r.Vote {
		change.Effective = models.VoteUnset
	}

	r.Vote = change.Effective
	if err := tx.UpdateRecommendation(ctx, r); err != nil {
		return VoteChange{}, nil, err
	}
	return change, r, nil
}

// SetVoteNote sets the recipient's comment. Blank text leaves the record as is.
func (l *Ledger) SetVoteNote(ctx context.Context, id, actor, text string) (*models.Recommendation, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > MaxVoteNoteLength {
		// NotFound and Forbidden take precedence over length.
		if _, err := l.Get(ctx, id, actor); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("vote note longer than %d characters: %w", MaxVoteNoteLength, models.ErrNoteTooLong)
	}

	return l.update(ctx, id, func(r *models.Recommendation) (bool, error) {
		if r.RecipientID != actor {
			return false, fmt.Errorf("only the recipient may comment on %s: %w", id, models.ErrForbidden)
		}
		if text == "" {
			return false, nil
		}
		r.VoteNote = &text
		return true, nil
	})
}

// MarkViewed records that the recipient opened the recommendation.
func (l *Ledger) MarkViewed(ctx context.Context, id, actor string) (*models.Recommendation, error) {
	return l.update(ctx, id, func(r *models.Recommendation) (bool, error) {
		if r.RecipientID != actor {
			return false, fmt.Errorf("only the recipient may mark %s viewed: %w", id, models.ErrForbidden)
		}
		if r.Viewed {
			return false, nil
		}
		r.Viewed = true
		return true, nil
	})
}

// Archive hides the recommendation from actor's lists. The record itself
// and the other participant's view are unchanged.
func (l *Ledger) Archive(ctx context.Context, id, actor string) (*models.Recommendation, error) {
	return l.update(ctx, id, func(r *models.Recommendation) (bool, error) {
		if !r.IsParticipant(actor) {
			return false, fmt.Errorf("%s is not part of %s: %w", actor, id, models.ErrForbidden)
		}
		if r.IsArchivedBy(actor) {
			return false, nil
		}
		r.ArchivedBy = append(r.ArchivedBy, actor)
		return true, nil
	})
}

// Unarchive reverses Archive.
func (l *Ledger) Unarchive(ctx context.Context, id, actor string) (*models.Recommendation, error) {
	return l.update(ctx, id, func(r *models.Recommendation) (bool, error) {
		if !r.IsParticipant(actor) {
			return false, fmt.Errorf("%s is not part of %s: %w", actor, id, models.ErrForbidden)
		}
		if !r.IsArchivedBy(actor) {
			return false, nil
		}
		kept := make(models.StringList, 0, len(r.ArchivedBy))
		for _, uid := range r.ArchivedBy {
			if uid != actor {
				kept = append(kept, uid)
			}
		}
		r.ArchivedBy = kept
		return true, nil
	})
}

// update loads id, lets mutate change it and writes it back when mutate
// reports a change.
func (l *Ledger) update(
	ctx context.Context, id string, mutate func(r *models.Recommendation) (bool, error),
) (*models.Recommendation, error) {
	var out *models.Recommendation
	err := l.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Recommendation(ctx, id)
		if err != nil {
			return err
		}
		changed, err := mutate(r)
		if err != nil {
			return err
		}
		if changed {
			if err := tx.UpdateRecommendation(ctx, r); err != nil {
				return err
			}
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a recommendation to one of its participants.
func (l *Ledger) Get(ctx context.Context, id, viewer string) (*models.Recommendation, error) {
	var out *models.Recommendation
	err := l.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.Recommendation(ctx, id)
		if err != nil {
			return err
		}
		if !r.IsParticipant(viewer) {
			return fmt.Errorf("%s is not part of %s: %w", viewer, id, models.ErrForbidden)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
