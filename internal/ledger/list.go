package ledger

import (
	"context"
	"fmt"
	"strings"

	"recky/backend/internal/models"
	"recky/backend/internal/store"

	"go.uber.org/zap"
)

// Direction selects sent, received or both.
type Direction string

const (
	DirectionAll      Direction = "all"
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// ParseDirection accepts the query form of a direction; empty means all.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DirectionAll, nil
	case DirectionAll, DirectionSent, DirectionReceived:
		return d, nil
	default:
		return "", fmt.Errorf("unknown direction %q: %w", s, models.ErrInvalidTarget)
	}
}

// Filter narrows a List call. Zero values match everything except
// recommendations the user archived.
type Filter struct {
	Direction Direction
	// Tag matches one tag exactly, ignoring case.
	Tag string
	// Counterpart matches a substring of the other participant's id or
	// display name, ignoring case.
	Counterpart string
	// Title matches a substring of the title, ignoring case.
	Title           string
	IncludeArchived bool
	UnviewedOnly    bool
}

// List returns user's recommendations matching f, newest first.
func (l *Ledger) List(ctx context.Context, userID string, f Filter) ([]*models.Recommendation, error) {
	var recs []*models.Recommendation
	err := l.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		recs, err = tx.RecommendationsFor(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations of %s: %w", userID, err)
	}

	var names map[string]string
	counterpart := strings.ToLower(strings.TrimSpace(f.Counterpart))
	if counterpart != "" {
		names = l.counterpartNames(ctx, userID, recs)
	}
	tag := strings.TrimSpace(f.Tag)
	title := strings.ToLower(strings.TrimSpace(f.Title))

	out := make([]*models.Recommendation, 0, len(recs))
	for _, r := range recs {
		switch f.Direction {
		case DirectionSent:
			if r.SenderID != userID {
				continue
			}
		case DirectionReceived:
			if r.RecipientID != userID {
				continue
			}
		}
		if !f.IncludeArchived && r.IsArchivedBy(userID) {
			continue
		}
		if f.UnviewedOnly && (r.RecipientID != userID || r.Viewed) {
			continue
		}
		if tag != "" && !hasTag(r, tag) {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(r.Title), title) {
			continue
		}
		if counterpart != "" {
			other := r.Counterpart(userID)
			if !strings.Contains(strings.ToLower(other), counterpart) &&
				!strings.Contains(strings.ToLower(names[other]), counterpart) {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func hasTag(r *models.Recommendation, tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (l *Ledger) counterpartNames(ctx context.Context, userID string, recs []*models.Recommendation) map[string]string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, r := range recs {
		other := r.Counterpart(userID)
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}

	names, err := l.users.Names(ctx, ids)
	if err != nil {
		l.logger.Warn("Failed to resolve counterpart names, matching on ids only",
			zap.String("userID", userID),
			zap.Error(err))
		return map[string]string{}
	}
	return names
}
