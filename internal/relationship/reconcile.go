package relationship

import (
	"context"
	"fmt"

	"recky/backend/internal/models"
	"recky/backend/internal/store"

	"go.uber.org/zap"
)

// ReconcileReport summarizes a reconciliation pass.
type ReconcileReport struct {
	Scanned  int `json:"pairs_scanned"`
	Repaired int `json:"pairs_repaired"`
}

// Side is one user's view of a peer; Present is false when the peer is in
// none of the user's sets.
type Side struct {
	State   models.EdgeState
	Present bool
}

func sideOf(r *models.Relationships, peer string) Side {
	state, ok := r.State(peer)
	return Side{State: state, Present: ok}
}

// consistent reports whether two views of the same pair mirror each other.
func consistent(a, b Side) bool {
	if !a.Present || !b.Present {
		return a.Present == b.Present
	}
	return a.State.Mirror() == b.State
}

// Resolve picks the repaired states for an asymmetric pair. Friendship only
// arises from an accepted request, so a friend edge on either side wins. A
// lone outgoing request is completed, a lone incoming one has no sender and
// is dropped. Two outgoing requests become a friendship, two incoming ones
// are dropped.
func Resolve(a, b Side) (Side, Side) {
	none := Side{}
	friend := Side{State: models.EdgeFriend, Present: true}
	outgoing := Side{State: models.EdgeOutgoing, Present: true}
	incoming := Side{State: models.EdgeIncoming, Present: true}

	switch {
	case consistent(a, b):
		return a, b
	case a.State == models.EdgeFriend && a.Present, b.State == models.EdgeFriend && b.Present:
		return friend, friend
	case a.Present && b.Present && a.State == models.EdgeOutgoing && b.State == models.EdgeOutgoing:
		return friend, friend
	case a.Present && a.State == models.EdgeOutgoing && !b.Present:
		return outgoing, incoming
	case b.Present && b.State == models.EdgeOutgoing && !a.Present:
		return incoming, outgoing
	default:
		return none, none
	}
}

type pair struct{ a, b string }

func pairOf(x, y string) pair {
	if x < y {
		return pair{x, y}
	}
	return pair{y, x}
}

// Reconcile scans every relationship record for pairs whose two sides
// disagree and repairs each in its own unit of work. Self edges are removed.
func (s *Service) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	var all []*models.Relationships
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		all, err = tx.AllRelationships(ctx)
		return err
	})
	if err != nil {
		return report, fmt.Errorf("failed to load relationships: %w", err)
	}

	byUser := make(map[string]*models.Relationships, len(all))
	for _, r := range all {
		byUser[r.UserID] = r
	}

	seen := make(map[pair]struct{})
	for _, r := range all {
		for peer := range r.Edges {
			p := pairOf(r.UserID, peer)
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			report.Scanned++

			if p.a != p.b {
				left := sideOf(r, peer)
				right := Side{}
				if other, ok := byUser[peer]; ok {
					right = sideOf(other, r.UserID)
				}
				if consistent(left, right) {
					continue
				}
			}

			repaired, err := s.repairPair(ctx, p)
			if err != nil {
				return report, fmt.Errorf("failed to repair %s/%s: %w", p.a, p.b, err)
			}
			if repaired {
				report.Repaired++
			}
		}
	}

	if report.Repaired > 0 {
		s.logger.Warn("Repaired asymmetric relationships",
			zap.Int("scanned", report.Scanned),
			zap.Int("repaired", report.Repaired))
	}
	return report, nil
}

// repairPair re-reads both records so it acts on committed state, not on
// the scan snapshot.
func (s *Service) repairPair(ctx context.Context, p pair) (bool, error) {
	var repaired bool
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		repaired = false
		left, err := tx.Relationships(ctx, p.a)
		if err != nil {
			return err
		}

		if p.a == p.b {
			if _, ok := left.State(p.a); !ok {
				return nil
			}
			left.Remove(p.a)
			repaired = true
			return tx.PutRelationships(ctx, left)
		}

		right, err := tx.Relationships(ctx, p.b)
		if err != nil {
			return err
		}
		a, b := sideOf(left, p.b), sideOf(right, p.a)
		if consistent(a, b) {
			return nil
		}

		na, nb := Resolve(a, b)
		apply(left, p.b, na)
		apply(right, p.a, nb)
		repaired = true

		s.logger.Info("Repairing relationship pair",
			zap.String("a", p.a),
			zap.String("b", p.b),
			zap.String("aState", string(a.State)),
			zap.String("bState", string(b.State)),
			zap.String("aResolved", string(na.State)),
			zap.String("bResolved", string(nb.State)))
		return putBoth(ctx, tx, left, right)
	})
	return repaired, err
}

func apply(r *models.Relationships, peer string, s Side) {
	if !s.Present {
		r.Remove(peer)
		return
	}
	r.Set(peer, s.State)
}
