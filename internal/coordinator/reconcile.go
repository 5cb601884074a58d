package coordinator

import (
	"context"
	"fmt"
	"sync/atomic"

	"recky/backend/internal/relationship"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ReconcileReport summarizes one repair pass.
type ReconcileReport struct {
	Relationships    relationship.ReconcileReport `json:"relationships"`
	CountersChecked  int                          `json:"counters_checked"`
	CountersRepaired int                          `json:"counters_repaired"`
}

// Reconcile repairs asymmetric friend edges, then recounts every registered
// user's engagement counters from the ledger.
func (c *Coordinator) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	rel, err := c.relationships.Reconcile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile relationships: %w", err)
	}

	userIDs, err := c.users.UserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var (
		repaired atomic.Int64
		p        = pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(c.fanout)
	)
	for _, userID := range userIDs {
		p.Go(func(ctx context.Context) error {
			fixed, err := c.engagement.Recompute(ctx, userID)
			if err != nil {
				return err
			}
			if fixed {
				repaired.Add(1)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("failed to recompute counters: %w", err)
	}

	report := &ReconcileReport{
		Relationships:    rel,
		CountersChecked:  len(userIDs),
		CountersRepaired: int(repaired.Load()),
	}
	c.logger.Info("Reconciliation finished",
		zap.Int("pairsScanned", report.Relationships.Scanned),
		zap.Int("pairsRepaired", report.Relationships.Repaired),
		zap.Int("countersChecked", report.CountersChecked),
		zap.Int("countersRepaired", report.CountersRepaired))
	return report, nil
}
