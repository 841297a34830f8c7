// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/circlehub/internal/app/system/reconcile"
	"go.uber.org/zap"
)

// MemberReconciler is the part of reconcile.Engine the job needs.
type MemberReconciler interface {
	ReconcileAll(ctx context.Context) (reconcile.Result, error)
}

// ReconcileMembersJob creates a job that repairs member copies that drifted
// from their profiles. A failed run is simply retried at the next tick.
func ReconcileMembersJob(r MemberReconciler, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "reconcile-members",
		Interval: interval,
		Run: func(ctx context.Context) error {
			res, err := r.ReconcileAll(ctx)
			if err != nil {
				return err
			}
			if res.IssuesFixed > 0 {
				logger.Info("scheduled reconciliation repaired members",
					zap.Int("issues_fixed", res.IssuesFixed),
					zap.Int("communities_fixed", res.CommunitiesFixed))
			}
			return nil
		},
	}
}
