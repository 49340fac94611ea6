package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/metrics"
	"github.com/clientflow/clientflow/pkg/model"
)

// AutoApproveSweep drives every due approval through the approve-and-notify
// path. Each approval is an independent unit of work: one failure is logged
// and the batch continues. Returns the number of approvals processed.
//
// The sweep does not recompute from items. Its query already guarantees the
// previous status was pending, so the transition is true by construction and
// the terminal state is assigned with ForceApprove regardless of item-level
// nuance (including the zero-item case the aggregator keeps pending).
func (e *Engine) AutoApproveSweep(ctx context.Context) (int, error) {
	due, err := e.store.ListDueForAutoApproval(ctx, e.now())
	if err != nil {
		return 0, wrapStoreErr(err)
	}

	processed := 0
	for i := range due {
		approval := &due[i]
		if err := e.autoApprove(ctx, approval); err != nil {
			metrics.SweepErrors.Inc()
			e.logger.Error("failed to auto-approve",
				zap.String("approval_id", approval.ID.String()),
				zap.Error(err))
			continue
		}
		processed++
		metrics.SweepProcessed.Inc()
	}

	if processed > 0 || len(due) > 0 {
		e.logger.Info("auto-approve sweep finished",
			zap.Int("due", len(due)),
			zap.Int("processed", processed))
	}
	return processed, nil
}

func (e *Engine) autoApprove(ctx context.Context, approval *model.Approval) error {
	if err := e.store.ApproveAllItems(ctx, approval.ID); err != nil {
		return wrapStoreErr(err)
	}

	event := approvalApprovedEvent(approval, nil, "auto_approve")
	if err := e.store.ForceApprove(ctx, approval.ID, event); err != nil {
		return wrapStoreErr(err)
	}

	metrics.TransitionsTotal.Inc()
	e.dispatchApproved(ctx, approval, nil)
	e.recordActivity(ctx, approval.ID, "approval_auto_approved", "auto-approval deadline reached", nil)
	return nil
}
