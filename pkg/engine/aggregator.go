package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/metrics"
	"github.com/clientflow/clientflow/pkg/model"
)

// AggregateStatus derives an approval's status from its items. Only a
// non-empty, fully approved item set yields approved; an approval with zero
// items stays pending so nothing auto-approves by vacuous truth.
func AggregateStatus(items []model.ApprovalItem) model.ApprovalStatus {
	if len(items) == 0 {
		return model.ApprovalPending
	}
	for _, item := range items {
		if item.Status != model.ItemApproved {
			return model.ApprovalPending
		}
	}
	return model.ApprovalApproved
}

// Recompute reloads the approval's items, derives the aggregate status and
// writes it back conditionally. Downstream effects (tracker sync, fanout)
// fire only in the branch that actually performed the pending-to-approved
// write, so overlapping recomputes for the same approval cannot double-fire.
// Returns the stored status before the recompute and the derived one.
func (e *Engine) Recompute(ctx context.Context, approvalID uuid.UUID, actorID *uuid.UUID) (model.ApprovalStatus, model.ApprovalStatus, error) {
	approval, err := e.store.GetApproval(ctx, approvalID)
	if err != nil {
		return "", "", wrapStoreErr(err)
	}

	items, err := e.store.ListItems(ctx, approvalID)
	if err != nil {
		return "", "", wrapStoreErr(err)
	}

	previous := approval.Status
	next := AggregateStatus(items)
	metrics.RecomputesTotal.WithLabelValues(string(next)).Inc()

	if next == model.ApprovalApproved {
		event := approvalApprovedEvent(approval, actorID, "recompute")
		transitioned, err := e.store.MarkApproved(ctx, approvalID, event)
		if err != nil {
			return previous, next, wrapStoreErr(err)
		}
		if transitioned {
			metrics.TransitionsTotal.Inc()
			e.dispatchApproved(ctx, approval, actorID)
			e.recordActivity(ctx, approvalID, "approval_approved", "all items approved", actorID)
		}
		return previous, next, nil
	}

	if _, err := e.store.MarkPending(ctx, approvalID); err != nil {
		return previous, next, wrapStoreErr(err)
	}
	return previous, next, nil
}

// SetItemStatus updates one item and reconciles the parent, the portal's
// approve-asset action. The recompute runs with the acting user so they are
// excluded from their own notification.
func (e *Engine) SetItemStatus(ctx context.Context, approvalID, itemID uuid.UUID, status model.ItemStatus, actorID *uuid.UUID) (model.ApprovalStatus, error) {
	updated, err := e.store.UpdateItemStatus(ctx, approvalID, itemID, status)
	if err != nil {
		return "", wrapStoreErr(err)
	}
	if !updated {
		return "", ErrNotFound
	}

	e.logger.Debug("item status updated",
		zap.String("approval_id", approvalID.String()),
		zap.String("item_id", itemID.String()),
		zap.String("status", string(status)))

	_, next, err := e.Recompute(ctx, approvalID, actorID)
	return next, err
}

func approvalApprovedEvent(approval *model.Approval, actorID *uuid.UUID, source string) *model.ApprovalEvent {
	payload := model.JSONB{
		"approval_id": approval.ID.String(),
		"status":      string(model.ApprovalApproved),
		"source":      source,
	}
	if actorID != nil {
		payload["actor_id"] = actorID.String()
	}
	return &model.ApprovalEvent{
		EventID:   uuid.New(),
		EventType: "approval_status_changed",
		Payload:   payload,
		Status:    model.OutboxStatusPending,
	}
}
