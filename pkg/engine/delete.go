package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeleteApproval cascades through the child tables before removing the
// parent row. The cascade is best-effort, not a transaction: a failed child
// delete is logged and does not block deletion of the approval itself.
func (e *Engine) DeleteApproval(ctx context.Context, approvalID uuid.UUID) error {
	if _, err := e.store.GetApproval(ctx, approvalID); err != nil {
		return wrapStoreErr(err)
	}

	if err := e.store.DeleteComments(ctx, approvalID); err != nil {
		e.logger.Warn("failed to delete approval comments",
			zap.String("approval_id", approvalID.String()),
			zap.Error(err))
	}
	if err := e.store.DeleteItems(ctx, approvalID); err != nil {
		e.logger.Warn("failed to delete approval items",
			zap.String("approval_id", approvalID.String()),
			zap.Error(err))
	}
	if err := e.store.DeleteAssignees(ctx, approvalID); err != nil {
		e.logger.Warn("failed to delete approval assignees",
			zap.String("approval_id", approvalID.String()),
			zap.Error(err))
	}

	deleted, err := e.store.DeleteApproval(ctx, approvalID)
	if err != nil {
		return wrapStoreErr(err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
