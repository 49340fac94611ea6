package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UpdateComment applies the comment mutation rules: content changes only for
// the original author, the resolved flag for any actor, both independently
// optional. Resolving a comment triggers a recompute of the owning approval;
// the comment write is already committed at that point, so a recompute
// failure is logged rather than failing the operation.
func (e *Engine) UpdateComment(ctx context.Context, commentID uuid.UUID, content *string, resolved *bool, actorID uuid.UUID) error {
	comment, err := e.store.GetComment(ctx, commentID)
	if err != nil {
		return wrapStoreErr(err)
	}

	updates := map[string]interface{}{}
	if content != nil {
		if comment.AuthorID != actorID {
			return ErrForbidden
		}
		updates["content"] = *content
	}

	nowResolved := false
	if resolved != nil {
		updates["resolved"] = *resolved
		nowResolved = *resolved && !comment.Resolved
	}

	if len(updates) == 0 {
		return nil
	}

	if err := e.store.UpdateComment(ctx, commentID, updates); err != nil {
		return wrapStoreErr(err)
	}

	if nowResolved {
		if _, _, err := e.Recompute(ctx, comment.ApprovalID, &actorID); err != nil {
			e.logger.Warn("recompute after comment resolution failed",
				zap.String("approval_id", comment.ApprovalID.String()),
				zap.String("comment_id", commentID.String()),
				zap.Error(err))
		}
	}
	return nil
}

func (e *Engine) DeleteComment(ctx context.Context, commentID uuid.UUID, actorID uuid.UUID) error {
	comment, err := e.store.GetComment(ctx, commentID)
	if err != nil {
		return wrapStoreErr(err)
	}
	if comment.AuthorID != actorID {
		return ErrForbidden
	}
	if err := e.store.DeleteComment(ctx, commentID); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}
