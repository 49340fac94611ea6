package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/metrics"
	"github.com/clientflow/clientflow/pkg/model"
	"github.com/clientflow/clientflow/pkg/tracker"
)

// fallbackClientName is used when the client has neither a business nor a
// contact name. The emitted clientName field must never be empty.
const fallbackClientName = "Client"

// dispatchApproved runs the two downstream edges of an approved transition:
// tracker sync and notification fanout. Both are best-effort; the status
// write that got us here is already committed and is never rolled back on
// their account.
func (e *Engine) dispatchApproved(ctx context.Context, approval *model.Approval, actorID *uuid.UUID) {
	e.syncTracker(ctx, approval, tracker.StateApproved)
	e.notifyApproved(ctx, approval, actorID)
}

func (e *Engine) syncTracker(ctx context.Context, approval *model.Approval, state tracker.State) {
	if e.tracker == nil {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	result := e.tracker.Sync(callCtx, approval.ExternalTaskID, state)
	switch {
	case result.Skipped, result.Disabled:
		metrics.TrackerSyncs.WithLabelValues("skipped").Inc()
	case result.Err != nil:
		metrics.TrackerSyncs.WithLabelValues("error").Inc()
		e.logger.Warn("tracker sync failed",
			zap.String("approval_id", approval.ID.String()),
			zap.String("external_task_id", approval.ExternalTaskID),
			zap.Error(result.Err))
	case !result.Synced:
		metrics.TrackerSyncs.WithLabelValues("rejected").Inc()
		e.logger.Warn("tracker rejected status update",
			zap.String("approval_id", approval.ID.String()),
			zap.String("external_task_id", approval.ExternalTaskID),
			zap.Int("status_code", result.StatusCode),
			zap.String("body", result.Body))
	default:
		metrics.TrackerSyncs.WithLabelValues("synced").Inc()
	}
}

// notifyApproved resolves the recipient set and emits through both channels.
// The two emissions run independently; one channel's latency or failure
// cannot delay or cancel the other, and neither failure reaches the caller.
func (e *Engine) notifyApproved(ctx context.Context, approval *model.Approval, actorID *uuid.UUID) {
	recipients, err := e.resolveRecipients(ctx, approval.ID, actorID)
	if err != nil {
		e.logger.Warn("failed to resolve notification recipients",
			zap.String("approval_id", approval.ID.String()),
			zap.Error(err))
		return
	}
	if len(recipients) == 0 {
		return
	}

	clientName := e.clientDisplayName(ctx, approval)

	data := model.JSONB{
		"approvalId": approval.ID.String(),
		"title":      approval.Title,
		"clientName": clientName,
	}
	if actorID != nil {
		data["actorId"] = actorID.String()
	} else {
		data["actorId"] = nil
	}

	recipientIDs := make([]string, 0, len(recipients))
	for _, id := range recipients {
		recipientIDs = append(recipientIDs, id.String())
	}
	emailPayload := map[string]interface{}{
		"recipients":    recipientIDs,
		"clientName":    clientName,
		"approvalTitle": approval.Title,
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
		if err := e.notifier.CreateNotifications(callCtx, recipients, model.NotificationApprovalApproved, data); err != nil {
			metrics.FanoutFailures.WithLabelValues("in_app").Inc()
			e.logger.Warn("failed to create in-app notifications",
				zap.String("approval_id", approval.ID.String()),
				zap.Error(err))
			return
		}
		metrics.NotificationsCreated.Add(float64(len(recipients)))
	}()

	go func() {
		defer wg.Done()
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
		if err := e.mailer.SendEvent(callCtx, model.NotificationApprovalApproved, emailPayload); err != nil {
			metrics.FanoutFailures.WithLabelValues("email").Inc()
			e.logger.Warn("failed to send email event",
				zap.String("approval_id", approval.ID.String()),
				zap.Error(err))
		}
	}()

	wg.Wait()
}

// resolveRecipients returns the assignees deduplicated by user id with the
// acting user removed.
func (e *Engine) resolveRecipients(ctx context.Context, approvalID uuid.UUID, actorID *uuid.UUID) ([]uuid.UUID, error) {
	assignees, err := e.store.ListAssignees(ctx, approvalID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(assignees))
	recipients := make([]uuid.UUID, 0, len(assignees))
	for _, assignee := range assignees {
		if actorID != nil && assignee.UserID == *actorID {
			continue
		}
		if _, ok := seen[assignee.UserID]; ok {
			continue
		}
		seen[assignee.UserID] = struct{}{}
		recipients = append(recipients, assignee.UserID)
	}
	return recipients, nil
}

func (e *Engine) clientDisplayName(ctx context.Context, approval *model.Approval) string {
	client := approval.Client
	if client == nil {
		loaded, err := e.store.GetClient(ctx, approval.ClientID)
		if err != nil {
			e.logger.Warn("failed to load client for display name",
				zap.String("approval_id", approval.ID.String()),
				zap.Error(err))
			return fallbackClientName
		}
		client = loaded
	}

	if client.BusinessName != "" {
		return client.BusinessName
	}
	if client.ContactName != "" {
		return client.ContactName
	}
	return fallbackClientName
}
