package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/model"
	"github.com/clientflow/clientflow/pkg/tracker"
)

func newTestEngine(store *fakeStore, opts ...Option) (*Engine, *fakeNotifier, *fakeMailer, *fakeTracker) {
	notifier := &fakeNotifier{}
	mailer := &fakeMailer{}
	trk := &fakeTracker{result: tracker.Result{Synced: true}}
	eng := NewEngine(store, notifier, mailer, trk, zap.NewNop(), opts...)
	return eng, notifier, mailer, trk
}

func pendingApproval(store *fakeStore, itemStatuses ...model.ItemStatus) *model.Approval {
	approval := &model.Approval{
		ID:       uuid.New(),
		ClientID: uuid.New(),
		Title:    "Homepage redesign",
		Status:   model.ApprovalPending,
	}
	items := make([]model.ApprovalItem, 0, len(itemStatuses))
	for _, status := range itemStatuses {
		items = append(items, model.ApprovalItem{
			ID:         uuid.New(),
			ApprovalID: approval.ID,
			Name:       "asset",
			Status:     status,
		})
	}
	store.addApproval(approval, items...)
	return approval
}

func addAssignee(store *fakeStore, approvalID uuid.UUID, userID uuid.UUID) {
	store.assignees[approvalID] = append(store.assignees[approvalID], model.ApprovalAssignee{
		ID:         uuid.New(),
		ApprovalID: approvalID,
		UserID:     userID,
	})
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []model.ItemStatus
		want     model.ApprovalStatus
	}{
		{"zero items stays pending", nil, model.ApprovalPending},
		{"single approved", []model.ItemStatus{model.ItemApproved}, model.ApprovalApproved},
		{"all approved", []model.ItemStatus{model.ItemApproved, model.ItemApproved, model.ItemApproved}, model.ApprovalApproved},
		{"one pending blocks", []model.ItemStatus{model.ItemApproved, model.ItemPending}, model.ApprovalPending},
		{"rejected counts as not approved", []model.ItemStatus{model.ItemApproved, model.ItemRejected}, model.ApprovalPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]model.ApprovalItem, 0, len(tt.statuses))
			for _, status := range tt.statuses {
				items = append(items, model.ApprovalItem{Status: status})
			}
			if got := AggregateStatus(items); got != tt.want {
				t.Fatalf("AggregateStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecomputeApproves(t *testing.T) {
	store := newFakeStore()
	eng, notifier, _, _ := newTestEngine(store)

	approval := pendingApproval(store, model.ItemApproved, model.ItemApproved)
	addAssignee(store, approval.ID, uuid.New())

	previous, next, err := eng.Recompute(context.Background(), approval.ID, nil)
	if err != nil {
		t.Fatalf("Recompute() error: %v", err)
	}
	if previous != model.ApprovalPending {
		t.Fatalf("expected previous pending, got %q", previous)
	}
	if next != model.ApprovalApproved {
		t.Fatalf("expected next approved, got %q", next)
	}
	if store.approvals[approval.ID].Status != model.ApprovalApproved {
		t.Fatalf("expected stored status approved, got %q", store.approvals[approval.ID].Status)
	}
	if notifier.callCount() != 1 {
		t.Fatalf("expected 1 notification call, got %d", notifier.callCount())
	}
	if len(store.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(store.events))
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	store := newFakeStore()
	eng, notifier, mailer, _ := newTestEngine(store)

	approval := pendingApproval(store, model.ItemApproved)
	addAssignee(store, approval.ID, uuid.New())

	for i := 0; i < 2; i++ {
		_, next, err := eng.Recompute(context.Background(), approval.ID, nil)
		if err != nil {
			t.Fatalf("Recompute() #%d error: %v", i+1, err)
		}
		if next != model.ApprovalApproved {
			t.Fatalf("Recompute() #%d = %q, want approved", i+1, next)
		}
	}

	if notifier.callCount() != 1 {
		t.Fatalf("expected fanout to fire once, got %d notification calls", notifier.callCount())
	}
	if mailer.callCount() != 1 {
		t.Fatalf("expected fanout to fire once, got %d email calls", mailer.callCount())
	}
}

func TestRecomputeZeroItemsStaysPending(t *testing.T) {
	store := newFakeStore()
	eng, notifier, _, _ := newTestEngine(store)

	approval := pendingApproval(store)
	addAssignee(store, approval.ID, uuid.New())

	_, next, err := eng.Recompute(context.Background(), approval.ID, nil)
	if err != nil {
		t.Fatalf("Recompute() error: %v", err)
	}
	if next != model.ApprovalPending {
		t.Fatalf("expected pending for zero items, got %q", next)
	}
	if notifier.callCount() != 0 {
		t.Fatalf("expected no notifications, got %d", notifier.callCount())
	}
}

func TestRecomputeUnknownApproval(t *testing.T) {
	store := newFakeStore()
	eng, _, _, _ := newTestEngine(store)

	_, _, err := eng.Recompute(context.Background(), uuid.New(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecomputeStoreFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	eng, notifier, _, _ := newTestEngine(store)

	approval := pendingApproval(store, model.ItemApproved)
	store.failListItems = true

	_, _, err := eng.Recompute(context.Background(), approval.ID, nil)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if notifier.callCount() != 0 {
		t.Fatalf("store failure must not be treated as a transition")
	}
}

func TestSetItemStatusReconcilesParent(t *testing.T) {
	store := newFakeStore()
	eng, notifier, _, _ := newTestEngine(store)

	actor := uuid.New()
	watcher := uuid.New()
	approval := pendingApproval(store, model.ItemApproved, model.ItemPending)
	addAssignee(store, approval.ID, actor)
	addAssignee(store, approval.ID, watcher)

	itemID := store.items[approval.ID][1].ID
	status, err := eng.SetItemStatus(context.Background(), approval.ID, itemID, model.ItemApproved, &actor)
	if err != nil {
		t.Fatalf("SetItemStatus() error: %v", err)
	}
	if status != model.ApprovalApproved {
		t.Fatalf("expected approved, got %q", status)
	}

	if notifier.callCount() != 1 {
		t.Fatalf("expected 1 notification call, got %d", notifier.callCount())
	}
	call := notifier.calls[0]
	if len(call.userIDs) != 1 || call.userIDs[0] != watcher {
		t.Fatalf("expected fanout to target only the watcher, got %v", call.userIDs)
	}
}

func TestSetItemStatusUnknownItem(t *testing.T) {
	store := newFakeStore()
	eng, _, _, _ := newTestEngine(store)

	approval := pendingApproval(store, model.ItemPending)
	_, err := eng.SetItemStatus(context.Background(), approval.ID, uuid.New(), model.ItemApproved, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
