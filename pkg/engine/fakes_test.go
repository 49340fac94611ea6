package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clientflow/clientflow/pkg/model"
	"github.com/clientflow/clientflow/pkg/tracker"
)

var errBoom = errors.New("boom")

type fakeStore struct {
	mu sync.Mutex

	approvals map[uuid.UUID]*model.Approval
	items     map[uuid.UUID][]model.ApprovalItem
	assignees map[uuid.UUID][]model.ApprovalAssignee
	clients   map[uuid.UUID]*model.Client
	comments  map[uuid.UUID]*model.ApprovalComment
	events    []*model.ApprovalEvent

	failListItems     bool
	failListAssignees bool
	failDeleteItems   bool
	failForceApprove  map[uuid.UUID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		approvals:        make(map[uuid.UUID]*model.Approval),
		items:            make(map[uuid.UUID][]model.ApprovalItem),
		assignees:        make(map[uuid.UUID][]model.ApprovalAssignee),
		clients:          make(map[uuid.UUID]*model.Client),
		comments:         make(map[uuid.UUID]*model.ApprovalComment),
		failForceApprove: make(map[uuid.UUID]bool),
	}
}

func (s *fakeStore) addApproval(approval *model.Approval, items ...model.ApprovalItem) {
	s.approvals[approval.ID] = approval
	s.items[approval.ID] = items
}

func (s *fakeStore) GetApproval(ctx context.Context, id uuid.UUID) (*model.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	approval, ok := s.approvals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *approval
	return &copied, nil
}

func (s *fakeStore) ListItems(ctx context.Context, approvalID uuid.UUID) ([]model.ApprovalItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failListItems {
		return nil, errBoom
	}
	return s.items[approvalID], nil
}

func (s *fakeStore) UpdateItemStatus(ctx context.Context, approvalID, itemID uuid.UUID, status model.ItemStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[approvalID]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ApproveAllItems(ctx context.Context, approvalID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[approvalID]
	for i := range items {
		items[i].Status = model.ItemApproved
	}
	return nil
}

func (s *fakeStore) MarkApproved(ctx context.Context, id uuid.UUID, event *model.ApprovalEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	approval, ok := s.approvals[id]
	if !ok || approval.Status == model.ApprovalApproved {
		return false, nil
	}
	approval.Status = model.ApprovalApproved
	if event != nil {
		s.events = append(s.events, event)
	}
	return true, nil
}

func (s *fakeStore) MarkPending(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	approval, ok := s.approvals[id]
	if !ok || approval.Status == model.ApprovalPending {
		return false, nil
	}
	approval.Status = model.ApprovalPending
	return true, nil
}

func (s *fakeStore) ForceApprove(ctx context.Context, id uuid.UUID, event *model.ApprovalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failForceApprove[id] {
		return errBoom
	}
	approval, ok := s.approvals[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	approval.Status = model.ApprovalApproved
	if event != nil {
		s.events = append(s.events, event)
	}
	return nil
}

func (s *fakeStore) ListAssignees(ctx context.Context, approvalID uuid.UUID) ([]model.ApprovalAssignee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failListAssignees {
		return nil, errBoom
	}
	return s.assignees[approvalID], nil
}

func (s *fakeStore) GetClient(ctx context.Context, clientID uuid.UUID) (*model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[clientID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return client, nil
}

func (s *fakeStore) ListDueForAutoApproval(ctx context.Context, now time.Time) ([]model.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []model.Approval
	for _, approval := range s.approvals {
		if approval.Status != model.ApprovalPending || approval.AutoApproveAt == nil {
			continue
		}
		if approval.AutoApproveAt.After(now) {
			continue
		}
		due = append(due, *approval)
	}
	return due, nil
}

func (s *fakeStore) DeleteComments(ctx context.Context, approvalID uuid.UUID) error {
	return nil
}

func (s *fakeStore) DeleteItems(ctx context.Context, approvalID uuid.UUID) error {
	if s.failDeleteItems {
		return errBoom
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, approvalID)
	return nil
}

func (s *fakeStore) DeleteAssignees(ctx context.Context, approvalID uuid.UUID) error {
	return nil
}

func (s *fakeStore) DeleteApproval(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.approvals[id]; !ok {
		return false, nil
	}
	delete(s.approvals, id)
	return true, nil
}

func (s *fakeStore) GetComment(ctx context.Context, id uuid.UUID) (*model.ApprovalComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *comment
	return &copied, nil
}

func (s *fakeStore) UpdateComment(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if content, ok := updates["content"].(string); ok {
		comment.Content = content
	}
	if resolved, ok := updates["resolved"].(bool); ok {
		comment.Resolved = resolved
	}
	return nil
}

func (s *fakeStore) DeleteComment(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.comments, id)
	return nil
}

type notifyCall struct {
	userIDs   []uuid.UUID
	eventType string
	data      model.JSONB
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (n *fakeNotifier) CreateNotifications(ctx context.Context, userIDs []uuid.UUID, eventType string, data model.JSONB) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.calls = append(n.calls, notifyCall{userIDs: userIDs, eventType: eventType, data: data})
	return nil
}

func (n *fakeNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type emailCall struct {
	eventType string
	payload   map[string]interface{}
}

type fakeMailer struct {
	mu    sync.Mutex
	calls []emailCall
	err   error
}

func (m *fakeMailer) SendEvent(ctx context.Context, eventType string, payload map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, emailCall{eventType: eventType, payload: payload})
	return nil
}

func (m *fakeMailer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type trackerCall struct {
	taskID string
	state  tracker.State
}

type fakeTracker struct {
	mu     sync.Mutex
	calls  []trackerCall
	result tracker.Result
}

func (t *fakeTracker) Sync(ctx context.Context, externalTaskID string, state tracker.State) tracker.Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, trackerCall{taskID: externalTaskID, state: state})
	if externalTaskID == "" {
		return tracker.Result{Skipped: true}
	}
	return t.result
}
