package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clientflow/clientflow/pkg/model"
	storepkg "github.com/clientflow/clientflow/pkg/store"
	"github.com/clientflow/clientflow/pkg/tracker"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	// ErrStoreUnavailable wraps failures of the authoritative datastore.
	// These are fatal to the calling operation and must never be read as
	// "no transition".
	ErrStoreUnavailable = errors.New("approval store unavailable")
)

// Store is the approval store surface the engine drives. Conditional writes
// are keyed by approval id; the rows-affected result of MarkApproved is the
// transition signal.
type Store interface {
	GetApproval(ctx context.Context, id uuid.UUID) (*model.Approval, error)
	ListItems(ctx context.Context, approvalID uuid.UUID) ([]model.ApprovalItem, error)
	UpdateItemStatus(ctx context.Context, approvalID, itemID uuid.UUID, status model.ItemStatus) (bool, error)
	ApproveAllItems(ctx context.Context, approvalID uuid.UUID) error
	MarkApproved(ctx context.Context, id uuid.UUID, event *model.ApprovalEvent) (bool, error)
	MarkPending(ctx context.Context, id uuid.UUID) (bool, error)
	ForceApprove(ctx context.Context, id uuid.UUID, event *model.ApprovalEvent) error
	ListAssignees(ctx context.Context, approvalID uuid.UUID) ([]model.ApprovalAssignee, error)
	GetClient(ctx context.Context, clientID uuid.UUID) (*model.Client, error)
	ListDueForAutoApproval(ctx context.Context, now time.Time) ([]model.Approval, error)
	DeleteComments(ctx context.Context, approvalID uuid.UUID) error
	DeleteItems(ctx context.Context, approvalID uuid.UUID) error
	DeleteAssignees(ctx context.Context, approvalID uuid.UUID) error
	DeleteApproval(ctx context.Context, id uuid.UUID) (bool, error)
	GetComment(ctx context.Context, id uuid.UUID) (*model.ApprovalComment, error)
	UpdateComment(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteComment(ctx context.Context, id uuid.UUID) error
}

// Notifier is the in-app notification channel.
type Notifier interface {
	CreateNotifications(ctx context.Context, userIDs []uuid.UUID, eventType string, data model.JSONB) error
}

// EmailSender is the outbound email/webhook bridge.
type EmailSender interface {
	SendEvent(ctx context.Context, eventType string, payload map[string]interface{}) error
}

// Tracker pushes aggregate state onto the external task tracker.
type Tracker interface {
	Sync(ctx context.Context, externalTaskID string, state tracker.State) tracker.Result
}

// Engine reconciles approval status from item statuses and fans out the
// resulting transition events. All collaborators are injected; the engine
// holds no background goroutines of its own.
type Engine struct {
	store    Store
	notifier Notifier
	mailer   EmailSender
	tracker  Tracker
	activity storepkg.ActivityStore
	logger   *zap.Logger

	now         func() time.Time
	callTimeout time.Duration
}

type Option func(*Engine)

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithCallTimeout bounds each best-effort downstream call.
func WithCallTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.callTimeout = timeout
	}
}

// WithActivityStore attaches the optional activity feed.
func WithActivityStore(activity storepkg.ActivityStore) Option {
	return func(e *Engine) {
		e.activity = activity
	}
}

func NewEngine(store Store, notifier Notifier, mailer EmailSender, trk Tracker, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		notifier:    notifier,
		mailer:      mailer,
		tracker:     trk,
		logger:      logger,
		now:         time.Now,
		callTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// wrapStoreErr maps datastore failures onto the engine's error taxonomy.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func (e *Engine) recordActivity(ctx context.Context, approvalID uuid.UUID, kind, message string, actorID *uuid.UUID) {
	if e.activity == nil {
		return
	}
	entry := &model.ActivityEntry{
		ID:         uuid.New(),
		ApprovalID: approvalID,
		Kind:       kind,
		Message:    message,
		ActorID:    actorID,
	}
	if err := e.activity.Record(ctx, entry); err != nil {
		e.logger.Warn("failed to record activity",
			zap.String("approval_id", approvalID.String()),
			zap.String("kind", kind),
			zap.Error(err))
	}
}
