package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/eventbus"
	"github.com/clientflow/clientflow/pkg/model"
)

// RecordStore persists in-app notification records.
type RecordStore interface {
	CreateBatch(ctx context.Context, records []*model.NotificationRecord) error
}

// Service is the in-app notification channel: it writes one record per
// recipient and then announces the batch on the event bus for the real-time
// delivery collaborator. The bus publish is best-effort; the records are the
// at-least-once source of truth.
type Service struct {
	store  RecordStore
	bus    *eventbus.Bus
	logger *zap.Logger
}

func NewService(store RecordStore, bus *eventbus.Bus, logger *zap.Logger) *Service {
	return &Service{store: store, bus: bus, logger: logger}
}

func (s *Service) CreateNotifications(ctx context.Context, userIDs []uuid.UUID, eventType string, data model.JSONB) error {
	if len(userIDs) == 0 {
		return nil
	}

	records := make([]*model.NotificationRecord, 0, len(userIDs))
	for _, userID := range userIDs {
		records = append(records, &model.NotificationRecord{
			ID:     uuid.New(),
			UserID: userID,
			Type:   eventType,
			Data:   data,
		})
	}

	if err := s.store.CreateBatch(ctx, records); err != nil {
		return err
	}

	s.publish(ctx, userIDs, eventType, data)
	return nil
}

func (s *Service) publish(ctx context.Context, userIDs []uuid.UUID, eventType string, data model.JSONB) {
	if s.bus == nil {
		return
	}

	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}

	payload := eventbus.NotificationEvent{
		UserIDs: ids,
		Type:    eventType,
		Data:    map[string]interface{}(data),
	}
	if approvalID, ok := data["approvalId"].(string); ok {
		payload.ApprovalID = approvalID
	}

	event, err := eventbus.NewEvent(eventType, payload)
	if err != nil {
		s.logger.Warn("failed to build notification event", zap.Error(err))
		return
	}
	if err := s.bus.Publish(ctx, eventbus.ChannelNotification, event); err != nil {
		s.logger.Warn("failed to publish notification event", zap.Error(err))
	}
}
