package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationApprovalApproved = "approval_approved"
)

// NotificationRecord is an at-least-once in-app delivery record. A separate
// real-time collaborator consumes these; the engine only creates them.
type NotificationRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Type      string    `gorm:"type:varchar(50);not null"`
	Data      JSONB     `gorm:"type:jsonb;default:'{}'"`
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime;not null"`
}

func (NotificationRecord) TableName() string {
	return "notification_records"
}
