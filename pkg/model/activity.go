package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityEntry is one line in an approval's activity feed.
type ActivityEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ApprovalID uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind       string    `gorm:"type:varchar(50);not null"`
	Message    string    `gorm:"type:text"`
	ActorID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;not null;index"`
}

func (ActivityEntry) TableName() string {
	return "approval_activity"
}
