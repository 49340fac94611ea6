package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
)

type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemApproved ItemStatus = "approved"
	ItemRejected ItemStatus = "rejected"
)

// Approval is one client-facing deliverable requiring sign-off. Status is
// derived from the item statuses; only the aggregator and the auto-approve
// sweep write it.
type Approval struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ClientID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Client         *Client   `gorm:"foreignKey:ClientID"`
	Title          string    `gorm:"not null"`
	ExternalTaskID string    `gorm:"index"`
	Status         ApprovalStatus `gorm:"type:varchar(20);default:'pending';index"`
	AutoApproveAt  *time.Time     `gorm:"index"`
	Items          []ApprovalItem `gorm:"foreignKey:ApprovalID"`
	Assignees      []ApprovalAssignee `gorm:"foreignKey:ApprovalID"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ApprovalItem is a single asset inside an approval. Any status other than
// "approved" counts as not approved for aggregation purposes.
type ApprovalItem struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ApprovalID uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name       string         `gorm:"not null"`
	Status     ItemStatus     `gorm:"type:varchar(20);default:'pending'"`
	AssetLinks pq.StringArray `gorm:"type:text[]"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ApprovalAssignee is a watcher on an approval and defines the notification
// recipient set.
type ApprovalAssignee struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ApprovalID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time
}

type ApprovalComment struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ApprovalID uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null"`
	Content    string    `gorm:"type:text;not null"`
	Resolved   bool      `gorm:"default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Client is the agency customer an approval belongs to. BusinessName wins
// over ContactName for display purposes.
type Client struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BusinessName string
	ContactName  string
	Email        string `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONB: %v", value)
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONB) GormDataType() string {
	return "jsonb"
}
