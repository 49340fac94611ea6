package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/clientflow/clientflow/pkg/model"
)

// ActivityStore is the interface for activity-feed storage backends
// (PostgreSQL, ClickHouse).
type ActivityStore interface {
	// Record appends one entry to an approval's activity feed
	Record(ctx context.Context, entry *model.ActivityEntry) error

	// List retrieves the most recent entries for an approval
	List(ctx context.Context, approvalID uuid.UUID, limit int) ([]model.ActivityEntry, error)

	// Close closes the connection to the storage backend
	Close() error
}
