package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/model"
)

// ClickHouseActivityStore keeps the approval activity feed in ClickHouse for
// deployments where the feed grows faster than the transactional database
// should carry. Retention is handled by a native TTL on the table.
type ClickHouseActivityStore struct {
	conn   driver.Conn
	logger *zap.Logger
}

func NewClickHouseActivityStore(addr string, database string, username string, password string, logger *zap.Logger) (*ClickHouseActivityStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return &ClickHouseActivityStore{
		conn:   conn,
		logger: logger,
	}, nil
}

func (s *ClickHouseActivityStore) Record(ctx context.Context, entry *model.ActivityEntry) error {
	var actorID *uuid.UUID
	if entry.ActorID != nil {
		actorID = entry.ActorID
	}

	return s.conn.Exec(ctx,
		"INSERT INTO approval_activity (id, approval_id, kind, message, actor_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		entry.ID,
		entry.ApprovalID,
		entry.Kind,
		entry.Message,
		actorID,
		time.Now(),
	)
}

func (s *ClickHouseActivityStore) List(ctx context.Context, approvalID uuid.UUID, limit int) ([]model.ActivityEntry, error) {
	query := "SELECT id, approval_id, kind, message, actor_id, created_at FROM approval_activity WHERE approval_id = ? ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.conn.Query(ctx, query, approvalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var entry model.ActivityEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ApprovalID,
			&entry.Kind,
			&entry.Message,
			&entry.ActorID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *ClickHouseActivityStore) Close() error {
	return s.conn.Close()
}
