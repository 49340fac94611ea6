package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clientflow/clientflow/pkg/config"
	"github.com/clientflow/clientflow/pkg/model"
)

type Store struct {
	db *gorm.DB
}

func NewStore(cfg *config.DatabaseConfig) (*Store, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	return &Store{db: db}, nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&model.Client{},
		&model.Approval{},
		&model.ApprovalItem{},
		&model.ApprovalAssignee{},
		&model.ApprovalComment{},
		&model.NotificationRecord{},
		&model.ApprovalEvent{},
		&model.ActivityEntry{},
	)
}

// ApprovalRepository is the authoritative mutable surface for approvals. The
// unit of locking is a single approval row; status flips are conditional
// updates so overlapping recomputes cannot both observe a transition.
type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) GetApproval(ctx context.Context, id uuid.UUID) (*model.Approval, error) {
	var approval model.Approval
	err := r.db.WithContext(ctx).
		Preload("Client").
		First(&approval, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *ApprovalRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]model.Approval, int64, error) {
	var approvals []model.Approval
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Approval{}).Where("client_id = ?", clientID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&approvals).Error

	return approvals, total, err
}

func (r *ApprovalRepository) ListItems(ctx context.Context, approvalID uuid.UUID) ([]model.ApprovalItem, error) {
	var items []model.ApprovalItem
	err := r.db.WithContext(ctx).
		Where("approval_id = ?", approvalID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// UpdateItemStatus sets one item's status. The approval id is part of the
// predicate so a stale item id cannot touch another approval's row. Returns
// false when no row matched.
func (r *ApprovalRepository) UpdateItemStatus(ctx context.Context, approvalID, itemID uuid.UUID, status model.ItemStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.ApprovalItem{}).
		Where("id = ? AND approval_id = ?", itemID, approvalID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	return result.RowsAffected > 0, result.Error
}

func (r *ApprovalRepository) ApproveAllItems(ctx context.Context, approvalID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.ApprovalItem{}).
		Where("approval_id = ? AND status <> ?", approvalID, model.ItemApproved).
		Updates(map[string]interface{}{
			"status":     model.ItemApproved,
			"updated_at": time.Now(),
		}).Error
}

// MarkApproved flips the approval to approved with a single conditional
// update and, in the same transaction, writes the outbox event. The returned
// bool reports whether this call performed the flip; a false result means a
// concurrent recompute (or an earlier one) already did, and no downstream
// effects should fire.
func (r *ApprovalRepository) MarkApproved(ctx context.Context, id uuid.UUID, event *model.ApprovalEvent) (bool, error) {
	transitioned := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Approval{}).
			Where("id = ? AND status <> ?", id, model.ApprovalApproved).
			Updates(map[string]interface{}{
				"status":     model.ApprovalApproved,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		transitioned = true
		if event != nil {
			return tx.Create(event).Error
		}
		return nil
	})
	return transitioned, err
}

// MarkPending is the reverse direction. It never produces an outbox event;
// reverting to pending is not announced.
func (r *ApprovalRepository) MarkPending(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Approval{}).
		Where("id = ? AND status <> ?", id, model.ApprovalPending).
		Updates(map[string]interface{}{
			"status":     model.ApprovalPending,
			"updated_at": time.Now(),
		})
	return result.RowsAffected > 0, result.Error
}

// ForceApprove assigns the terminal state unconditionally. The auto-approve
// sweep uses this instead of MarkApproved: its whole purpose is to reach
// approved regardless of item-level state, including the zero-item case.
func (r *ApprovalRepository) ForceApprove(ctx context.Context, id uuid.UUID, event *model.ApprovalEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Approval{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     model.ApprovalApproved,
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return err
		}
		if event != nil {
			return tx.Create(event).Error
		}
		return nil
	})
}

func (r *ApprovalRepository) ListAssignees(ctx context.Context, approvalID uuid.UUID) ([]model.ApprovalAssignee, error) {
	var assignees []model.ApprovalAssignee
	err := r.db.WithContext(ctx).
		Where("approval_id = ?", approvalID).
		Find(&assignees).Error
	return assignees, err
}

func (r *ApprovalRepository) GetClient(ctx context.Context, clientID uuid.UUID) (*model.Client, error) {
	var client model.Client
	err := r.db.WithContext(ctx).First(&client, "id = ?", clientID).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// ListDueForAutoApproval returns pending approvals whose auto-approve time
// has elapsed. The boundary is inclusive.
func (r *ApprovalRepository) ListDueForAutoApproval(ctx context.Context, now time.Time) ([]model.Approval, error) {
	var approvals []model.Approval
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("status = ? AND auto_approve_at IS NOT NULL AND auto_approve_at <= ?", model.ApprovalPending, now).
		Order("auto_approve_at ASC").
		Find(&approvals).Error
	return approvals, err
}

func (r *ApprovalRepository) DeleteComments(ctx context.Context, approvalID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("approval_id = ?", approvalID).
		Delete(&model.ApprovalComment{}).Error
}

func (r *ApprovalRepository) DeleteItems(ctx context.Context, approvalID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("approval_id = ?", approvalID).
		Delete(&model.ApprovalItem{}).Error
}

func (r *ApprovalRepository) DeleteAssignees(ctx context.Context, approvalID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("approval_id = ?", approvalID).
		Delete(&model.ApprovalAssignee{}).Error
}

func (r *ApprovalRepository) DeleteApproval(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.Approval{}, "id = ?", id)
	return result.RowsAffected > 0, result.Error
}

func (r *ApprovalRepository) GetComment(ctx context.Context, id uuid.UUID) (*model.ApprovalComment, error) {
	var comment model.ApprovalComment
	err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *ApprovalRepository) UpdateComment(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&model.ApprovalComment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *ApprovalRepository) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ApprovalComment{}, "id = ?", id).Error
}
