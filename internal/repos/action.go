package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/logger"
	"coursemart/internal/types"
)

type ActionRepo interface {
	Query(ctx context.Context, tx *gorm.DB) *gorm.DB
	Create(ctx context.Context, tx *gorm.DB, action *types.Action) (*types.Action, error)
	// GetOwnByID scopes the lookup to the creator so foreign actions surface
	// as record-not-found.
	GetOwnByID(ctx context.Context, tx *gorm.DB, creatorID, actionID uuid.UUID) (*types.Action, error)
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) error
}

type actionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActionRepo(db *gorm.DB, baseLog *logger.Logger) ActionRepo {
	return &actionRepo{db: db, log: baseLog.With("repo", "ActionRepo")}
}

func (r *actionRepo) Query(ctx context.Context, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Model(&types.Action{})
}

func (r *actionRepo) Create(ctx context.Context, tx *gorm.DB, action *types.Action) (*types.Action, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(action).Error; err != nil {
		return nil, err
	}
	return action, nil
}

func (r *actionRepo) GetOwnByID(ctx context.Context, tx *gorm.DB, creatorID, actionID uuid.UUID) (*types.Action, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var action types.Action
	if err := transaction.WithContext(ctx).
		Where("id = ? AND creator_id = ?", actionID, creatorID).
		First(&action).Error; err != nil {
		return nil, err
	}
	return &action, nil
}

func (r *actionRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, actionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", actionID).
		Delete(&types.Action{}).Error
}
