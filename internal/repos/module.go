package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/logger"
	"coursemart/internal/types"
)

type ModuleRepo interface {
	Query(ctx context.Context, tx *gorm.DB) *gorm.DB
	GetByID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (*types.Module, error)
	GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Module, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, attrs map[string]any) error
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return &moduleRepo{db: db, log: baseLog.With("repo", "ModuleRepo")}
}

func (r *moduleRepo) Query(ctx context.Context, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Model(&types.Module{})
}

func (r *moduleRepo) GetByID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var module types.Module
	if err := transaction.WithContext(ctx).
		Where("id = ?", moduleID).
		First(&module).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepo) GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Module
	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order(`"order" ASC`).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *moduleRepo) UpdateFields(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, attrs map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Module{}).
		Where("id = ?", moduleID).
		Updates(attrs).Error
}
