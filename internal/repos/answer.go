package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/logger"
	"coursemart/internal/types"
)

type AnswerRepo interface {
	Query(ctx context.Context, tx *gorm.DB) *gorm.DB
	Create(ctx context.Context, tx *gorm.DB, answer *types.Answer) (*types.Answer, error)
	GetByID(ctx context.Context, tx *gorm.DB, answerID uuid.UUID) (*types.Answer, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, answerID uuid.UUID, attrs map[string]any) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, answerID uuid.UUID) error
}

type answerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AnswerRepo {
	return &answerRepo{db: db, log: baseLog.With("repo", "AnswerRepo")}
}

func (r *answerRepo) Query(ctx context.Context, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Model(&types.Answer{})
}

func (r *answerRepo) Create(ctx context.Context, tx *gorm.DB, answer *types.Answer) (*types.Answer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(answer).Error; err != nil {
		return nil, err
	}
	return answer, nil
}

func (r *answerRepo) GetByID(ctx context.Context, tx *gorm.DB, answerID uuid.UUID) (*types.Answer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var answer types.Answer
	if err := transaction.WithContext(ctx).
		Where("id = ?", answerID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepo) UpdateFields(ctx context.Context, tx *gorm.DB, answerID uuid.UUID, attrs map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Answer{}).
		Where("id = ?", answerID).
		Updates(attrs).Error
}

func (r *answerRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, answerID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", answerID).
		Delete(&types.Answer{}).Error
}
