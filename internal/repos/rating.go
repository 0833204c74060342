package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/logger"
	"coursemart/internal/types"
)

type RatingRepo interface {
	Query(ctx context.Context, tx *gorm.DB) *gorm.DB
	Create(ctx context.Context, tx *gorm.DB, rating *types.Rating) (*types.Rating, error)
	GetByID(ctx context.Context, tx *gorm.DB, ratingID uuid.UUID) (*types.Rating, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, ratingID uuid.UUID, attrs map[string]any) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, ratingID uuid.UUID) error
}

type ratingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	return &ratingRepo{db: db, log: baseLog.With("repo", "RatingRepo")}
}

func (r *ratingRepo) Query(ctx context.Context, tx *gorm.DB) *gorm.DB {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Model(&types.Rating{})
}

func (r *ratingRepo) Create(ctx context.Context, tx *gorm.DB, rating *types.Rating) (*types.Rating, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(rating).Error; err != nil {
		return nil, err
	}
	return rating, nil
}

func (r *ratingRepo) GetByID(ctx context.Context, tx *gorm.DB, ratingID uuid.UUID) (*types.Rating, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rating types.Rating
	if err := transaction.WithContext(ctx).
		Where("id = ?", ratingID).
		First(&rating).Error; err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepo) UpdateFields(ctx context.Context, tx *gorm.DB, ratingID uuid.UUID, attrs map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Rating{}).
		Where("id = ?", ratingID).
		Updates(attrs).Error
}

func (r *ratingRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, ratingID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", ratingID).
		Delete(&types.Rating{}).Error
}
