package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/logger"
	"coursemart/internal/types"
)

type NoteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, note *types.Note) (*types.Note, error)
	// GetOwnByID scopes the lookup to the creator; notes are private.
	GetOwnByID(ctx context.Context, tx *gorm.DB, creatorID, noteID uuid.UUID) (*types.Note, error)
	GetByCreatorAndLesson(ctx context.Context, tx *gorm.DB, creatorID, lessonID uuid.UUID) ([]*types.Note, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, attrs map[string]any) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) error
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: baseLog.With("repo", "NoteRepo")}
}

func (r *noteRepo) Create(ctx context.Context, tx *gorm.DB, note *types.Note) (*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

func (r *noteRepo) GetOwnByID(ctx context.Context, tx *gorm.DB, creatorID, noteID uuid.UUID) (*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var note types.Note
	if err := transaction.WithContext(ctx).
		Where("id = ? AND creator_id = ?", noteID, creatorID).
		First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepo) GetByCreatorAndLesson(ctx context.Context, tx *gorm.DB, creatorID, lessonID uuid.UUID) ([]*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Note
	if err := transaction.WithContext(ctx).
		Where("creator_id = ? AND lesson_id = ?", creatorID, lessonID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *noteRepo) UpdateFields(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, attrs map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Note{}).
		Where("id = ?", noteID).
		Updates(attrs).Error
}

func (r *noteRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", noteID).
		Delete(&types.Note{}).Error
}
