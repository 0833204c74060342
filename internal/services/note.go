package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/logger"
	"coursemart/internal/repos"
	"coursemart/internal/serializer"
	"coursemart/internal/types"
)

type NoteService interface {
	ListByLesson(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID) ([]map[string]any, error)
	Create(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID, payload map[string]any) (map[string]any, error)
	Update(ctx context.Context, ins *serializer.Instance, noteID uuid.UUID, payload map[string]any) (map[string]any, error)
	Delete(ctx context.Context, noteID uuid.UUID) error
}

type noteService struct {
	db         *gorm.DB
	log        *logger.Logger
	noteRepo   repos.NoteRepo
	lessonRepo repos.LessonRepo
	courseRepo repos.CourseRepo
}

func NewNoteService(db *gorm.DB, log *logger.Logger, noteRepo repos.NoteRepo, lessonRepo repos.LessonRepo, courseRepo repos.CourseRepo) NoteService {
	return &noteService{
		db:         db,
		log:        log.With("service", "NoteService"),
		noteRepo:   noteRepo,
		lessonRepo: lessonRepo,
		courseRepo: courseRepo,
	}
}

// ListByLesson returns only the caller's own notes; notes are private.
func (ns *noteService) ListByLesson(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID) ([]map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	lesson, err := ns.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if _, err := courseRead(ctx, ns.db, ns.courseRepo, lesson.CourseID); err != nil {
		return nil, err
	}
	rows, err := ns.noteRepo.GetByCreatorAndLesson(ctx, nil, userID, lessonID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.RepresentMany(rows)
}

func (ns *noteService) Create(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID, payload map[string]any) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	// field permission: note-taking on a lesson requires enrollment
	payload["lesson_id"] = lessonID.String()
	attrs, err := ins.Deserialize(payload, serializer.OpCreate)
	if err != nil {
		return nil, err
	}
	note := &types.Note{}
	if err := serializer.ApplyAttrs(note, attrs); err != nil {
		return nil, err
	}
	note.LessonID = lessonID
	note.CreatorID = userID
	if note.Body == "" {
		return nil, apierr.ValidationError{"body": "body is required"}
	}
	created, err := ns.noteRepo.Create(ctx, nil, note)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(created)
}

func (ns *noteService) Update(ctx context.Context, ins *serializer.Instance, noteID uuid.UUID, payload map[string]any) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := ns.noteRepo.GetOwnByID(ctx, nil, userID, noteID); err != nil {
		return nil, apierr.Translate(err)
	}
	attrs, err := ins.Deserialize(payload, serializer.OpUpdate)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := ns.noteRepo.UpdateFields(ctx, nil, noteID, attrs); err != nil {
			return nil, apierr.Translate(err)
		}
	}
	note, err := ns.noteRepo.GetOwnByID(ctx, nil, userID, noteID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(note)
}

func (ns *noteService) Delete(ctx context.Context, noteID uuid.UUID) error {
	userID, err := actor(ctx)
	if err != nil {
		return err
	}
	if _, err := ns.noteRepo.GetOwnByID(ctx, nil, userID, noteID); err != nil {
		return apierr.Translate(err)
	}
	return apierr.Translate(ns.noteRepo.SoftDeleteByID(ctx, nil, noteID))
}
