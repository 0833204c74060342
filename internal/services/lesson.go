package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/logger"
	"coursemart/internal/ordering"
	"coursemart/internal/repos"
	"coursemart/internal/serializer"
	"coursemart/internal/types"
)

type LessonService interface {
	ListByModule(ctx context.Context, ins *serializer.Instance, moduleID uuid.UUID) ([]map[string]any, error)
	Get(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID) (map[string]any, error)
	Create(ctx context.Context, ins *serializer.Instance, moduleID uuid.UUID, payload map[string]any) (map[string]any, error)
	Update(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID, payload map[string]any) (map[string]any, error)
	Move(ctx context.Context, lessonID uuid.UUID, newOrder int) error
	Delete(ctx context.Context, lessonID uuid.UUID) error
}

type lessonService struct {
	db         *gorm.DB
	log        *logger.Logger
	lessonRepo repos.LessonRepo
	moduleRepo repos.ModuleRepo
	courseRepo repos.CourseRepo
}

func NewLessonService(db *gorm.DB, log *logger.Logger, lessonRepo repos.LessonRepo, moduleRepo repos.ModuleRepo, courseRepo repos.CourseRepo) LessonService {
	return &lessonService{
		db:         db,
		log:        log.With("service", "LessonService"),
		lessonRepo: lessonRepo,
		moduleRepo: moduleRepo,
		courseRepo: courseRepo,
	}
}

func (ls *lessonService) courseAccess(ctx context.Context, courseID uuid.UUID, write bool) error {
	if write {
		_, err := courseWrite(ctx, ls.courseRepo, courseID)
		return err
	}
	_, err := courseRead(ctx, ls.db, ls.courseRepo, courseID)
	return err
}

func (ls *lessonService) ListByModule(ctx context.Context, ins *serializer.Instance, moduleID uuid.UUID) ([]map[string]any, error) {
	module, err := ls.moduleRepo.GetByID(ctx, nil, moduleID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if err := ls.courseAccess(ctx, module.CourseID, false); err != nil {
		return nil, err
	}
	q := ins.Optimize(ls.lessonRepo.Query(ctx, nil)).
		Where(`"lesson"."module_id" = ?`, moduleID).
		Order(`"lesson"."order" ASC`)
	var rows []*types.Lesson
	if err := q.Find(&rows).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.RepresentMany(rows)
}

func (ls *lessonService) Get(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID) (map[string]any, error) {
	lesson, err := ls.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if err := ls.courseAccess(ctx, lesson.CourseID, false); err != nil {
		return nil, err
	}
	q := ins.Optimize(ls.lessonRepo.Query(ctx, nil)).Where(`"lesson"."id" = ?`, lessonID)
	var row types.Lesson
	if err := q.First(&row).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(&row)
}

func (ls *lessonService) Create(ctx context.Context, ins *serializer.Instance, moduleID uuid.UUID, payload map[string]any) (map[string]any, error) {
	if _, ok := payload["order"]; ok {
		return nil, apierr.ValidationError{"order": orderIsGenerated}
	}
	module, err := ls.moduleRepo.GetByID(ctx, nil, moduleID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if err := ls.courseAccess(ctx, module.CourseID, true); err != nil {
		return nil, err
	}
	attrs, err := ins.Deserialize(payload, serializer.OpCreate)
	if err != nil {
		return nil, err
	}
	lesson := &types.Lesson{}
	if err := serializer.ApplyAttrs(lesson, attrs); err != nil {
		return nil, err
	}
	lesson.ModuleID = moduleID
	lesson.CourseID = module.CourseID
	if lesson.Title == "" {
		return nil, apierr.ValidationError{"title": "title is required"}
	}
	if err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ordering.Insert(tx, lesson)
	}); err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(lesson)
}

func (ls *lessonService) Update(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID, payload map[string]any) (map[string]any, error) {
	lesson, err := ls.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if err := ls.courseAccess(ctx, lesson.CourseID, true); err != nil {
		return nil, err
	}
	attrs, err := ins.Deserialize(payload, serializer.OpUpdate)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := ls.lessonRepo.UpdateFields(ctx, nil, lessonID, attrs); err != nil {
			return nil, apierr.Translate(err)
		}
	}
	return ls.Get(ctx, ins, lessonID)
}

func (ls *lessonService) Move(ctx context.Context, lessonID uuid.UUID, newOrder int) error {
	lesson, err := ls.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		return apierr.Translate(err)
	}
	if err := ls.courseAccess(ctx, lesson.CourseID, true); err != nil {
		return err
	}
	return apierr.Translate(ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ordering.Move(tx, lesson, newOrder)
	}))
}

func (ls *lessonService) Delete(ctx context.Context, lessonID uuid.UUID) error {
	lesson, err := ls.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		return apierr.Translate(err)
	}
	if err := ls.courseAccess(ctx, lesson.CourseID, true); err != nil {
		return err
	}
	return apierr.Translate(ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ordering.Remove(tx, lesson)
	}))
}
