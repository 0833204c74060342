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

// orderIsGenerated is the rejection body for client-supplied order on create.
const orderIsGenerated = "Order is automatically generated."

type ModuleService interface {
	ListByCourse(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID) ([]map[string]any, error)
	Get(ctx context.Context, ins *serializer.Instance, moduleID uuid.UUID) (map[string]any, error)
	Create(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error)
	Update(ctx context.Context, ins *serializer.Instance, moduleID uuid.UUID, payload map[string]any) (map[string]any, error)
	Move(ctx context.Context, moduleID uuid.UUID, newOrder int) error
	Delete(ctx context.Context, moduleID uuid.UUID) error
}

type moduleService struct {
	db         *gorm.DB
	log        *logger.Logger
	moduleRepo repos.ModuleRepo
	courseRepo repos.CourseRepo
}

func NewModuleService(db *gorm.DB, log *logger.Logger, moduleRepo repos.ModuleRepo, courseRepo repos.CourseRepo) ModuleService {
	return &moduleService{
		db:         db,
		log:        log.With("service", "ModuleService"),
		moduleRepo: moduleRepo,
		courseRepo: courseRepo,
	}
}

func (ms *moduleService) ListByCourse(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID) ([]map[string]any, error) {
	if _, err := courseRead(ctx, ms.db, ms.courseRepo, courseID); err != nil {
		return nil, err
	}
	q := ins.Optimize(ms.moduleRepo.Query(ctx, nil)).
		Where(`"module"."course_id" = ?`, courseID).
		Order(`"module"."order" ASC`)
	var rows []*types.Module
	if err := q.Find(&rows).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.RepresentMany(rows)
}

func (ms *moduleService) Get(ctx context.Context, ins *serializer.Instance, moduleID uuid.UUID) (map[string]any, error) {
	module, err := ms.moduleRepo.GetByID(ctx, nil, moduleID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if _, err := courseRead(ctx, ms.db, ms.courseRepo, module.CourseID); err != nil {
		return nil, err
	}
	q := ins.Optimize(ms.moduleRepo.Query(ctx, nil)).Where(`"module"."id" = ?`, moduleID)
	var row types.Module
	if err := q.First(&row).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(&row)
}

func (ms *moduleService) Create(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error) {
	if _, ok := payload["order"]; ok {
		return nil, apierr.ValidationError{"order": orderIsGenerated}
	}
	if _, err := courseWrite(ctx, ms.courseRepo, courseID); err != nil {
		return nil, err
	}
	attrs, err := ins.Deserialize(payload, serializer.OpCreate)
	if err != nil {
		return nil, err
	}
	module := &types.Module{CourseID: courseID}
	if err := serializer.ApplyAttrs(module, attrs); err != nil {
		return nil, err
	}
	module.CourseID = courseID
	if module.Title == "" {
		return nil, apierr.ValidationError{"title": "title is required"}
	}
	if err := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ordering.Insert(tx, module)
	}); err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(module)
}

func (ms *moduleService) Update(ctx context.Context, ins *serializer.Instance, moduleID uuid.UUID, payload map[string]any) (map[string]any, error) {
	module, err := ms.moduleRepo.GetByID(ctx, nil, moduleID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if _, err := courseWrite(ctx, ms.courseRepo, module.CourseID); err != nil {
		return nil, err
	}
	attrs, err := ins.Deserialize(payload, serializer.OpUpdate)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := ms.moduleRepo.UpdateFields(ctx, nil, moduleID, attrs); err != nil {
			return nil, apierr.Translate(err)
		}
	}
	return ms.Get(ctx, ins, moduleID)
}

func (ms *moduleService) Move(ctx context.Context, moduleID uuid.UUID, newOrder int) error {
	module, err := ms.moduleRepo.GetByID(ctx, nil, moduleID)
	if err != nil {
		return apierr.Translate(err)
	}
	if _, err := courseWrite(ctx, ms.courseRepo, module.CourseID); err != nil {
		return err
	}
	return apierr.Translate(ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ordering.Move(tx, module, newOrder)
	}))
}

func (ms *moduleService) Delete(ctx context.Context, moduleID uuid.UUID) error {
	module, err := ms.moduleRepo.GetByID(ctx, nil, moduleID)
	if err != nil {
		return apierr.Translate(err)
	}
	if _, err := courseWrite(ctx, ms.courseRepo, module.CourseID); err != nil {
		return err
	}
	return apierr.Translate(ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ordering.Remove(tx, module)
	}))
}
