package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/generic"
	"coursemart/internal/logger"
	"coursemart/internal/repos"
	"coursemart/internal/serializer"
	"coursemart/internal/types"
)

type ActionService interface {
	ListByTarget(ctx context.Context, ins *serializer.Instance, model string, targetID uuid.UUID, action int) ([]map[string]any, error)
	Create(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error)
	Delete(ctx context.Context, actionID uuid.UUID) error
}

type actionService struct {
	db         *gorm.DB
	log        *logger.Logger
	actionRepo repos.ActionRepo
	courseRepo repos.CourseRepo
}

func NewActionService(db *gorm.DB, log *logger.Logger, actionRepo repos.ActionRepo, courseRepo repos.CourseRepo) ActionService {
	return &actionService{
		db:         db,
		log:        log.With("service", "ActionService"),
		actionRepo: actionRepo,
		courseRepo: courseRepo,
	}
}

func (acs *actionService) ListByTarget(ctx context.Context, ins *serializer.Instance, model string, targetID uuid.UUID, action int) ([]map[string]any, error) {
	if _, ok := generic.LookupTag(model); !ok {
		return nil, apierr.ErrNotFound
	}
	if _, err := generic.Resolve(acs.db.WithContext(ctx), model, targetID); err != nil {
		return nil, err
	}
	q := ins.Optimize(acs.actionRepo.Query(ctx, nil)).
		Where(`"action"."content_type" = ? AND "action"."content_id" = ?`, model, targetID)
	if action != 0 {
		q = q.Where(`"action"."action" = ?`, action)
	}
	var rows []*types.Action
	if err := q.Order(`"action"."created_at" ASC`).Find(&rows).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.RepresentMany(rows)
}

func (acs *actionService) Create(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := courseEnrolled(ctx, acs.db, acs.courseRepo, courseID); err != nil {
		return nil, err
	}
	model, targetID, err := parseContentObject(payload)
	if err != nil {
		return nil, err
	}
	if _, err := generic.Resolve(acs.db.WithContext(ctx), model, targetID); err != nil {
		return nil, err
	}
	kind := 0
	if f, ok := payload["action"].(float64); ok {
		kind = int(f)
	}
	if kind != types.ActionLike && kind != types.ActionDislike {
		return nil, apierr.ValidationError{"action": "action must be 1 (like) or 2 (dislike)"}
	}
	row := &types.Action{
		CreatorID:   userID,
		CourseID:    courseID,
		ContentType: model,
		ContentID:   targetID,
		Action:      kind,
	}
	// the unique index is the duplicate guard; a conflict surfaces as
	// ErrDuplicate through Translate
	created, err := acs.actionRepo.Create(ctx, nil, row)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(created)
}

func (acs *actionService) Delete(ctx context.Context, actionID uuid.UUID) error {
	userID, err := actor(ctx)
	if err != nil {
		return err
	}
	// creator-scoped lookup: a foreign action id reads as absent
	if _, err := acs.actionRepo.GetOwnByID(ctx, nil, userID, actionID); err != nil {
		return apierr.Translate(err)
	}
	return apierr.Translate(acs.actionRepo.SoftDeleteByID(ctx, nil, actionID))
}
