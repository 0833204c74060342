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

// answerTargets is the subset of generic targets an answer may attach to.
// Answers to answers are replies.
var answerTargets = map[string]bool{
	"question": true,
	"answer":   true,
}

type AnswerService interface {
	ListByTarget(ctx context.Context, ins *serializer.Instance, model string, targetID uuid.UUID) ([]map[string]any, error)
	Create(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error)
	Update(ctx context.Context, ins *serializer.Instance, answerID uuid.UUID, payload map[string]any) (map[string]any, error)
	Delete(ctx context.Context, answerID uuid.UUID) error
}

type answerService struct {
	db         *gorm.DB
	log        *logger.Logger
	answerRepo repos.AnswerRepo
	courseRepo repos.CourseRepo
}

func NewAnswerService(db *gorm.DB, log *logger.Logger, answerRepo repos.AnswerRepo, courseRepo repos.CourseRepo) AnswerService {
	return &answerService{
		db:         db,
		log:        log.With("service", "AnswerService"),
		answerRepo: answerRepo,
		courseRepo: courseRepo,
	}
}

// parseContentObject pulls the generic target out of a payload's
// content_object member: {"model": ..., "object_id": ...}.
func parseContentObject(payload map[string]any) (string, uuid.UUID, error) {
	raw, ok := payload["content_object"].(map[string]any)
	if !ok {
		return "", uuid.Nil, apierr.ValidationError{"content_object": "content_object is required"}
	}
	model, _ := raw["model"].(string)
	idStr, _ := raw["object_id"].(string)
	if model == "" {
		return "", uuid.Nil, apierr.ValidationError{"content_object": "model is required"}
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return "", uuid.Nil, apierr.ValidationError{"content_object": "object_id is required"}
	}
	return model, id, nil
}

func (as *answerService) ListByTarget(ctx context.Context, ins *serializer.Instance, model string, targetID uuid.UUID) ([]map[string]any, error) {
	if !answerTargets[model] {
		return nil, apierr.ErrNotFound
	}
	if _, err := generic.Resolve(as.db.WithContext(ctx), model, targetID); err != nil {
		return nil, err
	}
	q := ins.Optimize(as.answerRepo.Query(ctx, nil)).
		Where(`"answer"."content_type" = ? AND "answer"."content_id" = ?`, model, targetID).
		Order(`"answer"."created_at" ASC`)
	var rows []*types.Answer
	if err := q.Find(&rows).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.RepresentMany(rows)
}

func (as *answerService) Create(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := courseEnrolled(ctx, as.db, as.courseRepo, courseID); err != nil {
		return nil, err
	}
	model, targetID, err := parseContentObject(payload)
	if err != nil {
		return nil, err
	}
	if !answerTargets[model] {
		return nil, apierr.ValidationError{"content_object": "unsupported model for answers"}
	}
	if _, err := generic.Resolve(as.db.WithContext(ctx), model, targetID); err != nil {
		return nil, err
	}
	attrs, err := ins.Deserialize(payload, serializer.OpCreate)
	if err != nil {
		return nil, err
	}
	answer := &types.Answer{}
	if err := serializer.ApplyAttrs(answer, attrs); err != nil {
		return nil, err
	}
	answer.CreatorID = userID
	answer.CourseID = courseID
	answer.ContentType = model
	answer.ContentID = targetID
	if answer.Body == "" {
		return nil, apierr.ValidationError{"body": "body is required"}
	}
	created, err := as.answerRepo.Create(ctx, nil, answer)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(created)
}

func (as *answerService) Update(ctx context.Context, ins *serializer.Instance, answerID uuid.UUID, payload map[string]any) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	answer, err := as.answerRepo.GetByID(ctx, nil, answerID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if answer.CreatorID != userID {
		return nil, apierr.ErrNotFound
	}
	attrs, err := ins.Deserialize(payload, serializer.OpUpdate)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := as.answerRepo.UpdateFields(ctx, nil, answerID, attrs); err != nil {
			return nil, apierr.Translate(err)
		}
	}
	q := ins.Optimize(as.answerRepo.Query(ctx, nil)).Where(`"answer"."id" = ?`, answerID)
	var row types.Answer
	if err := q.First(&row).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(&row)
}

func (as *answerService) Delete(ctx context.Context, answerID uuid.UUID) error {
	userID, err := actor(ctx)
	if err != nil {
		return err
	}
	answer, err := as.answerRepo.GetByID(ctx, nil, answerID)
	if err != nil {
		return apierr.Translate(err)
	}
	if answer.CreatorID != userID {
		return apierr.ErrNotFound
	}
	return apierr.Translate(as.answerRepo.SoftDeleteByID(ctx, nil, answerID))
}
