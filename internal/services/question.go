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

type QuestionService interface {
	ListByCourse(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID) ([]map[string]any, error)
	Get(ctx context.Context, ins *serializer.Instance, questionID uuid.UUID) (map[string]any, error)
	Create(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error)
	Update(ctx context.Context, ins *serializer.Instance, questionID uuid.UUID, payload map[string]any) (map[string]any, error)
	Delete(ctx context.Context, questionID uuid.UUID) error
}

type questionService struct {
	db           *gorm.DB
	log          *logger.Logger
	questionRepo repos.QuestionRepo
	courseRepo   repos.CourseRepo
}

func NewQuestionService(db *gorm.DB, log *logger.Logger, questionRepo repos.QuestionRepo, courseRepo repos.CourseRepo) QuestionService {
	return &questionService{
		db:           db,
		log:          log.With("service", "QuestionService"),
		questionRepo: questionRepo,
		courseRepo:   courseRepo,
	}
}

func (qs *questionService) ListByCourse(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID) ([]map[string]any, error) {
	if _, err := courseRead(ctx, qs.db, qs.courseRepo, courseID); err != nil {
		return nil, err
	}
	q := ins.Optimize(qs.questionRepo.Query(ctx, nil)).
		Where(`"question"."course_id" = ?`, courseID).
		Order(`"question"."created_at" DESC`)
	var rows []*types.Question
	if err := q.Find(&rows).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.RepresentMany(rows)
}

func (qs *questionService) Get(ctx context.Context, ins *serializer.Instance, questionID uuid.UUID) (map[string]any, error) {
	question, err := qs.questionRepo.GetByID(ctx, nil, questionID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if _, err := courseRead(ctx, qs.db, qs.courseRepo, question.CourseID); err != nil {
		return nil, err
	}
	q := ins.Optimize(qs.questionRepo.Query(ctx, nil)).Where(`"question"."id" = ?`, questionID)
	var row types.Question
	if err := q.First(&row).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(&row)
}

func (qs *questionService) Create(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	// field permission: asking a question requires enrollment
	payload["course_id"] = courseID.String()
	attrs, err := ins.Deserialize(payload, serializer.OpCreate)
	if err != nil {
		return nil, err
	}
	question := &types.Question{}
	if err := serializer.ApplyAttrs(question, attrs); err != nil {
		return nil, err
	}
	question.CourseID = courseID
	question.CreatorID = userID
	if question.Title == "" {
		return nil, apierr.ValidationError{"title": "title is required"}
	}
	created, err := qs.questionRepo.Create(ctx, nil, question)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(created)
}

func (qs *questionService) Update(ctx context.Context, ins *serializer.Instance, questionID uuid.UUID, payload map[string]any) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	question, err := qs.questionRepo.GetByID(ctx, nil, questionID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if question.CreatorID != userID {
		return nil, apierr.ErrNotFound
	}
	attrs, err := ins.Deserialize(payload, serializer.OpUpdate)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := qs.questionRepo.UpdateFields(ctx, nil, questionID, attrs); err != nil {
			return nil, apierr.Translate(err)
		}
	}
	return qs.Get(ctx, ins, questionID)
}

func (qs *questionService) Delete(ctx context.Context, questionID uuid.UUID) error {
	userID, err := actor(ctx)
	if err != nil {
		return err
	}
	question, err := qs.questionRepo.GetByID(ctx, nil, questionID)
	if err != nil {
		return apierr.Translate(err)
	}
	if question.CreatorID != userID {
		return apierr.ErrNotFound
	}
	return apierr.Translate(qs.questionRepo.SoftDeleteByID(ctx, nil, questionID))
}
