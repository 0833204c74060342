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

// QuizResult is the grading summary for one submission.
type QuizResult struct {
	Total   int  `json:"total"`
	Correct int  `json:"correct"`
	Passed  bool `json:"passed"`
}

type QuizService interface {
	GetByLesson(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID) (map[string]any, error)
	Create(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID, payload map[string]any) (map[string]any, error)
	AddQuestion(ctx context.Context, ins *serializer.Instance, quizID uuid.UUID, payload map[string]any) (map[string]any, error)
	MoveQuestion(ctx context.Context, questionID uuid.UUID, newOrder int) error
	DeleteQuestion(ctx context.Context, questionID uuid.UUID) error
	Submit(ctx context.Context, quizID uuid.UUID, responses []int) (*QuizResult, error)
}

type quizService struct {
	db               *gorm.DB
	log              *logger.Logger
	quizRepo         repos.QuizRepo
	quizQuestionRepo repos.QuizQuestionRepo
	lessonRepo       repos.LessonRepo
	courseRepo       repos.CourseRepo
}

func NewQuizService(
	db *gorm.DB,
	log *logger.Logger,
	quizRepo repos.QuizRepo,
	quizQuestionRepo repos.QuizQuestionRepo,
	lessonRepo repos.LessonRepo,
	courseRepo repos.CourseRepo,
) QuizService {
	return &quizService{
		db:               db,
		log:              log.With("service", "QuizService"),
		quizRepo:         quizRepo,
		quizQuestionRepo: quizQuestionRepo,
		lessonRepo:       lessonRepo,
		courseRepo:       courseRepo,
	}
}

func (qs *quizService) lessonAccess(ctx context.Context, lessonID uuid.UUID, write bool) (*types.Lesson, error) {
	lesson, err := qs.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if write {
		if _, err := courseWrite(ctx, qs.courseRepo, lesson.CourseID); err != nil {
			return nil, err
		}
		return lesson, nil
	}
	if _, err := courseRead(ctx, qs.db, qs.courseRepo, lesson.CourseID); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (qs *quizService) quizAccess(ctx context.Context, quizID uuid.UUID, write bool) (*types.Quiz, error) {
	quiz, err := qs.quizRepo.GetByID(ctx, nil, quizID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if _, err := qs.lessonAccess(ctx, quiz.LessonID, write); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (qs *quizService) GetByLesson(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID) (map[string]any, error) {
	if _, err := qs.lessonAccess(ctx, lessonID, false); err != nil {
		return nil, err
	}
	q := ins.Optimize(qs.db.WithContext(ctx).Model(&types.Quiz{})).
		Where(`"quiz"."lesson_id" = ?`, lessonID)
	var row types.Quiz
	if err := q.First(&row).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(&row)
}

func (qs *quizService) Create(ctx context.Context, ins *serializer.Instance, lessonID uuid.UUID, payload map[string]any) (map[string]any, error) {
	if _, err := qs.lessonAccess(ctx, lessonID, true); err != nil {
		return nil, err
	}
	attrs, err := ins.Deserialize(payload, serializer.OpCreate)
	if err != nil {
		return nil, err
	}
	quiz := &types.Quiz{}
	if err := serializer.ApplyAttrs(quiz, attrs); err != nil {
		return nil, err
	}
	quiz.LessonID = lessonID
	if quiz.Title == "" {
		return nil, apierr.ValidationError{"title": "title is required"}
	}
	created, err := qs.quizRepo.Create(ctx, nil, quiz)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(created)
}

func (qs *quizService) AddQuestion(ctx context.Context, ins *serializer.Instance, quizID uuid.UUID, payload map[string]any) (map[string]any, error) {
	if _, ok := payload["order"]; ok {
		return nil, apierr.ValidationError{"order": orderIsGenerated}
	}
	if _, err := qs.quizAccess(ctx, quizID, true); err != nil {
		return nil, err
	}
	attrs, err := ins.Deserialize(payload, serializer.OpCreate)
	if err != nil {
		return nil, err
	}
	question := &types.QuizQuestion{}
	if err := serializer.ApplyAttrs(question, attrs); err != nil {
		return nil, err
	}
	question.QuizID = quizID
	if question.Prompt == "" {
		return nil, apierr.ValidationError{"prompt": "prompt is required"}
	}
	// answer_index is write-only; it never round-trips through the serializer
	if raw, ok := payload["answer_index"]; ok {
		if f, ok := raw.(float64); ok {
			question.AnswerIndex = int(f)
		}
	}
	if err := qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ordering.Insert(tx, question)
	}); err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(question)
}

func (qs *quizService) MoveQuestion(ctx context.Context, questionID uuid.UUID, newOrder int) error {
	question, err := qs.quizQuestionRepo.GetByID(ctx, nil, questionID)
	if err != nil {
		return apierr.Translate(err)
	}
	if _, err := qs.quizAccess(ctx, question.QuizID, true); err != nil {
		return err
	}
	return apierr.Translate(qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ordering.Move(tx, question, newOrder)
	}))
}

func (qs *quizService) DeleteQuestion(ctx context.Context, questionID uuid.UUID) error {
	question, err := qs.quizQuestionRepo.GetByID(ctx, nil, questionID)
	if err != nil {
		return apierr.Translate(err)
	}
	if _, err := qs.quizAccess(ctx, question.QuizID, true); err != nil {
		return err
	}
	return apierr.Translate(qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ordering.Remove(tx, question)
	}))
}

// Submit grades a response sheet against the quiz's questions in order. The
// sheet must not be longer than the question list.
func (qs *quizService) Submit(ctx context.Context, quizID uuid.UUID, responses []int) (*QuizResult, error) {
	if _, err := qs.quizAccess(ctx, quizID, false); err != nil {
		return nil, err
	}
	questions, err := qs.quizQuestionRepo.GetByQuizID(ctx, nil, quizID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if len(responses) > len(questions) {
		return nil, apierr.ValidationError{"responses": "More responses than quiz questions."}
	}
	result := &QuizResult{Total: len(questions)}
	for i, r := range responses {
		if r == questions[i].AnswerIndex {
			result.Correct++
		}
	}
	result.Passed = result.Total > 0 && result.Correct*2 >= result.Total
	return result, nil
}
