package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/logger"
	"coursemart/internal/permissions"
	"coursemart/internal/repos"
	"coursemart/internal/serializer"
	"coursemart/internal/types"
)

type CourseService interface {
	List(ctx context.Context, ins *serializer.Instance) ([]map[string]any, error)
	Get(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID) (map[string]any, error)
	Create(ctx context.Context, ins *serializer.Instance, payload map[string]any) (map[string]any, error)
	Update(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error)
	Delete(ctx context.Context, courseID uuid.UUID) error
	Enroll(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error)
}

type courseService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
}

func NewCourseService(db *gorm.DB, log *logger.Logger, courseRepo repos.CourseRepo, enrollmentRepo repos.EnrollmentRepo) CourseService {
	return &courseService{
		db:             db,
		log:            log.With("service", "CourseService"),
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

// List returns published courses plus the caller's own unpublished ones,
// rendered through the request's serializer instance.
func (cs *courseService) List(ctx context.Context, ins *serializer.Instance) ([]map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	q := ins.Optimize(cs.courseRepo.Query(ctx, nil)).
		Where("published = ? OR instructor_id = ?", true, userID).
		Order(`"course"."created_at" DESC`)
	var rows []*types.Course
	if err := q.Find(&rows).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.RepresentMany(rows)
}

// Get applies the same visibility rule as List: a foreign unpublished course
// reads as absent.
func (cs *courseService) Get(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	q := ins.Optimize(cs.courseRepo.Query(ctx, nil)).
		Where(`"course"."id" = ?`, courseID).
		Where("published = ? OR instructor_id = ?", true, userID)
	var row types.Course
	if err := q.First(&row).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(&row)
}

func (cs *courseService) Create(ctx context.Context, ins *serializer.Instance, payload map[string]any) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	attrs, err := ins.Deserialize(payload, serializer.OpCreate)
	if err != nil {
		return nil, err
	}
	course := &types.Course{InstructorID: userID}
	if err := serializer.ApplyAttrs(course, attrs); err != nil {
		return nil, err
	}
	if course.Title == "" {
		return nil, apierr.ValidationError{"title": "title is required"}
	}
	created, err := cs.courseRepo.Create(ctx, nil, course)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(created)
}

func (cs *courseService) Update(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	course, err := cs.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if err := permissions.IsInstructor(userID, course); err != nil {
		return nil, err
	}
	attrs, err := ins.Deserialize(payload, serializer.OpUpdate)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := cs.courseRepo.UpdateFields(ctx, nil, courseID, attrs); err != nil {
			return nil, apierr.Translate(err)
		}
	}
	return cs.Get(ctx, ins, courseID)
}

func (cs *courseService) Delete(ctx context.Context, courseID uuid.UUID) error {
	userID, err := actor(ctx)
	if err != nil {
		return err
	}
	course, err := cs.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return apierr.Translate(err)
	}
	if err := permissions.IsInstructor(userID, course); err != nil {
		return err
	}
	return apierr.Translate(cs.courseRepo.SoftDeleteByID(ctx, nil, courseID))
}

func (cs *courseService) Enroll(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	course, err := cs.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if !course.Published && course.InstructorID != userID {
		return nil, apierr.NotFound("course_not_found", fmt.Errorf("no course with id %s", courseID))
	}
	enrollment := &types.Enrollment{UserID: userID, CourseID: courseID}
	created, err := cs.enrollmentRepo.Create(ctx, nil, enrollment)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	return created, nil
}
