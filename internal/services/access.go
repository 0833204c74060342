package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/permissions"
	"coursemart/internal/repos"
	"coursemart/internal/requestdata"
	"coursemart/internal/types"
)

func actor(ctx context.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.ErrForbidden
	}
	return rd.UserID, nil
}

// courseRead allows anyone on a published course, and the instructor or an
// enrolled student on an unpublished one.
func courseRead(ctx context.Context, db *gorm.DB, courseRepo repos.CourseRepo, courseID uuid.UUID) (*types.Course, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	course, err := courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if course.Published {
		return course, nil
	}
	if err := permissions.IsEnrolled(db.WithContext(ctx), userID, course); err != nil {
		return nil, err
	}
	return course, nil
}

// courseWrite allows only the instructor.
func courseWrite(ctx context.Context, courseRepo repos.CourseRepo, courseID uuid.UUID) (*types.Course, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	course, err := courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if err := permissions.IsInstructor(userID, course); err != nil {
		return nil, err
	}
	return course, nil
}

// courseEnrolled requires enrollment (or instructorship) regardless of the
// published flag; content interactions (ratings, questions, notes) use it.
func courseEnrolled(ctx context.Context, db *gorm.DB, courseRepo repos.CourseRepo, courseID uuid.UUID) (*types.Course, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	course, err := courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if err := permissions.IsEnrolled(db.WithContext(ctx), userID, course); err != nil {
		return nil, err
	}
	return course, nil
}
