// Package permissions holds the capability checks the serializer layer and
// the services share: instructor rights on a course, and enrollment.
package permissions

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/types"
)

// CourseByID loads a course or reports not-found.
func CourseByID(tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
	var course types.Course
	if err := tx.Where("id = ?", id).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("course_not_found", fmt.Errorf("no course with id %s", id))
		}
		return nil, err
	}
	return &course, nil
}

// IsInstructor allows only the course's instructor.
func IsInstructor(userID uuid.UUID, course *types.Course) error {
	if course == nil || userID == uuid.Nil || course.InstructorID != userID {
		return apierr.ErrForbidden
	}
	return nil
}

// IsEnrolled allows the instructor and any enrolled student.
func IsEnrolled(tx *gorm.DB, userID uuid.UUID, course *types.Course) error {
	if course == nil || userID == uuid.Nil {
		return apierr.ErrForbidden
	}
	if course.InstructorID == userID {
		return nil
	}
	var n int64
	if err := tx.Model(&types.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, course.ID).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apierr.ErrForbidden
	}
	return nil
}
