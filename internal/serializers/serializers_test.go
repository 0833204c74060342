package serializers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coursemart/internal/apierr"
	"coursemart/internal/generic"
	"coursemart/internal/serializer"
	"coursemart/internal/types"
)

var testSchema = []string{
	`CREATE TABLE user (
		id text PRIMARY KEY, email text, password text,
		first_name text, last_name text,
		created_at datetime, updated_at datetime
	)`,
	`CREATE TABLE course (
		id text PRIMARY KEY, instructor_id text NOT NULL,
		title text, description text, price_cents integer, published boolean,
		metadata text, created_at datetime, updated_at datetime, deleted_at datetime
	)`,
	`CREATE TABLE enrollment (
		id text PRIMARY KEY, user_id text NOT NULL, course_id text NOT NULL,
		created_at datetime, updated_at datetime, deleted_at datetime
	)`,
	`CREATE TABLE module (
		id text PRIMARY KEY, course_id text NOT NULL,
		title text, description text, "order" integer,
		created_at datetime, updated_at datetime, deleted_at datetime
	)`,
	`CREATE TABLE lesson (
		id text PRIMARY KEY, module_id text NOT NULL, course_id text NOT NULL,
		title text, content text, metadata text, "order" integer,
		created_at datetime, updated_at datetime, deleted_at datetime
	)`,
	`CREATE TABLE rating (
		id text PRIMARY KEY, course_id text NOT NULL, creator_id text NOT NULL,
		rate integer, body text,
		created_at datetime, updated_at datetime, deleted_at datetime
	)`,
	`CREATE TABLE action (
		id text PRIMARY KEY, creator_id text NOT NULL, course_id text NOT NULL,
		content_type text, content_id text, action integer,
		created_at datetime, updated_at datetime, deleted_at datetime
	)`,
}

func bootstrap(t *testing.T) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)
	Bootstrap()
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func seed(t *testing.T, db *gorm.DB, rows ...any) {
	t.Helper()
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed %T: %v", r, err)
		}
	}
}

func TestBootstrapRegistersEveryTag(t *testing.T) {
	bootstrap(t)

	tags := []string{
		TagUser, TagCourse, TagEnrollment, TagModule, TagLesson,
		TagQuiz, TagQuizQuestion, TagRating, TagQuestion, TagAnswer,
		TagAction, TagNote,
	}
	for _, tag := range tags {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("tag %q not registered: %v", tag, r)
				}
			}()
			serializer.Lookup(tag)
		}()
	}

	for _, tag := range []string{TagCourse, TagQuestion, TagAnswer, TagRating} {
		if _, ok := generic.LookupTag(tag); !ok {
			t.Fatalf("generic target %q not registered", tag)
		}
	}
	for _, tag := range []string{TagModule, TagLesson, TagNote, TagUser} {
		if _, ok := generic.LookupTag(tag); ok {
			t.Fatalf("%q must not be a generic target", tag)
		}
	}
}

func TestCourseAnnotations(t *testing.T) {
	bootstrap(t)
	db := openTestDB(t)

	course := &types.Course{ID: uuid.New(), InstructorID: uuid.New(), Title: "Go", Published: true}
	studentA := uuid.New()
	studentB := uuid.New()
	moduleID := uuid.New()
	seed(t, db,
		course,
		&types.Enrollment{ID: uuid.New(), UserID: studentA, CourseID: course.ID},
		&types.Enrollment{ID: uuid.New(), UserID: studentB, CourseID: course.ID},
		&types.Lesson{ID: uuid.New(), ModuleID: moduleID, CourseID: course.ID, Title: "l1", Order: 1},
		&types.Lesson{ID: uuid.New(), ModuleID: moduleID, CourseID: course.ID, Title: "l2", Order: 2},
		&types.Lesson{ID: uuid.New(), ModuleID: moduleID, CourseID: course.ID, Title: "l3", Order: 3},
		&types.Rating{ID: uuid.New(), CourseID: course.ID, CreatorID: studentA, Rate: 4},
		&types.Rating{ID: uuid.New(), CourseID: course.ID, CreatorID: studentB, Rate: 5},
		&types.Action{ID: uuid.New(), CreatorID: studentA, CourseID: course.ID, ContentType: TagCourse, ContentID: course.ID, Action: types.ActionLike},
		&types.Action{ID: uuid.New(), CreatorID: studentB, CourseID: course.ID, ContentType: TagCourse, ContentID: course.ID, Action: types.ActionLike},
		&types.Action{ID: uuid.New(), CreatorID: studentA, CourseID: course.ID, ContentType: TagQuestion, ContentID: uuid.New(), Action: types.ActionLike},
		&types.Action{ID: uuid.New(), CreatorID: studentB, CourseID: course.ID, ContentType: TagCourse, ContentID: course.ID, Action: types.ActionDislike},
	)
	// a retracted rating no longer feeds the aggregates
	retracted := &types.Rating{ID: uuid.New(), CourseID: course.ID, CreatorID: uuid.New(), Rate: 1}
	seed(t, db, retracted)
	if err := db.Delete(retracted).Error; err != nil {
		t.Fatalf("delete rating: %v", err)
	}

	u, _ := url.Parse("http://api.test/courses")
	ins, err := serializer.New(TagCourse, &serializer.Context{
		Ctx: context.Background(), DB: db, Query: url.Values{}, URL: u,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var row types.Course
	if err := ins.Optimize(db.Model(&types.Course{})).First(&row, "id = ?", course.ID).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	out, err := ins.Represent(&row)
	if err != nil {
		t.Fatalf("represent: %v", err)
	}

	if out["rating_avg"] != 4.5 {
		t.Fatalf("rating_avg = %v", out["rating_avg"])
	}
	if out["ratings_count"] != int64(2) {
		t.Fatalf("ratings_count = %v", out["ratings_count"])
	}
	if out["students_count"] != int64(2) {
		t.Fatalf("students_count = %v", out["students_count"])
	}
	if out["lessons_count"] != int64(3) {
		t.Fatalf("lessons_count = %v", out["lessons_count"])
	}
	engagement, ok := out["engagement"].(map[string]any)
	if !ok {
		t.Fatalf("engagement not rendered as a group: %v", out["engagement"])
	}
	if engagement["likes_count"] != int64(2) {
		t.Fatalf("likes_count = %v", engagement["likes_count"])
	}
	if engagement["dislikes_count"] != int64(1) {
		t.Fatalf("dislikes_count = %v", engagement["dislikes_count"])
	}
}

func TestModuleCourseFieldPermission(t *testing.T) {
	bootstrap(t)
	db := openTestDB(t)

	instructor := uuid.New()
	course := &types.Course{ID: uuid.New(), InstructorID: instructor, Title: "Go", Published: true}
	seed(t, db, course)

	payload := map[string]any{"course_id": course.ID.String(), "title": "Basics"}

	// the instructor may attach modules to their own course
	ins, err := serializer.New(TagModule, &serializer.Context{
		Ctx: context.Background(), DB: db, ActorID: instructor,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	attrs, err := ins.Deserialize(payload, serializer.OpCreate)
	if err != nil {
		t.Fatalf("deserialize as instructor: %v", err)
	}
	if attrs["course_id"] != course.ID.String() {
		t.Fatalf("course_id dropped: %v", attrs)
	}

	// anyone else is refused with the field-scoped message
	ins, err = serializer.New(TagModule, &serializer.Context{
		Ctx: context.Background(), DB: db, ActorID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = ins.Deserialize(payload, serializer.OpCreate)
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected api error, got %T: %v", err, err)
	}
	if ae.Status != 403 {
		t.Fatalf("expected 403, got %d", ae.Status)
	}
	if ae.Error() != "You do not have permission to use `course_id` with this id" {
		t.Fatalf("unexpected message %q", ae.Error())
	}
}

func TestRatingCourseFieldRequiresEnrollment(t *testing.T) {
	bootstrap(t)
	db := openTestDB(t)

	course := &types.Course{ID: uuid.New(), InstructorID: uuid.New(), Title: "Go", Published: true}
	student := uuid.New()
	seed(t, db,
		course,
		&types.Enrollment{ID: uuid.New(), UserID: student, CourseID: course.ID},
	)

	payload := map[string]any{"course_id": course.ID.String(), "rate": 5}

	ins, err := serializer.New(TagRating, &serializer.Context{
		Ctx: context.Background(), DB: db, ActorID: student,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := ins.Deserialize(payload, serializer.OpCreate); err != nil {
		t.Fatalf("deserialize as enrolled student: %v", err)
	}

	ins, err = serializer.New(TagRating, &serializer.Context{
		Ctx: context.Background(), DB: db, ActorID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = ins.Deserialize(payload, serializer.OpCreate)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != 403 {
		t.Fatalf("expected 403 for a stranger, got %v", err)
	}
}

func TestModuleOrderIsReadOnly(t *testing.T) {
	bootstrap(t)

	ins, err := serializer.New(TagModule, &serializer.Context{Ctx: context.Background()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	attrs, err := ins.Deserialize(map[string]any{"title": "t", "order": 7}, serializer.OpUpdate)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if _, ok := attrs["order"]; ok {
		t.Fatalf("order must never be writable: %v", attrs)
	}
}
