// Package serializers registers, at startup, the serializer definition for
// every entity the API exposes, the per-model annotation registries, and the
// allow-list of generic association targets. Handlers and services resolve
// everything here by tag; nothing is discovered lazily.
package serializers

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/annotations"
	"coursemart/internal/apierr"
	"coursemart/internal/generic"
	"coursemart/internal/permissions"
	"coursemart/internal/serializer"
	"coursemart/internal/types"
)

const (
	TagUser         = "user"
	TagCourse       = "course"
	TagEnrollment   = "enrollment"
	TagModule       = "module"
	TagLesson       = "lesson"
	TagQuiz         = "quiz"
	TagQuizQuestion = "quiz_question"
	TagRating       = "rating"
	TagQuestion     = "question"
	TagAnswer       = "answer"
	TagAction       = "action"
	TagNote         = "note"
)

// Bootstrap wires the full registry. Call once from main before the router
// starts serving; duplicate registration panics.
func Bootstrap() {
	registerUser()
	registerCourse()
	registerEnrollment()
	registerModule()
	registerLesson()
	registerQuiz()
	registerRating()
	registerQuestion()
	registerAnswer()
	registerAction()
	registerNote()
	registerGenericTargets()
}

// Reset clears every registry. Test hook.
func Reset() {
	serializer.Reset()
	generic.Reset()
}

func registerUser() {
	serializer.Register(&serializer.Definition{
		Tag:           TagUser,
		Model:         types.User{},
		Table:         types.User{}.TableName(),
		Fields:        []string{"id", "email", "first_name", "last_name", "created_at"},
		MinFields:     []string{"id"},
		DefaultFields: []string{"id", "email", "first_name", "last_name"},
		ReadOnly:      []string{"id", "email", "created_at"},
	})
}

func registerCourse() {
	ann := annotations.NewRegistry(types.Course{}.TableName()).
		Define(annotations.Definition{
			Name: "rating_avg", Field: "RatingAvg",
			Aggregate: "AVG", Table: types.Rating{}.TableName(),
			FK: "course_id", Column: "rate", Output: annotations.OutputFloat,
		}).
		Define(annotations.Definition{
			Name: "ratings_count", Field: "RatingsCount",
			Aggregate: "COUNT", Table: types.Rating{}.TableName(),
			FK: "course_id", Output: annotations.OutputInt,
		}).
		Define(annotations.Definition{
			Name: "students_count", Field: "StudentsCount",
			Aggregate: "COUNT", Table: types.Enrollment{}.TableName(),
			FK: "course_id", Column: "user_id", Distinct: true,
			Output: annotations.OutputInt,
		}).
		Define(annotations.Definition{
			Name: "lessons_count", Field: "LessonsCount",
			Aggregate: "COUNT", Table: types.Lesson{}.TableName(),
			FK: "course_id", Output: annotations.OutputInt,
		}).
		DefineGroup(annotations.Group{
			Name: "engagement",
			Members: []annotations.Definition{
				likesOn(types.Course{}.TableName(), "LikesCount", "likes_count"),
				dislikesOn(types.Course{}.TableName(), "DislikesCount", "dislikes_count"),
			},
		})
	serializer.Register(&serializer.Definition{
		Tag:   TagCourse,
		Model: types.Course{},
		Table: types.Course{}.TableName(),
		Fields: []string{
			"id", "instructor_id", "title", "description", "price_cents",
			"published", "metadata", "created_at", "updated_at",
		},
		MinFields:     []string{"id", "title"},
		DefaultFields: []string{"id", "instructor_id", "title", "description", "price_cents", "published"},
		ReadOnly:      []string{"id", "instructor_id", "created_at", "updated_at"},
		Annotations:   ann,
		Related: map[string]serializer.Relation{
			"instructor": {Serializer: TagUser, Association: "Instructor"},
			"modules": {
				Serializer: TagModule, Association: "Modules", Many: true,
				Filter:      orderedBy(types.Module{}.TableName()),
				Permissions: []serializer.RelationCheck{courseContentVisible},
			},
			"ratings": {Serializer: TagRating, Association: "Ratings", Many: true},
			"questions": {
				Serializer: TagQuestion, Association: "Questions", Many: true,
				Permissions: []serializer.RelationCheck{courseContentVisible},
			},
		},
	})
}

func registerEnrollment() {
	serializer.Register(&serializer.Definition{
		Tag:        TagEnrollment,
		Model:      types.Enrollment{},
		Table:      types.Enrollment{}.TableName(),
		Fields:     []string{"id", "user_id", "course_id", "created_at"},
		MinFields:  []string{"id"},
		ReadOnly:   []string{"id", "user_id", "created_at"},
		CreateOnly: []string{"course_id"},
		Related: map[string]serializer.Relation{
			"course": {Serializer: TagCourse, Association: "Course"},
			"user":   {Serializer: TagUser, Association: "User"},
		},
	})
}

func registerModule() {
	serializer.Register(&serializer.Definition{
		Tag:           TagModule,
		Model:         types.Module{},
		Table:         types.Module{}.TableName(),
		Fields:        []string{"id", "course_id", "title", "description", "order", "created_at", "updated_at"},
		MinFields:     []string{"id", "title", "order"},
		DefaultFields: []string{"id", "course_id", "title", "description", "order"},
		ReadOnly:      []string{"id", "order", "created_at", "updated_at"},
		CreateOnly:    []string{"course_id"},
		FieldPerms: []serializer.FieldPermission{{
			Fields:  []string{"course_id"},
			Resolve: resolveCourse,
			Checks:  []serializer.Check{instructorCheck},
		}},
		Related: map[string]serializer.Relation{
			"course": {Serializer: TagCourse, Association: "Course"},
			"lessons": {
				Serializer: TagLesson, Association: "Lessons", Many: true,
				Filter: orderedBy(types.Lesson{}.TableName()),
			},
		},
	})
}

func registerLesson() {
	serializer.Register(&serializer.Definition{
		Tag:   TagLesson,
		Model: types.Lesson{},
		Table: types.Lesson{}.TableName(),
		Fields: []string{
			"id", "module_id", "course_id", "title", "content", "metadata",
			"order", "created_at", "updated_at",
		},
		MinFields:     []string{"id", "title", "order"},
		DefaultFields: []string{"id", "module_id", "course_id", "title", "order"},
		ReadOnly:      []string{"id", "course_id", "order", "created_at", "updated_at"},
		CreateOnly:    []string{"module_id"},
		FieldPerms: []serializer.FieldPermission{{
			Fields:  []string{"module_id"},
			Resolve: resolveModuleCourse,
			Checks:  []serializer.Check{instructorCheck},
		}},
		Related: map[string]serializer.Relation{
			"module": {Serializer: TagModule, Association: "Module"},
			"quiz":   {Serializer: TagQuiz, Association: "Quiz"},
		},
	})
}

func registerQuiz() {
	serializer.Register(&serializer.Definition{
		Tag:        TagQuiz,
		Model:      types.Quiz{},
		Table:      types.Quiz{}.TableName(),
		Fields:     []string{"id", "lesson_id", "title", "created_at", "updated_at"},
		MinFields:  []string{"id", "title"},
		ReadOnly:   []string{"id", "created_at", "updated_at"},
		CreateOnly: []string{"lesson_id"},
		Related: map[string]serializer.Relation{
			"questions": {
				Serializer: TagQuizQuestion, Association: "Questions", Many: true,
				Filter: orderedBy(types.QuizQuestion{}.TableName()),
			},
		},
	})
	serializer.Register(&serializer.Definition{
		Tag:        TagQuizQuestion,
		Model:      types.QuizQuestion{},
		Table:      types.QuizQuestion{}.TableName(),
		Fields:     []string{"id", "quiz_id", "prompt", "choices", "order", "created_at", "updated_at"},
		MinFields:  []string{"id", "prompt", "order"},
		ReadOnly:   []string{"id", "order", "created_at", "updated_at"},
		CreateOnly: []string{"quiz_id"},
	})
}

func registerRating() {
	ann := annotations.NewRegistry(types.Rating{}.TableName()).
		Define(likesOn(types.Rating{}.TableName(), "LikesCount", "likes_count")).
		Define(dislikesOn(types.Rating{}.TableName(), "DislikesCount", "dislikes_count"))
	serializer.Register(&serializer.Definition{
		Tag:           TagRating,
		Model:         types.Rating{},
		Table:         types.Rating{}.TableName(),
		Fields:        []string{"id", "course_id", "creator_id", "rate", "body", "created_at", "updated_at"},
		MinFields:     []string{"id", "rate"},
		DefaultFields: []string{"id", "course_id", "creator_id", "rate", "body"},
		ReadOnly:      []string{"id", "creator_id", "created_at", "updated_at"},
		CreateOnly:    []string{"course_id"},
		Annotations:   ann,
		FieldPerms: []serializer.FieldPermission{{
			Fields:  []string{"course_id"},
			Resolve: resolveCourse,
			Checks:  []serializer.Check{enrolledCheck},
		}},
		Related: map[string]serializer.Relation{
			"creator": {Serializer: TagUser, Association: "Creator"},
		},
	})
}

func registerQuestion() {
	ann := annotations.NewRegistry(types.Question{}.TableName()).
		Define(annotations.Definition{
			Name: "answers_count", Field: "AnswersCount",
			Aggregate: "COUNT", Table: types.Answer{}.TableName(),
			FK:    "content_id",
			Where: []annotations.Cond{{Column: "content_type", Value: TagQuestion}},
			Output: annotations.OutputInt,
		}).
		Define(likesOn(types.Question{}.TableName(), "LikesCount", "likes_count")).
		Define(dislikesOn(types.Question{}.TableName(), "DislikesCount", "dislikes_count"))
	serializer.Register(&serializer.Definition{
		Tag:           TagQuestion,
		Model:         types.Question{},
		Table:         types.Question{}.TableName(),
		Fields:        []string{"id", "course_id", "creator_id", "title", "body", "created_at", "updated_at"},
		MinFields:     []string{"id", "title"},
		DefaultFields: []string{"id", "course_id", "creator_id", "title", "body"},
		ReadOnly:      []string{"id", "creator_id", "created_at", "updated_at"},
		CreateOnly:    []string{"course_id"},
		Annotations:   ann,
		FieldPerms: []serializer.FieldPermission{{
			Fields:  []string{"course_id"},
			Resolve: resolveCourse,
			Checks:  []serializer.Check{enrolledCheck},
		}},
		Related: map[string]serializer.Relation{
			"creator": {Serializer: TagUser, Association: "Creator"},
			"answers": {Serializer: TagAnswer, Association: "Answers", Many: true},
		},
	})
}

func registerAnswer() {
	ann := annotations.NewRegistry(types.Answer{}.TableName()).
		Define(likesOn(types.Answer{}.TableName(), "LikesCount", "likes_count")).
		Define(dislikesOn(types.Answer{}.TableName(), "DislikesCount", "dislikes_count"))
	serializer.Register(&serializer.Definition{
		Tag:   TagAnswer,
		Model: types.Answer{},
		Table: types.Answer{}.TableName(),
		Fields: []string{
			"id", "creator_id", "course_id", "content_type", "object_id",
			"body", "created_at", "updated_at",
		},
		MinFields:     []string{"id", "body"},
		DefaultFields: []string{"id", "creator_id", "course_id", "content_type", "object_id", "body"},
		ReadOnly:      []string{"id", "creator_id", "created_at", "updated_at"},
		CreateOnly:    []string{"course_id", "content_type", "object_id"},
		Annotations:   ann,
		Related: map[string]serializer.Relation{
			"creator": {Serializer: TagUser, Association: "Creator"},
			"replies": {Serializer: TagAnswer, Association: "Replies", Many: true},
		},
	})
}

func registerAction() {
	serializer.Register(&serializer.Definition{
		Tag:   TagAction,
		Model: types.Action{},
		Table: types.Action{}.TableName(),
		Fields: []string{
			"id", "creator_id", "course_id", "content_type", "object_id",
			"action", "created_at",
		},
		MinFields:  []string{"id", "action"},
		ReadOnly:   []string{"id", "creator_id", "created_at"},
		CreateOnly: []string{"course_id", "content_type", "object_id", "action"},
		Related: map[string]serializer.Relation{
			"creator": {Serializer: TagUser, Association: "Creator"},
		},
	})
}

func registerNote() {
	serializer.Register(&serializer.Definition{
		Tag:        TagNote,
		Model:      types.Note{},
		Table:      types.Note{}.TableName(),
		Fields:     []string{"id", "creator_id", "lesson_id", "title", "body", "created_at", "updated_at"},
		MinFields:  []string{"id", "title"},
		ReadOnly:   []string{"id", "creator_id", "created_at", "updated_at"},
		CreateOnly: []string{"lesson_id"},
		FieldPerms: []serializer.FieldPermission{{
			Fields:  []string{"lesson_id"},
			Resolve: resolveLessonCourse,
			Checks:  []serializer.Check{enrolledCheck},
		}},
		Related: map[string]serializer.Relation{
			"lesson": {Serializer: TagLesson, Association: "Lesson"},
		},
	})
}

// registerGenericTargets declares which model names actions and answers may
// point at. The wire discriminant is the lowercased tag.
func registerGenericTargets() {
	generic.Register(generic.Entry{
		Tag: TagCourse, Table: types.Course{}.TableName(),
		SerializerTag: TagCourse, New: func() any { return &types.Course{} },
	})
	generic.Register(generic.Entry{
		Tag: TagQuestion, Table: types.Question{}.TableName(),
		SerializerTag: TagQuestion, New: func() any { return &types.Question{} },
	})
	generic.Register(generic.Entry{
		Tag: TagAnswer, Table: types.Answer{}.TableName(),
		SerializerTag: TagAnswer, New: func() any { return &types.Answer{} },
	})
	generic.Register(generic.Entry{
		Tag: TagRating, Table: types.Rating{}.TableName(),
		SerializerTag: TagRating, New: func() any { return &types.Rating{} },
	})
}

// likesOn / dislikesOn build the per-target like and dislike counters over the
// action table, discriminated by the owning model's tag.
func likesOn(targetTag, field, name string) annotations.Definition {
	return actionCount(targetTag, field, name, types.ActionLike)
}

func dislikesOn(targetTag, field, name string) annotations.Definition {
	return actionCount(targetTag, field, name, types.ActionDislike)
}

func actionCount(targetTag, field, name string, action int) annotations.Definition {
	return annotations.Definition{
		Name: name, Field: field,
		Aggregate: "COUNT", Table: types.Action{}.TableName(),
		FK: "content_id",
		Where: []annotations.Cond{
			{Column: "content_type", Value: targetTag},
			{Column: "action", Value: action},
		},
		Output: annotations.OutputInt,
	}
}

func orderedBy(table string) func(tx *gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order(fmt.Sprintf("%q.%q", table, "order"))
	}
}

func parseID(raw any) (uuid.UUID, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, apierr.ValidationError{"detail": "invalid id"}
		}
		return id, nil
	default:
		return uuid.Nil, apierr.ValidationError{"detail": "invalid id"}
	}
}

func resolveCourse(c *serializer.Context, raw any) (any, error) {
	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}
	return permissions.CourseByID(c.DB, id)
}

// resolveModuleCourse maps a submitted module id to the course that owns it,
// the object the write checks evaluate.
func resolveModuleCourse(c *serializer.Context, raw any) (any, error) {
	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}
	var mod types.Module
	if err := c.DB.Where("id = ?", id).First(&mod).Error; err != nil {
		if apierr.Translate(err) == apierr.ErrNotFound {
			return nil, apierr.NotFound("module_not_found", fmt.Errorf("no module with id %s", id))
		}
		return nil, err
	}
	return permissions.CourseByID(c.DB, mod.CourseID)
}

func resolveLessonCourse(c *serializer.Context, raw any) (any, error) {
	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}
	var lesson types.Lesson
	if err := c.DB.Where("id = ?", id).First(&lesson).Error; err != nil {
		if apierr.Translate(err) == apierr.ErrNotFound {
			return nil, apierr.NotFound("lesson_not_found", fmt.Errorf("no lesson with id %s", id))
		}
		return nil, err
	}
	return permissions.CourseByID(c.DB, lesson.CourseID)
}

func instructorCheck(c *serializer.Context, value any) error {
	course, ok := value.(*types.Course)
	if !ok {
		return apierr.ErrForbidden
	}
	return permissions.IsInstructor(c.ActorID, course)
}

func enrolledCheck(c *serializer.Context, value any) error {
	course, ok := value.(*types.Course)
	if !ok {
		return apierr.ErrForbidden
	}
	return permissions.IsEnrolled(c.DB, c.ActorID, course)
}

// courseContentVisible gates expansion of a course's teaching content:
// published courses are open, unpublished ones only to their instructor and
// enrolled students.
func courseContentVisible(c *serializer.Context, parent any) error {
	course := asCourse(parent)
	if course == nil {
		return apierr.ErrForbidden
	}
	if course.Published {
		return nil
	}
	return permissions.IsEnrolled(c.DB, c.ActorID, course)
}

func asCourse(v any) *types.Course {
	switch t := v.(type) {
	case *types.Course:
		return t
	case types.Course:
		return &t
	}
	return nil
}
