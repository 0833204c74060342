package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	InstructorID uuid.UUID      `gorm:"type:uuid;not null;index;column:instructor_id" json:"instructor_id"`
	Instructor   *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:InstructorID;references:ID" json:"instructor,omitempty"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	Description  string         `gorm:"column:description" json:"description"`
	PriceCents   int64          `gorm:"column:price_cents;not null;default:0" json:"price_cents"`
	Published    bool           `gorm:"column:published;not null;default:false" json:"published"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Modules     []*Module     `gorm:"foreignKey:CourseID;references:ID" json:"modules,omitempty"`
	Ratings     []*Rating     `gorm:"foreignKey:CourseID;references:ID" json:"ratings,omitempty"`
	Questions   []*Question   `gorm:"foreignKey:CourseID;references:ID" json:"questions,omitempty"`
	Enrollments []*Enrollment `gorm:"foreignKey:CourseID;references:ID" json:"enrollments,omitempty"`

	// Query-time aggregate outputs, populated only when the matching
	// annotation is selected. Never migrated, never written.
	RatingAvg     *float64 `gorm:"->;-:migration;column:rating_avg" json:"-"`
	RatingsCount  *int64   `gorm:"->;-:migration;column:ratings_count" json:"-"`
	StudentsCount *int64   `gorm:"->;-:migration;column:students_count" json:"-"`
	LessonsCount  *int64   `gorm:"->;-:migration;column:lessons_count" json:"-"`
	LikesCount    *int64   `gorm:"->;-:migration;column:likes_count" json:"-"`
	DislikesCount *int64   `gorm:"->;-:migration;column:dislikes_count" json:"-"`
}

func (Course) TableName() string { return "course" }
