package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Question struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID  uuid.UUID      `gorm:"type:uuid;not null;index;column:course_id" json:"course_id"`
	Course    *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	CreatorID uuid.UUID      `gorm:"type:uuid;not null;index;column:creator_id" json:"creator_id"`
	Creator   *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:CreatorID;references:ID" json:"creator,omitempty"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Body      string         `gorm:"column:body" json:"body"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Reverse side of the generic association: answers whose content target
	// is this question.
	Answers []*Answer `gorm:"polymorphic:Content;polymorphicValue:question" json:"answers,omitempty"`

	AnswersCount  *int64 `gorm:"->;-:migration;column:answers_count" json:"-"`
	LikesCount    *int64 `gorm:"->;-:migration;column:likes_count" json:"-"`
	DislikesCount *int64 `gorm:"->;-:migration;column:dislikes_count" json:"-"`
}

func (Question) TableName() string { return "question" }
