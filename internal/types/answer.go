package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Answer is a generic association: ContentType names the allow-listed target
// model ("question" or "answer" for replies) and ContentID its primary key.
type Answer struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CreatorID   uuid.UUID      `gorm:"type:uuid;not null;index;column:creator_id" json:"creator_id"`
	Creator     *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:CreatorID;references:ID" json:"creator,omitempty"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index;column:course_id" json:"course_id"`
	Course      *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	ContentType string         `gorm:"column:content_type;not null;index:idx_answer_target" json:"content_type"`
	ContentID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_answer_target;column:content_id" json:"object_id"`
	Body        string         `gorm:"column:body;not null" json:"body"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Replies []*Answer `gorm:"polymorphic:Content;polymorphicValue:answer" json:"replies,omitempty"`

	LikesCount    *int64 `gorm:"->;-:migration;column:likes_count" json:"-"`
	DislikesCount *int64 `gorm:"->;-:migration;column:dislikes_count" json:"-"`
}

func (Answer) TableName() string { return "answer" }
