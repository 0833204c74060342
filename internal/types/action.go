package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionLike    = 1
	ActionDislike = 2
)

// Action is a like/dislike on any allow-listed target (question, answer,
// rating, course). The storage-layer unique index is the only defense against
// two concurrent duplicate likes; the application does not lock here.
type Action struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CreatorID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_action_unique;column:creator_id" json:"creator_id"`
	Creator     *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:CreatorID;references:ID" json:"creator,omitempty"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_action_unique;column:course_id" json:"course_id"`
	Course      *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	ContentType string         `gorm:"column:content_type;not null;uniqueIndex:idx_action_unique" json:"content_type"`
	ContentID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_action_unique;column:content_id" json:"object_id"`
	Action      int            `gorm:"column:action;not null;uniqueIndex:idx_action_unique" json:"action"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Action) TableName() string { return "action" }
