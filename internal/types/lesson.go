package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Lesson struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ModuleID uuid.UUID `gorm:"type:uuid;not null;index;column:module_id" json:"module_id"`
	Module   *Module   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	// CourseID is denormalized so lesson numbering can continue across the
	// whole course when a fresh module starts empty.
	CourseID  uuid.UUID      `gorm:"type:uuid;not null;index;column:course_id" json:"course_id"`
	Course    *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Content   string         `gorm:"column:content" json:"content"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	Order     int            `gorm:"column:order;not null" json:"order"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Quiz  *Quiz   `gorm:"foreignKey:LessonID;references:ID" json:"quiz,omitempty"`
	Notes []*Note `gorm:"foreignKey:LessonID;references:ID" json:"notes,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) OrderValue() int       { return l.Order }
func (l *Lesson) SetOrderValue(o int)   { l.Order = o }
func (l *Lesson) PartitionName() string { return "module" }

func (l *Lesson) Partition(tx *gorm.DB) *gorm.DB {
	return tx.Model(&Lesson{}).Where("module_id = ?", l.ModuleID)
}

func (l *Lesson) WiderPartition(tx *gorm.DB) *gorm.DB {
	return tx.Model(&Lesson{}).Where("course_id = ?", l.CourseID)
}
