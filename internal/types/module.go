package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Module struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID    uuid.UUID      `gorm:"type:uuid;not null;index;column:course_id" json:"course_id"`
	Course      *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	Order       int            `gorm:"column:order;not null" json:"order"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Lessons []*Lesson `gorm:"foreignKey:ModuleID;references:ID" json:"lessons,omitempty"`
}

func (Module) TableName() string { return "module" }

// Ordered-list engine hooks: modules are sequenced within their course.

func (m *Module) OrderValue() int      { return m.Order }
func (m *Module) SetOrderValue(o int)  { m.Order = o }
func (m *Module) PartitionName() string { return "course" }

func (m *Module) Partition(tx *gorm.DB) *gorm.DB {
	return tx.Model(&Module{}).Where("course_id = ?", m.CourseID)
}

func (m *Module) WiderPartition(tx *gorm.DB) *gorm.DB { return nil }
