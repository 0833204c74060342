package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Quiz struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LessonID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex;column:lesson_id" json:"lesson_id"`
	Lesson    *Lesson        `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Questions []*QuizQuestion `gorm:"foreignKey:QuizID;references:ID" json:"questions,omitempty"`
}

func (Quiz) TableName() string { return "quiz" }

type QuizQuestion struct {
	ID      uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuizID  uuid.UUID      `gorm:"type:uuid;not null;index;column:quiz_id" json:"quiz_id"`
	Quiz    *Quiz          `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID;references:ID" json:"quiz,omitempty"`
	Prompt  string         `gorm:"column:prompt;not null" json:"prompt"`
	Choices datatypes.JSON `gorm:"column:choices;type:jsonb" json:"choices"`
	// AnswerIndex is never serialized toward students; quiz checking compares
	// against it server side.
	AnswerIndex int            `gorm:"column:answer_index;not null" json:"-"`
	Order       int            `gorm:"column:order;not null" json:"order"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }

func (q *QuizQuestion) OrderValue() int       { return q.Order }
func (q *QuizQuestion) SetOrderValue(o int)   { q.Order = o }
func (q *QuizQuestion) PartitionName() string { return "quiz" }

func (q *QuizQuestion) Partition(tx *gorm.DB) *gorm.DB {
	return tx.Model(&QuizQuestion{}).Where("quiz_id = ?", q.QuizID)
}

func (q *QuizQuestion) WiderPartition(tx *gorm.DB) *gorm.DB { return nil }
