package model

import (
	"time"

	"gorm.io/gorm"
)

// Question is one evaluable item inside a test. AnswerKey is the raw JSON
// key whose shape is declared by Type; it is validated on test creation.
type Question struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	TestID      uint           `json:"test_id" gorm:"not null;index"`
	Text        string         `json:"text" gorm:"type:text;not null"`
	Type        string         `json:"type" gorm:"not null"` // see scoring.QuestionType
	Points      float64        `json:"points" gorm:"default:1"`
	OrderInTest int            `json:"order_in_test" gorm:"not null"`
	AnswerKey   string         `json:"answer_key,omitempty" gorm:"type:jsonb;not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
