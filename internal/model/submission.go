package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	SubmissionPending       = "pending"
	SubmissionCompleted     = "completed"
	SubmissionRetakeAllowed = "retake_allowed"
)

// Submission is one trainee's attempt at a test. Answers holds the raw JSON
// map from question position to answer, exactly as submitted. Superseded
// attempts are archived, never deleted, so the audit history survives retakes.
// At most one non-archived submission exists per (trainee, test); the
// submission service enforces this inside a transaction.
type Submission struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	TestID         uint           `json:"test_id" gorm:"not null;index"`
	Test           Test           `json:"test,omitempty" gorm:"foreignKey:TestID"`
	TestTitle      string         `json:"test_title" gorm:"not null"`
	Trainee        string         `json:"trainee" gorm:"not null;index"`
	Answers        string         `json:"answers" gorm:"type:jsonb;not null"`
	Score          int            `json:"score"` // percent, 0-100
	Status         string         `json:"status" gorm:"default:'completed'"`
	RequiresReview bool           `json:"requires_review"`
	Archived       bool           `json:"archived" gorm:"default:false;index"`
	SubmittedAt    time.Time      `json:"submitted_at" gorm:"autoCreateTime"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
