package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	SessionKindLive    = "live"
	SessionKindVetting = "vetting"
)

// LiveSession is a proctored sitting of one test. Completion markers gate
// re-entry; granting a retake clears the trainee's marker so they can rejoin.
type LiveSession struct {
	ID          string              `gorm:"primarykey" json:"id"` // uuid
	TestID      uint                `json:"test_id" gorm:"not null;index"`
	Test        Test                `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Kind        string              `json:"kind" gorm:"not null;default:'live'"`
	Active      bool                `json:"active" gorm:"default:true;index"`
	StartedAt   time.Time           `json:"started_at"`
	Completions []SessionCompletion `json:"completions,omitempty" gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	DeletedAt   gorm.DeletedAt      `gorm:"index" json:"-"`
}

type SessionCompletion struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	SessionID   string    `json:"session_id" gorm:"not null;index"`
	Trainee     string    `json:"trainee" gorm:"not null;index"`
	CompletedAt time.Time `json:"completed_at" gorm:"autoCreateTime"`
}
