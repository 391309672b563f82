package model

import (
	"time"

	"gorm.io/gorm"
)

// Training phases a record can belong to.
const (
	PhaseAssessment   = "Assessment"
	PhaseFirstVetting = "1st Vetting"
	PhaseFinalVetting = "Final Vetting"
)

// Record is a normalized score entry for cross-test reporting, derived from
// submissions and manual capture. Deduplication key is (trainee, assessment);
// upserts overwrite score/date/cycle/phase/link in place and preserve ID.
// Records are eventually-consistent summaries, not a source of truth.
type Record struct {
	ID         string         `gorm:"primarykey" json:"id"` // uuid, stable across upserts
	GroupID    string         `json:"group_id" gorm:"index"`
	Trainee    string         `json:"trainee" gorm:"not null;index:idx_records_dedup"`
	Assessment string         `json:"assessment" gorm:"not null;index:idx_records_dedup"`
	Score      int            `json:"score"` // percent, 0-100
	Date       time.Time      `json:"date"`
	Phase      string         `json:"phase"`
	Cycle      string         `json:"cycle"`
	Link       string         `json:"link"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
