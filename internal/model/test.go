package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	TestTypeStandard = "standard"
	TestTypeVetting  = "vetting"
)

type Test struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Title       string         `json:"title" gorm:"not null;uniqueIndex"`
	Type        string         `json:"type" gorm:"not null;default:'standard'"` // "standard", "vetting"
	DurationMin int            `json:"duration_min"`                            // countdown, vetting tests only
	Shuffle     bool           `json:"shuffle"`
	Questions   []Question     `json:"questions,omitempty" gorm:"foreignKey:TestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
