package model

import (
	"time"

	"gorm.io/gorm"
)

// RosterGroup is one onboarding group. Group IDs are date-prefixed strings,
// so lexicographic order is chronological order; the cycle classifier
// depends on that convention.
type RosterGroup struct {
	ID        string         `gorm:"primarykey" json:"id"`
	Members   []RosterMember `json:"members,omitempty" gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type RosterMember struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	GroupID string `json:"group_id" gorm:"not null;index"`
	Trainee string `json:"trainee" gorm:"not null;index"`
}
