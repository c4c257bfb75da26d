package models

import (
	"time"
)

type Invitation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	QuizID    uint      `json:"quiz_id" gorm:"not null;index"`
	Code      string    `json:"code" gorm:"size:16;uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	MaxJoins  int       `json:"max_joins" gorm:"not null;default:1"`
	JoinCount int       `json:"join_count" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Quiz Quiz `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// IsValid reports whether the invitation can still admit a new participant.
func (i Invitation) IsValid(now time.Time) bool {
	return i.JoinCount < i.MaxJoins && now.Before(i.ExpiresAt)
}
