package models

import (
	"time"
)

type Quiz struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Title           string     `json:"title" gorm:"not null"`
	Description     string     `json:"description"`
	PasswordHash    string     `json:"-"`
	CreatorID       uint       `json:"creator_id" gorm:"not null;index"`
	StartTime       *time.Time `json:"start_time"`
	DurationSeconds *int64     `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Relationships
	Creator   User       `json:"-" gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

// HasPassword reports whether joining the quiz directly requires a password.
func (q Quiz) HasPassword() bool {
	return q.PasswordHash != ""
}

// Window returns the interval during which the quiz can be taken. Either
// bound may be nil when the quiz is not time-boxed.
func (q Quiz) Window() (opens, closes *time.Time) {
	if q.StartTime == nil {
		return nil, nil
	}
	opens = q.StartTime
	if q.DurationSeconds != nil && *q.DurationSeconds > 0 {
		end := q.StartTime.Add(time.Duration(*q.DurationSeconds) * time.Second)
		closes = &end
	}
	return opens, closes
}

func (Quiz) TableName() string { return "quizzes" }
