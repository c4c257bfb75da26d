package models

import (
	"time"
)

const (
	QuestionTypeMCQ  = "MCQ"
	QuestionTypeText = "TEXT"
)

type Question struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	QuizID          uint      `json:"quiz_id" gorm:"not null;index"`
	Content         string    `json:"content" gorm:"type:text;not null"`
	Type            string    `json:"type" gorm:"size:9;not null;default:'MCQ'"` // MCQ, TEXT
	CorrectChoiceID *uint     `json:"correct_choice"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relationships
	Choices []Choice `json:"choices,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// IsCorrect reports whether choiceID is the designated answer. Only
// multiple-choice questions are ever scored.
func (q Question) IsCorrect(choiceID uint) bool {
	if q.Type != QuestionTypeMCQ || q.CorrectChoiceID == nil {
		return false
	}
	return *q.CorrectChoiceID == choiceID
}
