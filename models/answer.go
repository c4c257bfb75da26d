package models

import (
	"time"
)

type Answer struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_answer_user_question"`
	QuizID     uint      `json:"quiz_id" gorm:"not null;uniqueIndex:idx_answer_user_question;index"`
	QuestionID uint      `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_user_question"`
	ChoiceID   uint      `json:"choice_id" gorm:"not null"`
	IsCorrect  bool      `json:"is_correct" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
