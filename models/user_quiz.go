package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserQuiz is the participation ledger: at most one row per (user, quiz).
type UserQuiz struct {
	ID         uint                `json:"id" gorm:"primaryKey"`
	UserID     uint                `json:"user_id" gorm:"not null;uniqueIndex:idx_user_quiz"`
	QuizID     uint                `json:"quiz_id" gorm:"not null;uniqueIndex:idx_user_quiz;index"`
	JoinedAt   time.Time           `json:"joined_at" gorm:"not null"`
	StartedAt  *time.Time          `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at"`
	Score      decimal.NullDecimal `json:"score" gorm:"type:decimal(5,2)"`
	Completed  bool                `json:"completed" gorm:"not null;default:false"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`

	// Relationships
	User User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Quiz Quiz `json:"quiz,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

func (UserQuiz) TableName() string { return "user_quizzes" }
