// Package dto holds the JSON shapes returned by the HTTP API. Models are
// mapped onto them with copier so storage-only fields never leak.
package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type UserBrief struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type ChoiceResponse struct {
	ID         uint   `json:"id"`
	QuestionID uint   `json:"question"`
	Content    string `json:"content"`
}

type QuestionResponse struct {
	ID              uint             `json:"id"`
	QuizID          uint             `json:"quiz"`
	Content         string           `json:"content"`
	Type            string           `json:"type"`
	CorrectChoiceID *uint            `json:"correct_choice"`
	Choices         []ChoiceResponse `json:"choices"`
}

type QuizResponse struct {
	ID              uint               `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	HasPassword     bool               `json:"has_password"`
	CreatorID       uint               `json:"creator"`
	StartTime       *time.Time         `json:"start_time"`
	DurationSeconds *int64             `json:"duration_seconds"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Questions       []QuestionResponse `json:"questions"`
}

type QuizSummaryResponse struct {
	ID               uint       `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	HasPassword      bool       `json:"has_password"`
	StartTime        *time.Time `json:"start_time"`
	DurationSeconds  *int64     `json:"duration_seconds"`
	CreatedAt        time.Time  `json:"created_at"`
	QuestionCount    int64      `json:"question_count"`
	ParticipantCount int64      `json:"participant_count"`
}

type QuizBrief struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	StartTime       *time.Time `json:"start_time"`
	DurationSeconds *int64     `json:"duration_seconds"`
}

type InvitationResponse struct {
	ID        uint      `json:"id"`
	QuizID    uint      `json:"quiz"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	MaxJoins  int       `json:"max_joins"`
	JoinCount int       `json:"join_count"`
	CreatedAt time.Time `json:"created_at"`
}

type ParticipationResponse struct {
	ID         uint                `json:"id"`
	UserID     uint                `json:"user"`
	QuizID     uint                `json:"quiz"`
	JoinedAt   time.Time           `json:"joined_at"`
	StartedAt  *time.Time          `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at"`
	Score      decimal.NullDecimal `json:"score"`
	Completed  bool                `json:"completed"`
}

type TakenQuizResponse struct {
	ID         uint                `json:"id"`
	JoinedAt   time.Time           `json:"joined_at"`
	StartedAt  *time.Time          `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at"`
	Score      decimal.NullDecimal `json:"score"`
	Completed  bool                `json:"completed"`
	Quiz       QuizBrief           `json:"quiz"`
}

type ParticipantResponse struct {
	ID         uint                `json:"id"`
	User       UserBrief           `json:"user"`
	JoinedAt   time.Time           `json:"joined_at"`
	StartedAt  *time.Time          `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at"`
	Score      decimal.NullDecimal `json:"score"`
	Completed  bool                `json:"completed"`
}

type JoinResponse struct {
	Message       string                `json:"message"`
	Participation ParticipationResponse `json:"participation"`
}

type PlayChoice struct {
	ID      uint   `json:"id"`
	Content string `json:"content"`
}

// PlayQuestion omits the correct choice.
type PlayQuestion struct {
	ID      uint         `json:"id"`
	Content string       `json:"content"`
	Type    string       `json:"type"`
	Choices []PlayChoice `json:"choices"`
}

type PlayAnswer struct {
	QuestionID uint `json:"question"`
	ChoiceID   uint `json:"choice"`
}

type PlayQuizResponse struct {
	ID              uint                   `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	StartTime       *time.Time             `json:"start_time"`
	DurationSeconds *int64                 `json:"duration_seconds"`
	Questions       []PlayQuestion         `json:"questions"`
	Participation   *ParticipationResponse `json:"participation,omitempty"`
	Answers         []PlayAnswer           `json:"answers"`
}

type UserQuizzesResponse struct {
	Created []QuizSummaryResponse `json:"created_quizzes"`
	Taken   []TakenQuizResponse   `json:"taken_quizzes"`
}
