package services

import (
	"time"

	"github.com/shopspring/decimal"
)

// Live event types pushed to a quiz creator's dashboard.
const (
	EventParticipantJoined = "participant_joined"
	EventAnswerSubmitted   = "answer_submitted"
	EventQuizCompleted     = "quiz_completed"
	EventRoster            = "roster"
)

// Notifier fans quiz events out to whoever is watching the quiz. Delivery is
// best effort; the database stays the source of truth.
type Notifier interface {
	BroadcastToQuiz(quizID uint, messageType string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) BroadcastToQuiz(uint, string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

type ParticipantEvent struct {
	UserID   uint      `json:"user_id"`
	QuizID   uint      `json:"quiz_id"`
	JoinedAt time.Time `json:"joined_at"`
	Via      string    `json:"via"` // password, invitation
}

type AnswerEvent struct {
	UserID     uint                `json:"user_id"`
	QuizID     uint                `json:"quiz_id"`
	QuestionID uint                `json:"question_id"`
	IsCorrect  bool                `json:"is_correct"`
	Score      decimal.NullDecimal `json:"score"`
}

type CompletionEvent struct {
	UserID     uint            `json:"user_id"`
	QuizID     uint            `json:"quiz_id"`
	FinishedAt time.Time       `json:"finished_at"`
	Score      decimal.Decimal `json:"score"`
}
