package services

import (
	"context"
	"time"

	"quizgate/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MessageJoined        = "Successfully joined the quiz"
	MessageAlreadyJoined = "Already joined this quiz"
)

type ParticipationService struct {
	db       *gorm.DB
	limiter  *JoinLimiter
	notifier Notifier
	now      func() time.Time
}

func NewParticipationService(db *gorm.DB, limiter *JoinLimiter, notifier Notifier) *ParticipationService {
	return &ParticipationService{
		db:       db,
		limiter:  limiter,
		notifier: notifierOrNop(notifier),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type JoinQuizRequest struct {
	QuizID   uint   `json:"quiz_id" binding:"required"`
	Password string `json:"password"`
}

type JoinResult struct {
	Message       string           `json:"message"`
	Created       bool             `json:"created"`
	Participation *models.UserQuiz `json:"participation"`
}

func newJoinResult(p *models.UserQuiz, created bool) *JoinResult {
	msg := MessageAlreadyJoined
	if created {
		msg = MessageJoined
	}
	return &JoinResult{Message: msg, Created: created, Participation: p}
}

// PlayableQuiz is what a participant sees while taking a quiz.
type PlayableQuiz struct {
	Quiz          models.Quiz
	Participation *models.UserQuiz
	Answers       []models.Answer
}

// getOrCreateParticipation inserts the (user, quiz) row unless it already
// exists. The unique index decides races: a conflicting insert affects no rows
// and the existing row is read back.
func getOrCreateParticipation(tx *gorm.DB, userID, quizID uint, now time.Time) (*models.UserQuiz, bool, error) {
	p := models.UserQuiz{UserID: userID, QuizID: quizID, JoinedAt: now}
	res := tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "quiz_id"}},
			DoNothing: true,
		}).
		Create(&p)
	if res.Error != nil && !isUniqueViolation(res.Error) {
		return nil, false, res.Error
	}
	if res.Error == nil && res.RowsAffected == 1 {
		return &p, true, nil
	}

	var existing models.UserQuiz
	if err := tx.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func findParticipation(db *gorm.DB, userID, quizID uint) (*models.UserQuiz, error) {
	var p models.UserQuiz
	if err := db.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&p).Error; err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("you have not joined this quiz")
		}
		return nil, err
	}
	return &p, nil
}

func findQuiz(db *gorm.DB, quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := db.First(&quiz, quizID).Error; err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("quiz not found")
		}
		return nil, err
	}
	return &quiz, nil
}

func checkWindow(quiz *models.Quiz, now time.Time) error {
	opens, closes := quiz.Window()
	if opens != nil && now.Before(*opens) {
		return NewValidationError("quiz has not started yet")
	}
	if closes != nil && !now.Before(*closes) {
		return NewValidationError("quiz has ended")
	}
	return nil
}

// computeScore is the percentage of the quiz's MCQ questions answered
// correctly, rounded to two decimals.
func computeScore(db *gorm.DB, userID, quizID uint) (decimal.Decimal, error) {
	var total, correct int64
	err := db.Model(&models.Question{}).
		Where("quiz_id = ? AND type = ?", quizID, models.QuestionTypeMCQ).
		Count(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if total == 0 {
		return decimal.Zero, nil
	}
	err = db.Model(&models.Answer{}).
		Where("user_id = ? AND quiz_id = ? AND is_correct = ?", userID, quizID, true).
		Count(&correct).Error
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(correct).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(2), nil
}

// JoinWithPassword joins the requester to a quiz directly. Repeated failed
// password attempts are throttled per user and quiz.
func (s *ParticipationService) JoinWithPassword(ctx context.Context, userID uint, req *JoinQuizRequest) (*JoinResult, error) {
	if err := s.limiter.Allow(ctx, userID, req.QuizID); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	quiz, err := findQuiz(db, req.QuizID)
	if err != nil {
		return nil, err
	}
	if quiz.HasPassword() {
		if err := bcrypt.CompareHashAndPassword([]byte(quiz.PasswordHash), []byte(req.Password)); err != nil {
			s.limiter.Fail(ctx, userID, quiz.ID)
			return nil, NewAuthorizationError("incorrect quiz password")
		}
	}

	var (
		p       *models.UserQuiz
		created bool
	)
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		p, created, err = getOrCreateParticipation(tx, userID, quiz.ID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.limiter.Reset(ctx, userID, quiz.ID)

	if created {
		s.notifier.BroadcastToQuiz(quiz.ID, EventParticipantJoined, ParticipantEvent{
			UserID: userID, QuizID: quiz.ID, JoinedAt: p.JoinedAt, Via: "password",
		})
	}
	return newJoinResult(p, created), nil
}

// Start marks the moment the participant began answering.
func (s *ParticipationService) Start(ctx context.Context, userID, quizID uint) (*models.UserQuiz, error) {
	db := s.db.WithContext(ctx)
	quiz, err := findQuiz(db, quizID)
	if err != nil {
		return nil, err
	}
	p, err := findParticipation(db, userID, quizID)
	if err != nil {
		return nil, err
	}
	if p.Completed {
		return nil, NewValidationError("quiz already completed")
	}
	now := s.now()
	if err := checkWindow(quiz, now); err != nil {
		return nil, err
	}
	if p.StartedAt == nil {
		if err := db.Model(p).Update("started_at", now).Error; err != nil {
			return nil, err
		}
		p.StartedAt = &now
	}
	return p, nil
}

// Finish closes the participation and records the final score.
func (s *ParticipationService) Finish(ctx context.Context, userID, quizID uint) (*models.UserQuiz, error) {
	db := s.db.WithContext(ctx)
	if _, err := findQuiz(db, quizID); err != nil {
		return nil, err
	}
	p, err := findParticipation(db, userID, quizID)
	if err != nil {
		return nil, err
	}
	if p.Completed {
		return nil, NewValidationError("quiz already completed")
	}

	now := s.now()
	err = db.Transaction(func(tx *gorm.DB) error {
		score, err := computeScore(tx, userID, quizID)
		if err != nil {
			return err
		}
		p.Completed = true
		p.FinishedAt = &now
		p.Score = decimal.NewNullDecimal(score)
		if p.StartedAt == nil {
			p.StartedAt = &now
		}
		return tx.Model(&models.UserQuiz{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"completed":   true,
			"finished_at": now,
			"started_at":  p.StartedAt,
			"score":       p.Score,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.BroadcastToQuiz(quizID, EventQuizCompleted, CompletionEvent{
		UserID: userID, QuizID: quizID, FinishedAt: now, Score: p.Score.Decimal,
	})
	return p, nil
}

// GetPlayable returns the quiz with its questions for a participant, or for
// the creator previewing it.
func (s *ParticipationService) GetPlayable(ctx context.Context, userID, quizID uint) (*PlayableQuiz, error) {
	db := s.db.WithContext(ctx)
	var quiz models.Quiz
	err := db.Preload("Questions", orderByID("questions")).
		Preload("Questions.Choices", orderByID("choices")).
		First(&quiz, quizID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("quiz not found")
		}
		return nil, err
	}

	play := &PlayableQuiz{Quiz: quiz}
	if quiz.CreatorID == userID {
		return play, nil
	}
	p, err := findParticipation(db, userID, quizID)
	if err != nil {
		if IsCode(err, ErrorNotFound) {
			return nil, NewAuthorizationError("join the quiz before playing")
		}
		return nil, err
	}
	play.Participation = p
	if err := db.Where("user_id = ? AND quiz_id = ?", userID, quizID).Order("question_id").Find(&play.Answers).Error; err != nil {
		return nil, err
	}
	return play, nil
}

// ListTaken returns every quiz the requester has joined, newest first.
func (s *ParticipationService) ListTaken(ctx context.Context, userID uint) ([]models.UserQuiz, error) {
	var taken []models.UserQuiz
	err := s.db.WithContext(ctx).
		Preload("Quiz").
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&taken).Error
	return taken, err
}

// ListParticipants is the creator's roster of a quiz.
func (s *ParticipationService) ListParticipants(ctx context.Context, userID, quizID uint) ([]models.UserQuiz, error) {
	db := s.db.WithContext(ctx)
	var quiz models.Quiz
	if err := db.Scopes(ownedQuizzes(userID)).First(&quiz, quizID).Error; err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("quiz not found")
		}
		return nil, err
	}
	var participants []models.UserQuiz
	err := db.Preload("User").
		Where("quiz_id = ?", quizID).
		Order("joined_at").
		Find(&participants).Error
	return participants, err
}

type RosterEntry struct {
	UserID    uint                `json:"user_id"`
	Name      string              `json:"name"`
	Username  string              `json:"username"`
	JoinedAt  time.Time           `json:"joined_at"`
	Completed bool                `json:"completed"`
	Score     decimal.NullDecimal `json:"score"`
}

// Roster lists a quiz's participants for the live dashboard. Callers are
// expected to have checked ownership already.
func (s *ParticipationService) Roster(ctx context.Context, quizID uint) (interface{}, error) {
	var participants []models.UserQuiz
	err := s.db.WithContext(ctx).Preload("User").
		Where("quiz_id = ?", quizID).
		Order("joined_at").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	roster := make([]RosterEntry, len(participants))
	for i, p := range participants {
		roster[i] = RosterEntry{
			UserID:    p.UserID,
			Name:      p.User.Name,
			Username:  p.User.Username,
			JoinedAt:  p.JoinedAt,
			Completed: p.Completed,
			Score:     p.Score,
		}
	}
	return roster, nil
}
