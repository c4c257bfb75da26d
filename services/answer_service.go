package services

import (
	"context"
	"time"

	"quizgate/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const MessageAnswerSubmitted = "Answer submitted successfully"

type AnswerService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

func NewAnswerService(db *gorm.DB, notifier Notifier) *AnswerService {
	return &AnswerService{
		db:       db,
		notifier: notifierOrNop(notifier),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type SubmitAnswerRequest struct {
	QuestionID uint `json:"question_id" binding:"required"`
	ChoiceID   uint `json:"choice_id" binding:"required"`
}

type AnswerResult struct {
	Message   string              `json:"message"`
	IsCorrect bool                `json:"is_correct"`
	Score     decimal.NullDecimal `json:"score"`
}

// Submit records the requester's choice for a question, replacing any earlier
// answer to the same question, and refreshes the running score.
func (s *AnswerService) Submit(ctx context.Context, userID, quizID uint, req *SubmitAnswerRequest) (*AnswerResult, error) {
	db := s.db.WithContext(ctx)
	quiz, err := findQuiz(db, quizID)
	if err != nil {
		return nil, err
	}

	var question models.Question
	if err := db.Where("id = ? AND quiz_id = ?", req.QuestionID, quiz.ID).First(&question).Error; err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("question not found")
		}
		return nil, err
	}
	var choice models.Choice
	if err := db.Where("id = ? AND question_id = ?", req.ChoiceID, question.ID).First(&choice).Error; err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("choice not found")
		}
		return nil, err
	}

	now := s.now()
	var participation *models.UserQuiz
	if quiz.CreatorID != userID {
		participation, err = findParticipation(db, userID, quiz.ID)
		if err != nil {
			if IsCode(err, ErrorNotFound) {
				return nil, NewAuthorizationError("join the quiz before answering")
			}
			return nil, err
		}
		if participation.Completed {
			return nil, NewValidationError("quiz already completed")
		}
		if err := checkWindow(quiz, now); err != nil {
			return nil, err
		}
	}

	result := &AnswerResult{Message: MessageAnswerSubmitted, IsCorrect: question.IsCorrect(choice.ID)}
	err = db.Transaction(func(tx *gorm.DB) error {
		answer := models.Answer{
			UserID:     userID,
			QuizID:     quiz.ID,
			QuestionID: question.ID,
			ChoiceID:   choice.ID,
			IsCorrect:  result.IsCorrect,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "quiz_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"choice_id", "is_correct", "updated_at"}),
		}).Create(&answer).Error
		if err != nil {
			return err
		}
		if participation == nil {
			return nil
		}

		score, err := computeScore(tx, userID, quiz.ID)
		if err != nil {
			return err
		}
		result.Score = decimal.NewNullDecimal(score)
		updates := map[string]interface{}{"score": result.Score}
		if participation.StartedAt == nil {
			updates["started_at"] = now
		}
		res := tx.Model(&models.UserQuiz{}).
			Where("id = ? AND completed = ?", participation.ID, false).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NewValidationError("quiz already completed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if participation != nil {
		s.notifier.BroadcastToQuiz(quiz.ID, EventAnswerSubmitted, AnswerEvent{
			UserID:     userID,
			QuizID:     quiz.ID,
			QuestionID: question.ID,
			IsCorrect:  result.IsCorrect,
			Score:      result.Score,
		})
	}
	return result, nil
}
