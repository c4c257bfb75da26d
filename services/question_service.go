package services

import (
	"context"
	"strings"

	"quizgate/models"

	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

type CreateQuestionRequest struct {
	Content         string `json:"content" binding:"required"`
	Type            string `json:"type" binding:"omitempty,oneof=MCQ TEXT"`
	CorrectChoiceID *uint  `json:"correct_choice"`
}

// UpdateQuestionRequest is a partial update. A correct_choice of 0 clears the
// designated answer.
type UpdateQuestionRequest struct {
	Content         *string `json:"content" binding:"omitempty,min=1"`
	Type            *string `json:"type" binding:"omitempty,oneof=MCQ TEXT"`
	CorrectChoiceID *uint   `json:"correct_choice"`
}

func (s *QuestionService) ownedQuiz(ctx context.Context, userID, quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.WithContext(ctx).Scopes(ownedQuizzes(userID)).First(&quiz, quizID).Error; err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("quiz not found")
		}
		return nil, err
	}
	return &quiz, nil
}

func (s *QuestionService) ListQuestions(ctx context.Context, userID, quizID uint) ([]models.Question, error) {
	if _, err := s.ownedQuiz(ctx, userID, quizID); err != nil {
		return nil, err
	}
	var questions []models.Question
	err := s.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Preload("Choices", orderByID("choices")).
		Order("id").
		Find(&questions).Error
	return questions, err
}

func (s *QuestionService) CreateQuestion(ctx context.Context, userID, quizID uint, req *CreateQuestionRequest) (*models.Question, error) {
	quiz, err := s.ownedQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, NewValidationError("content must not be blank")
	}
	qType := req.Type
	if qType == "" {
		qType = models.QuestionTypeMCQ
	}
	// a new question has no choices yet, so nothing can be designated correct
	if req.CorrectChoiceID != nil && *req.CorrectChoiceID != 0 {
		return nil, NewValidationError("correct choice must belong to this question")
	}

	question := models.Question{
		QuizID:  quiz.ID,
		Content: content,
		Type:    qType,
	}
	if err := s.db.WithContext(ctx).Create(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *QuestionService) GetQuestion(ctx context.Context, userID, quizID, questionID uint) (*models.Question, error) {
	var question models.Question
	err := s.db.WithContext(ctx).
		Scopes(ownedQuestions(userID)).
		Where("questions.quiz_id = ?", quizID).
		Preload("Choices", orderByID("choices")).
		First(&question, questionID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("question not found")
		}
		return nil, err
	}
	return &question, nil
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, userID, quizID, questionID uint, req *UpdateQuestionRequest) (*models.Question, error) {
	question, err := s.GetQuestion(ctx, userID, quizID, questionID)
	if err != nil {
		return nil, err
	}

	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, NewValidationError("content must not be blank")
		}
		question.Content = content
	}
	if req.Type != nil {
		question.Type = *req.Type
	}
	if req.CorrectChoiceID != nil {
		if *req.CorrectChoiceID == 0 {
			question.CorrectChoiceID = nil
		} else {
			if err := s.checkCorrectChoice(ctx, question, *req.CorrectChoiceID); err != nil {
				return nil, err
			}
			id := *req.CorrectChoiceID
			question.CorrectChoiceID = &id
		}
	}
	if question.Type != models.QuestionTypeMCQ {
		if req.CorrectChoiceID != nil && question.CorrectChoiceID != nil {
			return nil, NewValidationError("only MCQ questions can have a correct choice")
		}
		question.CorrectChoiceID = nil
	}

	err = s.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", question.ID).
		Updates(map[string]interface{}{
			"content":           question.Content,
			"type":              question.Type,
			"correct_choice_id": question.CorrectChoiceID,
		}).Error
	if err != nil {
		return nil, err
	}
	return s.GetQuestion(ctx, userID, quizID, questionID)
}

func (s *QuestionService) checkCorrectChoice(ctx context.Context, question *models.Question, choiceID uint) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Choice{}).
		Where("id = ? AND question_id = ?", choiceID, question.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return NewValidationError("correct choice must belong to this question")
	}
	return nil
}

func (s *QuestionService) DeleteQuestion(ctx context.Context, userID, quizID, questionID uint) error {
	question, err := s.GetQuestion(ctx, userID, quizID, questionID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", question.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&models.Choice{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, question.ID).Error
	})
}
