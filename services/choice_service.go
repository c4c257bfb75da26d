package services

import (
	"context"
	"strings"

	"quizgate/models"

	"gorm.io/gorm"
)

type ChoiceService struct {
	db *gorm.DB
}

func NewChoiceService(db *gorm.DB) *ChoiceService {
	return &ChoiceService{db: db}
}

type ChoiceRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *ChoiceService) ownedQuestion(ctx context.Context, userID, questionID uint) (*models.Question, error) {
	var question models.Question
	if err := s.db.WithContext(ctx).Scopes(ownedQuestions(userID)).First(&question, questionID).Error; err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("question not found")
		}
		return nil, err
	}
	return &question, nil
}

func (s *ChoiceService) ListChoices(ctx context.Context, userID, questionID uint) ([]models.Choice, error) {
	if _, err := s.ownedQuestion(ctx, userID, questionID); err != nil {
		return nil, err
	}
	var choices []models.Choice
	err := s.db.WithContext(ctx).Where("question_id = ?", questionID).Order("id").Find(&choices).Error
	return choices, err
}

func (s *ChoiceService) CreateChoice(ctx context.Context, userID, questionID uint, req *ChoiceRequest) (*models.Choice, error) {
	question, err := s.ownedQuestion(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, NewValidationError("content must not be blank")
	}
	choice := models.Choice{QuestionID: question.ID, Content: content}
	if err := s.db.WithContext(ctx).Create(&choice).Error; err != nil {
		return nil, err
	}
	return &choice, nil
}

func (s *ChoiceService) GetChoice(ctx context.Context, userID, questionID, choiceID uint) (*models.Choice, error) {
	var choice models.Choice
	err := s.db.WithContext(ctx).
		Scopes(ownedChoices(userID)).
		Where("choices.question_id = ?", questionID).
		First(&choice, choiceID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("choice not found")
		}
		return nil, err
	}
	return &choice, nil
}

func (s *ChoiceService) UpdateChoice(ctx context.Context, userID, questionID, choiceID uint, req *ChoiceRequest) (*models.Choice, error) {
	choice, err := s.GetChoice(ctx, userID, questionID, choiceID)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, NewValidationError("content must not be blank")
	}
	if err := s.db.WithContext(ctx).Model(choice).Update("content", content).Error; err != nil {
		return nil, err
	}
	choice.Content = content
	return choice, nil
}

// DeleteChoice removes the choice, unsets it as the question's correct answer
// and drops answers that picked it.
func (s *ChoiceService) DeleteChoice(ctx context.Context, userID, questionID, choiceID uint) error {
	choice, err := s.GetChoice(ctx, userID, questionID, choiceID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Question{}).
			Where("id = ? AND correct_choice_id = ?", choice.QuestionID, choice.ID).
			Update("correct_choice_id", nil).Error
		if err != nil {
			return err
		}
		if err := tx.Where("choice_id = ?", choice.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Choice{}, choice.ID).Error
	})
}
