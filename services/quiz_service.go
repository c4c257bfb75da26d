package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quizgate/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type QuizService struct {
	db         *gorm.DB
	bcryptCost int
}

func NewQuizService(db *gorm.DB) *QuizService {
	return &QuizService{db: db, bcryptCost: bcrypt.DefaultCost}
}

type CreateQuizRequest struct {
	Title           string     `json:"title" binding:"required,max=255"`
	Description     string     `json:"description"`
	Password        string     `json:"password" binding:"max=72"`
	StartTime       *time.Time `json:"start_time"`
	DurationSeconds *int64     `json:"duration_seconds" binding:"omitempty,min=1"`
}

// UpdateQuizRequest is a partial update; nil fields are left untouched and an
// empty password removes the quiz password. ClearWindow drops start_time and
// duration_seconds before any new values are applied.
type UpdateQuizRequest struct {
	Title           *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description     *string    `json:"description"`
	Password        *string    `json:"password" binding:"omitempty,max=72"`
	StartTime       *time.Time `json:"start_time"`
	DurationSeconds *int64     `json:"duration_seconds" binding:"omitempty,min=1"`
	ClearWindow     bool       `json:"clear_window"`
}

// QuizSummary is a quiz row with aggregate counts, used by the dashboard lists.
type QuizSummary struct {
	models.Quiz
	QuestionCount    int64 `json:"question_count"`
	ParticipantCount int64 `json:"participant_count"`
}

func (s *QuizService) hashPassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	if err := checkPasswordLength(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash quiz password: %w", err)
	}
	return string(hash), nil
}

func (s *QuizService) CreateQuiz(ctx context.Context, userID uint, req *CreateQuizRequest) (*models.Quiz, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, NewValidationError("title must not be blank")
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	quiz := models.Quiz{
		Title:           title,
		Description:     req.Description,
		PasswordHash:    hash,
		CreatorID:       userID,
		StartTime:       req.StartTime,
		DurationSeconds: req.DurationSeconds,
	}
	if err := s.db.WithContext(ctx).Create(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (s *QuizService) ListQuizzes(ctx context.Context, userID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.WithContext(ctx).
		Scopes(ownedQuizzes(userID)).
		Preload("Questions", orderByID("questions")).
		Preload("Questions.Choices", orderByID("choices")).
		Order("quizzes.created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (s *QuizService) GetQuiz(ctx context.Context, userID, quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.WithContext(ctx).
		Scopes(ownedQuizzes(userID)).
		Preload("Questions", orderByID("questions")).
		Preload("Questions.Choices", orderByID("choices")).
		First(&quiz, quizID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("quiz not found")
		}
		return nil, err
	}
	return &quiz, nil
}

func (s *QuizService) UpdateQuiz(ctx context.Context, userID, quizID uint, req *UpdateQuizRequest) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.WithContext(ctx).Scopes(ownedQuizzes(userID)).First(&quiz, quizID).Error; err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("quiz not found")
		}
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, NewValidationError("title must not be blank")
		}
		quiz.Title = title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		quiz.PasswordHash = hash
	}
	if req.ClearWindow {
		quiz.StartTime = nil
		quiz.DurationSeconds = nil
	}
	if req.StartTime != nil {
		quiz.StartTime = req.StartTime
	}
	if req.DurationSeconds != nil {
		quiz.DurationSeconds = req.DurationSeconds
	}

	if err := s.db.WithContext(ctx).Omit("Creator", "Questions").Save(&quiz).Error; err != nil {
		return nil, err
	}
	return s.GetQuiz(ctx, userID, quizID)
}

// DeleteQuiz removes the quiz together with everything hanging off it.
func (s *QuizService) DeleteQuiz(ctx context.Context, userID, quizID uint) error {
	var quiz models.Quiz
	if err := s.db.WithContext(ctx).Scopes(ownedQuizzes(userID)).First(&quiz, quizID).Error; err != nil {
		if isNotFound(err) {
			return NewNotFoundError("quiz not found")
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questionIDs := tx.Model(&models.Question{}).Select("id").Where("quiz_id = ?", quiz.ID)
		steps := []*gorm.DB{
			tx.Where("quiz_id = ?", quiz.ID).Delete(&models.Answer{}),
			tx.Where("quiz_id = ?", quiz.ID).Delete(&models.UserQuiz{}),
			tx.Where("quiz_id = ?", quiz.ID).Delete(&models.Invitation{}),
			tx.Where("question_id IN (?)", questionIDs).Delete(&models.Choice{}),
			tx.Where("quiz_id = ?", quiz.ID).Delete(&models.Question{}),
			tx.Delete(&quiz),
		}
		for _, step := range steps {
			if step.Error != nil {
				return step.Error
			}
		}
		return nil
	})
}

// ListCreated returns the requester's quizzes with question and participant counts.
func (s *QuizService) ListCreated(ctx context.Context, userID uint) ([]QuizSummary, error) {
	var quizzes []models.Quiz
	if err := s.db.WithContext(ctx).
		Scopes(ownedQuizzes(userID)).
		Order("quizzes.created_at DESC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return []QuizSummary{}, nil
	}

	ids := make([]uint, len(quizzes))
	for i, q := range quizzes {
		ids[i] = q.ID
	}
	questions, err := s.countBy(ctx, &models.Question{}, ids)
	if err != nil {
		return nil, err
	}
	participants, err := s.countBy(ctx, &models.UserQuiz{}, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]QuizSummary, len(quizzes))
	for i, q := range quizzes {
		summaries[i] = QuizSummary{
			Quiz:             q,
			QuestionCount:    questions[q.ID],
			ParticipantCount: participants[q.ID],
		}
	}
	return summaries, nil
}

func (s *QuizService) countBy(ctx context.Context, model interface{}, quizIDs []uint) (map[uint]int64, error) {
	var rows []struct {
		QuizID uint
		Total  int64
	}
	err := s.db.WithContext(ctx).Model(model).
		Select("quiz_id, COUNT(*) AS total").
		Where("quiz_id IN ?", quizIDs).
		Group("quiz_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.QuizID] = r.Total
	}
	return counts, nil
}
