package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"quizgate/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	invitationCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	invitationCodeLength   = 8
	invitationCodeAttempts = 10

	DefaultInvitationTTL = 7 * 24 * time.Hour
)

type InvitationService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
	newCode  func() (string, error)
}

func NewInvitationService(db *gorm.DB, notifier Notifier) *InvitationService {
	return &InvitationService{
		db:       db,
		notifier: notifierOrNop(notifier),
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  generateInvitationCode,
	}
}

type CreateInvitationRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
	MaxJoins  *int       `json:"max_joins"`
}

func generateInvitationCode() (string, error) {
	max := big.NewInt(int64(len(invitationCodeAlphabet)))
	var b strings.Builder
	b.Grow(invitationCodeLength)
	for i := 0; i < invitationCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate invitation code: %w", err)
		}
		b.WriteByte(invitationCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create issues a new invitation for a quiz the requester owns.
func (s *InvitationService) Create(ctx context.Context, userID, quizID uint, req *CreateInvitationRequest) (*models.Invitation, error) {
	db := s.db.WithContext(ctx)
	quiz, err := findQuiz(db, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.CreatorID != userID {
		return nil, NewAuthorizationError("only the quiz creator can create invitations")
	}

	now := s.now()
	expiresAt := now.Add(DefaultInvitationTTL)
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(now) {
			return nil, NewValidationError("expiration date must be in the future")
		}
		expiresAt = req.ExpiresAt.UTC()
	}
	maxJoins := 1
	if req.MaxJoins != nil {
		if *req.MaxJoins < 1 {
			return nil, NewValidationError("max_joins must be at least 1")
		}
		maxJoins = *req.MaxJoins
	}

	for attempt := 0; attempt < invitationCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		var taken int64
		if err := db.Model(&models.Invitation{}).Where("code = ?", code).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			continue
		}

		invitation := models.Invitation{
			QuizID:    quiz.ID,
			Code:      code,
			ExpiresAt: expiresAt,
			MaxJoins:  maxJoins,
			JoinCount: 0,
		}
		if err := db.Omit(clause.Associations).Create(&invitation).Error; err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		return &invitation, nil
	}
	return nil, fmt.Errorf("failed to allocate a unique invitation code after %d attempts", invitationCodeAttempts)
}

// Join consumes one use of an invitation. The invitation row stays locked
// for the whole transaction so concurrent joins cannot exceed max_joins.
func (s *InvitationService) Join(ctx context.Context, userID uint, code string) (*JoinResult, error) {
	code = normalizeCode(code)
	var (
		invitation models.Invitation
		p          *models.UserQuiz
		created    bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", code).
			First(&invitation).Error
		if err != nil {
			if isNotFound(err) {
				return NewNotFoundError("invalid invitation code")
			}
			return err
		}

		now := s.now()
		if !invitation.IsValid(now) {
			return NewValidationError("invitation is not valid or has expired")
		}

		p, created, err = getOrCreateParticipation(tx, userID, invitation.QuizID, now)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}

		res := tx.Model(&models.Invitation{}).
			Where("id = ? AND join_count < max_joins", invitation.ID).
			UpdateColumn("join_count", gorm.Expr("join_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NewValidationError("invitation is not valid or has expired")
		}
		invitation.JoinCount++
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.notifier.BroadcastToQuiz(invitation.QuizID, EventParticipantJoined, ParticipantEvent{
			UserID: userID, QuizID: invitation.QuizID, JoinedAt: p.JoinedAt, Via: "invitation",
		})
	}
	return newJoinResult(p, created), nil
}

// List returns the invitations of a quiz the requester owns.
func (s *InvitationService) List(ctx context.Context, userID, quizID uint) ([]models.Invitation, error) {
	db := s.db.WithContext(ctx)
	var quiz models.Quiz
	if err := db.Scopes(ownedQuizzes(userID)).First(&quiz, quizID).Error; err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("quiz not found")
		}
		return nil, err
	}
	var invitations []models.Invitation
	err := db.Where("quiz_id = ?", quizID).Order("created_at DESC").Find(&invitations).Error
	return invitations, err
}
