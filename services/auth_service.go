package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizgate/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// bcrypt only accepts inputs up to this many bytes.
const maxPasswordBytes = 72

func checkPasswordLength(password string) error {
	if len(password) > maxPasswordBytes {
		return NewValidationError(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}

type AuthService struct {
	db         *gorm.DB
	revoked    *RevocationStore
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
	now        func() time.Time
}

type AuthOptions struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func NewAuthService(db *gorm.DB, revoked *RevocationStore, opts AuthOptions) *AuthService {
	if opts.AccessTokenTTL <= 0 {
		opts.AccessTokenTTL = 15 * time.Minute
	}
	if opts.RefreshTokenTTL <= 0 {
		opts.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		db:         db,
		revoked:    revoked,
		secret:     []byte(opts.JWTSecret),
		accessTTL:  opts.AccessTokenTTL,
		refreshTTL: opts.RefreshTokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type Claims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Username string `json:"username" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Username *string `json:"username" binding:"omitempty,min=1,max=150"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if err := checkPasswordLength(req.Password); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)
	if err := s.ensureUnique(ctx, 0, email, username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, NewValidationError("a user with this email or username already exists")
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenPair, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, NewAuthenticationError("no active account found with the given credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewAuthenticationError("no active account found with the given credentials")
	}

	access, err := s.sign(&user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(&user, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if isNotFound(err) {
			return nil, NewAuthenticationError("user not found")
		}
		return nil, err
	}
	access, err := s.sign(&user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access}, nil
}

// Logout revokes the caller's access token and, when supplied, the refresh
// token issued alongside it.
func (s *AuthService) Logout(ctx context.Context, access *Claims, refreshToken string) error {
	if access != nil {
		if err := s.revoked.Revoke(ctx, access.ID, s.remaining(access)); err != nil {
			return err
		}
	}
	if refreshToken == "" {
		return nil
	}
	refresh, err := s.parse(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return err
	}
	if access != nil && refresh.UserID != access.UserID {
		return NewValidationError("refresh token does not belong to the current user")
	}
	return s.revoked.Revoke(ctx, refresh.ID, s.remaining(refresh))
}

// ParseAccessToken validates a bearer token for an authenticated request.
func (s *AuthService) ParseAccessToken(ctx context.Context, token string) (*Claims, error) {
	return s.parse(ctx, token, TokenTypeAccess)
}

func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if isNotFound(err) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	email, username := user.Email, user.Username
	if req.Email != nil {
		email = normalizeEmail(*req.Email)
	}
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
	}
	if err := s.ensureUnique(ctx, user.ID, email, username); err != nil {
		return nil, err
	}

	user.Email = email
	user.Username = username
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, NewValidationError("a user with this email or username already exists")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ensureUnique(ctx context.Context, selfID uint, email, username string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id <> ? AND (email = ? OR username = ?)", selfID, email, username).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return NewValidationError("a user with this email or username already exists")
	}
	return nil
}

func (s *AuthService) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return token, nil
}

func (s *AuthService) parse(ctx context.Context, token, tokenType string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthenticationError("token is expired")
		}
		return nil, NewAuthenticationError("token is invalid")
	}
	if claims.TokenType != tokenType {
		return nil, NewAuthenticationError("token has wrong type")
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, NewAuthenticationError("token has been revoked")
	}
	return claims, nil
}

func (s *AuthService) remaining(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return s.refreshTTL
	}
	return claims.ExpiresAt.Time.Sub(s.now())
}
