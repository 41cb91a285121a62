package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/metrics"
	"go.uber.org/zap"
)

// AuthServiceImpl implements domain.AuthService with phone number and one-time code login
type AuthServiceImpl struct {
	userRepo    domain.UserRepository
	sessionRepo domain.SessionRepository
	tokenSvc    domain.TokenService
	otpSvc      domain.OTPService
	metrics     *metrics.Metrics
	log         *zap.Logger
	adminPhones map[string]bool
	sessionTTL  time.Duration
}

// NewAuthService creates a new auth service. Phones in adminPhones are given the admin role on login.
func NewAuthService(
	userRepo domain.UserRepository,
	sessionRepo domain.SessionRepository,
	tokenSvc domain.TokenService,
	otpSvc domain.OTPService,
	m *metrics.Metrics,
	log *zap.Logger,
	adminPhones []string,
	sessionTTL time.Duration,
) domain.AuthService {
	admins := make(map[string]bool, len(adminPhones))
	for _, p := range adminPhones {
		if p = strings.TrimSpace(p); p != "" {
			admins[p] = true
		}
	}
	return &AuthServiceImpl{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokenSvc:    tokenSvc,
		otpSvc:      otpSvc,
		metrics:     m,
		log:         log,
		adminPhones: admins,
		sessionTTL:  sessionTTL,
	}
}

// RequestCode implements domain.AuthService
func (s *AuthServiceImpl) RequestCode(ctx context.Context, phone string) (*domain.OTPRequest, error) {
	phone = strings.TrimSpace(phone)
	if err := validatePhone(phone); err != nil {
		return nil, err
	}
	req, err := s.otpSvc.Generate(ctx, phone)
	if err != nil {
		s.metrics.Auth("otp_failed")
		return nil, err
	}
	s.metrics.Auth("otp_sent")
	return req, nil
}

// Login verifies the code and signs the user in, creating the account on first login
func (s *AuthServiceImpl) Login(ctx context.Context, phone, code string) (*domain.AuthResult, error) {
	phone = strings.TrimSpace(phone)
	if err := validatePhone(phone); err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, domain.NewValidationError("code", "is required")
	}

	ok, err := s.otpSvc.Verify(ctx, phone, code)
	if err != nil {
		s.metrics.Auth("code_rejected")
		return nil, err
	}
	if !ok {
		s.metrics.Auth("code_rejected")
		return nil, domain.ErrOTPInvalid
	}

	user, isNew, err := s.findOrCreate(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		s.metrics.Auth("inactive")
		return nil, domain.ErrUserInactive
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	result.IsNewUser = isNew
	s.metrics.Auth("login")
	s.log.Info("user logged in", zap.Uint("user_id", user.ID), zap.Bool("new_user", isNew))
	return result, nil
}

func (s *AuthServiceImpl) findOrCreate(ctx context.Context, phone string) (*domain.User, bool, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err == nil {
		if s.adminPhones[phone] && user.Role != domain.RoleAdmin {
			user.Role = domain.RoleAdmin
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, false, fmt.Errorf("failed to promote admin: %w", err)
			}
		}
		return user, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	role := domain.RoleUser
	if s.adminPhones[phone] {
		role = domain.RoleAdmin
	}
	user = &domain.User{
		Phone:    phone,
		Role:     role,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return user, true, nil
}

func (s *AuthServiceImpl) startSession(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, err := s.tokenSvc.GenerateAccessToken(user.ID, user.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.tokenSvc.GenerateRefreshToken(user.ID, user.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresIn:    int64(s.tokenSvc.AccessTTL().Seconds()),
	}, nil
}

// RefreshToken implements domain.AuthService
func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	claims, err := s.tokenSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	session, err := s.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	if session.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionExpired
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	// role comes from the account, not the old token
	accessToken, err := s.tokenSvc.GenerateAccessToken(user.ID, user.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresIn:    int64(s.tokenSvc.AccessTTL().Seconds()),
	}, nil
}

// Logout implements domain.AuthService
func (s *AuthServiceImpl) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Delete(ctx, sessionID)
}

// GetUserProfile implements domain.AuthService
func (s *AuthServiceImpl) GetUserProfile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
