package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authMocks struct {
	users    *mocks.MockUserRepository
	sessions *mocks.MockSessionRepository
	tokens   *mocks.MockTokenService
	otp      *mocks.MockOTPService
}

func newTestAuthService(adminPhones ...string) (domain.AuthService, *authMocks) {
	m := &authMocks{
		users:    mocks.NewMockUserRepository(),
		sessions: mocks.NewMockSessionRepository(),
		tokens:   mocks.NewMockTokenService(),
		otp:      mocks.NewMockOTPService(),
	}
	svc := NewAuthService(m.users, m.sessions, m.tokens, m.otp, nil, zap.NewNop(), adminPhones, 7*24*time.Hour)
	return svc, m
}

func TestAuthServiceImpl_RequestCode(t *testing.T) {
	tests := []struct {
		name          string
		phone         string
		generateErr   error
		expectedError error
		expectInvalid bool
	}{
		{name: "valid phone", phone: "+971501234567"},
		{name: "surrounding spaces", phone: "  +971501234567 "},
		{name: "missing plus", phone: "971501234567", expectInvalid: true},
		{name: "empty", phone: "", expectInvalid: true},
		{name: "throttled", phone: "+971501234567", generateErr: domain.ErrOTPResendLimit, expectedError: domain.ErrOTPResendLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAuthService()
			var generatedFor string
			m.otp.GenerateFunc = func(ctx context.Context, phone string) (*domain.OTPRequest, error) {
				generatedFor = phone
				if tt.generateErr != nil {
					return nil, tt.generateErr
				}
				return &domain.OTPRequest{Phone: phone, Code: "654321"}, nil
			}

			req, err := svc.RequestCode(context.Background(), tt.phone)
			switch {
			case tt.expectInvalid:
				_, ok := domain.IsValidationError(err)
				assert.True(t, ok, "expected validation error, got %v", err)
				assert.Empty(t, generatedFor, "no code is sent for a malformed number")
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			default:
				require.NoError(t, err)
				assert.Equal(t, "+971501234567", req.Phone)
				assert.Equal(t, "+971501234567", generatedFor)
			}
		})
	}
}

func TestAuthServiceImpl_Login_NewUser(t *testing.T) {
	svc, m := newTestAuthService()
	var created *domain.User
	m.users.CreateFunc = func(ctx context.Context, user *domain.User) error {
		user.ID = 42
		created = user
		return nil
	}
	var session *domain.Session
	m.sessions.CreateFunc = func(ctx context.Context, s *domain.Session) error {
		session = s
		return nil
	}

	result, err := svc.Login(context.Background(), "+971501234567", "123456")
	require.NoError(t, err)
	assert.True(t, result.IsNewUser)
	require.NotNil(t, created)
	assert.Equal(t, domain.RoleUser, created.Role)
	assert.True(t, created.IsActive)
	assert.Equal(t, uint(42), result.User.ID)

	require.NotNil(t, session)
	assert.Equal(t, session.ID, result.SessionID)
	assert.Equal(t, uint(42), session.UserID)
	assert.Equal(t, "access_token_user_42_user_"+session.ID, result.AccessToken)
	assert.Equal(t, int64(900), result.ExpiresIn)
}

func TestAuthServiceImpl_Login_AdminPhones(t *testing.T) {
	t.Run("new admin", func(t *testing.T) {
		svc, m := newTestAuthService("+971500000009")
		m.users.CreateFunc = func(ctx context.Context, user *domain.User) error {
			user.ID = 7
			return nil
		}
		result, err := svc.Login(context.Background(), "+971500000009", "123456")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, result.User.Role)
	})

	t.Run("existing user promoted", func(t *testing.T) {
		svc, m := newTestAuthService(" +971500000009 ")
		m.users.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.User, error) {
			return &domain.User{ID: 7, Phone: phone, Role: domain.RoleUser, IsActive: true}, nil
		}
		var updated *domain.User
		m.users.UpdateFunc = func(ctx context.Context, user *domain.User) error {
			updated = user
			return nil
		}

		result, err := svc.Login(context.Background(), "+971500000009", "123456")
		require.NoError(t, err)
		assert.False(t, result.IsNewUser)
		require.NotNil(t, updated)
		assert.Equal(t, domain.RoleAdmin, updated.Role)
	})
}

func TestAuthServiceImpl_Login_Failures(t *testing.T) {
	tests := []struct {
		name          string
		code          string
		setup         func(m *authMocks)
		expectedError error
	}{
		{name: "wrong code", code: "000000", expectedError: domain.ErrOTPInvalid},
		{
			name: "verifier says no without error",
			code: "000000",
			setup: func(m *authMocks) {
				m.otp.VerifyFunc = func(ctx context.Context, phone, code string) (bool, error) { return false, nil }
			},
			expectedError: domain.ErrOTPInvalid,
		},
		{
			name: "attempts exhausted",
			code: "123456",
			setup: func(m *authMocks) {
				m.otp.VerifyFunc = func(ctx context.Context, phone, code string) (bool, error) {
					return false, domain.ErrOTPMaxAttempts
				}
			},
			expectedError: domain.ErrOTPMaxAttempts,
		},
		{
			name: "inactive account",
			code: "123456",
			setup: func(m *authMocks) {
				m.users.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.User, error) {
					return &domain.User{ID: 3, Phone: phone, Role: domain.RoleUser}, nil
				}
			},
			expectedError: domain.ErrUserInactive,
		},
		{
			name: "session store down",
			code: "123456",
			setup: func(m *authMocks) {
				m.sessions.CreateFunc = func(ctx context.Context, s *domain.Session) error { return errors.New("db down") }
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAuthService()
			if tt.setup != nil {
				tt.setup(m)
			}
			result, err := svc.Login(context.Background(), "+971501234567", tt.code)
			require.Error(t, err)
			assert.Nil(t, result)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			}
		})
	}

	t.Run("empty code", func(t *testing.T) {
		svc, _ := newTestAuthService()
		_, err := svc.Login(context.Background(), "+971501234567", " ")
		ve, ok := domain.IsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, ve.Fields, "code")
	})
}

func TestAuthServiceImpl_RefreshToken(t *testing.T) {
	activeUser := func(ctx context.Context, id uint) (*domain.User, error) {
		return &domain.User{ID: id, Role: domain.RoleAdmin, IsActive: true}, nil
	}
	liveSession := func(ctx context.Context, id string) (*domain.Session, error) {
		return &domain.Session{ID: id, UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}, nil
	}

	tests := []struct {
		name          string
		token         string
		findSession   func(ctx context.Context, id string) (*domain.Session, error)
		findUser      func(ctx context.Context, id uint) (*domain.User, error)
		expectedError error
	}{
		{name: "valid", token: "refresh", findSession: liveSession, findUser: activeUser},
		{name: "bad token", token: "", expectedError: domain.ErrTokenInvalid},
		{name: "session gone", token: "refresh", expectedError: domain.ErrSessionNotFound},
		{
			name:  "session expired",
			token: "refresh",
			findSession: func(ctx context.Context, id string) (*domain.Session, error) {
				return &domain.Session{ID: id, ExpiresAt: time.Now().Add(-time.Minute)}, nil
			},
			expectedError: domain.ErrSessionExpired,
		},
		{
			name:        "deactivated user",
			token:       "refresh",
			findSession: liveSession,
			findUser: func(ctx context.Context, id uint) (*domain.User, error) {
				return &domain.User{ID: id, Role: domain.RoleUser}, nil
			},
			expectedError: domain.ErrUserInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestAuthService()
			m.sessions.FindByIDFunc = tt.findSession
			m.users.FindByIDFunc = tt.findUser

			result, err := svc.RefreshToken(context.Background(), tt.token)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "access_token_user_1_admin_mock_session_id", result.AccessToken, "role is read from the account")
			assert.Equal(t, tt.token, result.RefreshToken)
		})
	}
}

func TestAuthServiceImpl_LogoutAndProfile(t *testing.T) {
	svc, m := newTestAuthService()
	var deleted string
	m.sessions.DeleteFunc = func(ctx context.Context, id string) error {
		deleted = id
		return nil
	}
	require.NoError(t, svc.Logout(context.Background(), "session-1"))
	assert.Equal(t, "session-1", deleted)

	_, err := svc.GetUserProfile(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
