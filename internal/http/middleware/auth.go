package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// AuthMW wraps the token service and session repository for middleware
type AuthMW struct {
	tokenSvc    domain.TokenService
	sessionRepo domain.SessionRepository
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(tokenSvc domain.TokenService, sessionRepo domain.SessionRepository) *AuthMW {
	return &AuthMW{
		tokenSvc:    tokenSvc,
		sessionRepo: sessionRepo,
	}
}

// WithJWT rejects requests without a valid bearer token and live session
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, "unauthenticated", "Authorization header required")
			return
		}
		claims, err := mw.authenticate(c, header)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				abort(c, http.StatusUnauthorized, "unauthenticated", "Token expired")
			case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionExpired):
				abort(c, http.StatusUnauthorized, "unauthenticated", "Session invalid or expired")
			default:
				abort(c, http.StatusUnauthorized, "unauthenticated", "Invalid token")
			}
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWT identifies the caller when a valid token is present and lets anonymous requests through
func (mw *AuthMW) OptionalJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			if claims, err := mw.authenticate(c, header); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func (mw *AuthMW) authenticate(c *gin.Context, header string) (*domain.TokenClaims, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, domain.ErrTokenMalformed
	}

	claims, err := mw.tokenSvc.ValidateAccessToken(parts[1])
	if err != nil {
		return nil, err
	}

	// logout deletes the session, so a revoked token stops working immediately
	if claims.SessionID != "" {
		session, err := mw.sessionRepo.FindByID(c.Request.Context(), claims.SessionID)
		if err != nil || session == nil {
			return nil, domain.ErrSessionNotFound
		}
		if session.UserID != claims.UserID {
			return nil, domain.ErrTokenInvalid
		}
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims *domain.TokenClaims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxUserRole, claims.Role)
	if claims.SessionID != "" {
		c.Set(CtxSessionID, claims.SessionID)
	}
}

// CurrentUser returns the authenticated caller as set by WithJWT or OptionalJWT
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	id, ok := c.Get(CtxUserID)
	if !ok {
		return nil, false
	}
	userID, ok := id.(uint)
	if !ok {
		return nil, false
	}
	return &domain.User{ID: userID, Role: c.GetString(CtxUserRole)}, true
}
