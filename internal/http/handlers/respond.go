package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/http/middleware"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/logger"
	"go.uber.org/zap"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order with errors.Is
var errorMappings = []errorMapping{
	{domain.ErrInsufficientCredits, http.StatusPaymentRequired, "insufficient_credits"},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{domain.ErrRenewNotAllowed, http.StatusConflict, "renew_not_allowed"},
	{domain.ErrCategoryLocked, http.StatusConflict, "category_locked"},
	{domain.ErrInvalidCategoryPair, http.StatusBadRequest, "validation_failed"},
	{domain.ErrInvalidAmount, http.StatusBadRequest, "validation_failed"},

	{domain.ErrListingNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrPackageNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrTransactionNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrCheckoutNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrNotificationNotFound, http.StatusNotFound, "not_found"},

	{domain.ErrNotOwner, http.StatusForbidden, "forbidden"},
	{domain.ErrAdminOnly, http.StatusForbidden, "forbidden"},
	{domain.ErrUserInactive, http.StatusForbidden, "account_inactive"},

	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrTokenExpired, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrTokenMalformed, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrSessionNotFound, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrSessionExpired, http.StatusUnauthorized, "unauthenticated"},

	{domain.ErrOTPInvalid, http.StatusBadRequest, "otp_invalid"},
	{domain.ErrOTPNotFound, http.StatusBadRequest, "otp_not_found"},
	{domain.ErrOTPMaxAttempts, http.StatusTooManyRequests, "otp_max_attempts"},
	{domain.ErrOTPResendLimit, http.StatusTooManyRequests, "otp_resend_limit"},

	{domain.ErrGatewayDeclined, http.StatusBadGateway, "gateway_declined"},
	{domain.ErrGatewayUnavailable, http.StatusBadGateway, "gateway_unavailable"},
}

// respondError writes the error body for err. Unknown errors are logged and reported as 500.
func respondError(c *gin.Context, err error) {
	if ve, ok := domain.IsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"code":    "validation_failed",
			"details": ve.Fields,
		})
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": m.err.Error(), "code": m.code})
			return
		}
	}

	logger.FromContext(c, nil).Error("unhandled error", zap.Error(err))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "internal_error"})
}

func respondValidation(c *gin.Context, field, message string) {
	respondError(c, domain.NewValidationError(field, message))
}

// bindJSON decodes the body into req and answers 400 when it is malformed or fails its binding tags
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &domain.ValidationError{}
		for _, fe := range verrs {
			out.Add(jsonName(fe.Field()), bindingMessage(fe))
		}
		respondError(c, out)
		return false
	}
	respondValidation(c, "body", "must be valid JSON")
	return false
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

// jsonName turns a Go field name like PackageID into package_id
func jsonName(field string) string {
	var b strings.Builder
	runes := []rune(field)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// currentUser returns the authenticated caller, answering 401 when there is none
func currentUser(c *gin.Context) (*domain.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized)
		return nil, false
	}
	return user, true
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondValidation(c, name, "must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// page reads limit and offset from the query string. Missing values are left at zero for the service defaults.
func page(c *gin.Context) (limit, offset int, ok bool) {
	if limit, ok = intQuery(c, "limit"); !ok {
		return 0, 0, false
	}
	if offset, ok = intQuery(c, "offset"); !ok {
		return 0, 0, false
	}
	return limit, offset, true
}

func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondValidation(c, name, "must be a non-negative integer")
		return 0, false
	}
	return n, true
}
