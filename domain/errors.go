package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Account errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user account is inactive")
)

// OTP errors
var (
	ErrOTPInvalid     = errors.New("invalid otp code")
	ErrOTPMaxAttempts = errors.New("maximum otp attempts exceeded")
	ErrOTPNotFound    = errors.New("otp not found")
	ErrOTPResendLimit = errors.New("otp resend limit exceeded")
)

// Token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("unauthorized access")
	ErrNotOwner     = errors.New("caller does not own this resource")
	ErrAdminOnly    = errors.New("admin privileges required")
)

// Listing errors
var (
	ErrListingNotFound     = errors.New("listing not found")
	ErrInvalidCategoryPair = errors.New("invalid category and sub-category combination")
	ErrInvalidTransition   = errors.New("listing is not in the expected state")
	ErrRenewNotAllowed     = errors.New("listing is outside its renewal window")
	ErrCategoryLocked      = errors.New("category cannot change while a credit is held by the listing")
)

// Ledger errors
var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Purchase errors
var (
	ErrPackageNotFound     = errors.New("credit package not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCheckoutNotFound    = errors.New("checkout token not found or expired")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrGatewayDeclined     = errors.New("payment gateway declined the order")
)

// Notification errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// ValidationError reports request fields that failed validation before any mutation happened
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records another failing field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// Empty reports whether no field failed
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err wraps a ValidationError and returns it
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
