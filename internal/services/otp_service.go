package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// OTPServiceImpl implements domain.OTPService using Redis persistence
type OTPServiceImpl struct {
	sms         domain.SMSSender
	hasher      domain.CodeHasher
	redisClient *redis.Client
	config      OTPConfig
}

type OTPConfig struct {
	Length       int
	TTL          time.Duration
	MaxAttempts  int
	ResendWindow time.Duration
}

// NewOTPService creates a new Redis-based OTP service. Codes are stored hashed.
func NewOTPService(sms domain.SMSSender, hasher domain.CodeHasher, redisClient *redis.Client, config OTPConfig) domain.OTPService {
	return &OTPServiceImpl{
		sms:         sms,
		hasher:      hasher,
		redisClient: redisClient,
		config:      config,
	}
}

func otpKeys(phone string) (code, attempts, resend string) {
	return "otp:" + phone, "otp:att:" + phone, "otp:res:" + phone
}

// Generate implements domain.OTPService with Redis persistence
func (s *OTPServiceImpl) Generate(ctx context.Context, phone string) (*domain.OTPRequest, error) {
	otpKey, attemptsKey, resendKey := otpKeys(phone)

	canResend, _, err := s.CanResend(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !canResend {
		return nil, domain.ErrOTPResendLimit
	}

	code, err := s.generateSecureCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP code: %w", err)
	}
	hashed, err := s.hasher.Hash(code)
	if err != nil {
		return nil, fmt.Errorf("failed to hash OTP code: %w", err)
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Set(ctx, otpKey, hashed, s.config.TTL)
	pipe.Set(ctx, attemptsKey, 0, s.config.TTL)
	pipe.Set(ctx, resendKey, 1, s.config.ResendWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store OTP in Redis: %w", err)
	}

	message := fmt.Sprintf("Your Saman verification code is: %s. Valid for %d minutes.", code, int(s.config.TTL.Minutes()))
	if err := s.sms.SendSMS(phone, message); err != nil {
		// Clean up Redis entries if SMS fails
		s.redisClient.Del(ctx, otpKey, attemptsKey, resendKey)
		return nil, fmt.Errorf("failed to send OTP SMS: %w", err)
	}

	return &domain.OTPRequest{
		Phone:     phone,
		Code:      code,
		ExpiresAt: time.Now().Add(s.config.TTL),
	}, nil
}

// Verify implements domain.OTPService with Redis persistence
func (s *OTPServiceImpl) Verify(ctx context.Context, phone, code string) (bool, error) {
	otpKey, attemptsKey, _ := otpKeys(phone)

	hashed, err := s.redisClient.Get(ctx, otpKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, domain.ErrOTPNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to get OTP from Redis: %w", err)
	}

	// Increment attempts counter atomically
	attempts, err := s.redisClient.Incr(ctx, attemptsKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment attempts: %w", err)
	}
	if attempts > int64(s.config.MaxAttempts) {
		s.redisClient.Del(ctx, otpKey, attemptsKey)
		return false, domain.ErrOTPMaxAttempts
	}

	if !s.hasher.Verify(hashed, code) {
		return false, domain.ErrOTPInvalid
	}

	s.redisClient.Del(ctx, otpKey, attemptsKey)
	return true, nil
}

// CanResend implements domain.OTPService with Redis-based throttling
func (s *OTPServiceImpl) CanResend(ctx context.Context, phone string) (bool, int64, error) {
	_, _, resendKey := otpKeys(phone)

	ttl, err := s.redisClient.TTL(ctx, resendKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check resend TTL: %w", err)
	}

	// If TTL <= 0, key doesn't exist or has expired - can resend
	if ttl <= 0 {
		return true, 0, nil
	}
	return false, int64(ttl.Seconds()), nil
}

// generateSecureCode generates a cryptographically secure OTP code
func (s *OTPServiceImpl) generateSecureCode() (string, error) {
	digits := make([]byte, s.config.Length)
	for i := 0; i < s.config.Length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}
	return string(digits), nil
}
