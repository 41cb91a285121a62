package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// CheckoutTokenStoreImpl keeps checkout tokens in Redis until they expire
type CheckoutTokenStoreImpl struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCheckoutTokenStore creates a token store whose entries live for ttl
func NewCheckoutTokenStore(client *redis.Client, ttl time.Duration) domain.CheckoutTokenStore {
	return &CheckoutTokenStoreImpl{client: client, prefix: "checkout:", ttl: ttl}
}

func (s *CheckoutTokenStoreImpl) Save(ctx context.Context, token, reference string) error {
	return s.client.Set(ctx, s.prefix+token, reference, s.ttl).Err()
}

func (s *CheckoutTokenStoreImpl) Resolve(ctx context.Context, token string) (string, error) {
	ref, err := s.client.Get(ctx, s.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrCheckoutNotFound
	}
	return ref, err
}
