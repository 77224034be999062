package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepository tracks revoked JWT IDs in Redis. Each revoked token is a
// key that expires together with the token itself, so the set never outgrows
// the live token population.
type TokenRepository struct {
	client *redis.Client
}

// NewTokenRepository constructs the repository.
func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{client: client}
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

// Revoke marks a token ID as revoked until its natural expiry. A ttl at or
// below zero means the token already expired and there is nothing to store.
func (r *TokenRepository) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, blacklistKey(jti), "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token ID has been revoked.
func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return n > 0, nil
}
