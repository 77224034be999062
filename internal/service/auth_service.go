package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/minhlq/uni-registry-api/internal/models"
	"github.com/minhlq/uni-registry-api/pkg/config"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
)

type tokenRepository interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthService validates access tokens and drives logout. Tokens are issued by
// the identity provider; this service only verifies signatures and tracks
// revocation until each token's natural expiry.
type AuthService struct {
	tokens tokenRepository
	cfg    config.JWTConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewAuthService constructs the auth service. A nil clock defaults to
// time.Now.
func NewAuthService(tokens tokenRepository, cfg config.JWTConfig, now func() time.Time, logger *zap.Logger) *AuthService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{tokens: tokens, cfg: cfg, now: now, logger: logger}
}

// ValidateToken parses and verifies an access token, rejecting revoked ones.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}

	if claims.ID != "" {
		revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("revocation check failed", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify session")
		}
		if revoked {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session has been revoked")
		}
	}
	return claims, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
// Logging out twice is harmless; the second call refreshes the same entry.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims) error {
	if claims.ID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "token has no session identifier")
	}
	ttl := s.cfg.Expiration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if err := s.tokens.Revoke(ctx, claims.ID, ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session")
	}
	s.logger.Info("session revoked", zap.String("user_id", claims.UserID))
	return nil
}
