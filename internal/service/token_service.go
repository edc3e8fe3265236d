package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/fieldside/clubcal-api/internal/models"
	"github.com/fieldside/clubcal-api/pkg/config"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
)

// TokenService validates bearer tokens issued by the club's identity
// provider. This API never issues tokens itself.
type TokenService struct {
	cfg    config.JWTConfig
	logger *zap.Logger
}

func NewTokenService(cfg config.JWTConfig, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{cfg: cfg, logger: logger}
}

// Validate parses and verifies a signed token and returns its claims.
func (s *TokenService) Validate(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if len(s.cfg.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.TeamID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}
