package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/userbase/userbase/internal/config"
	"github.com/userbase/userbase/internal/models"
)

// TokenService mints and verifies the two session token kinds. Access and
// refresh tokens are signed with distinct keys, so a token of one kind never
// verifies as the other.
type TokenService struct {
	accessKey     []byte
	refreshKey    []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	logger        *logrus.Logger
}

func NewTokenService(cfg *config.JWTConfig, logger *logrus.Logger) (*TokenService, error) {
	accessKey := []byte(cfg.AccessSecretKey)
	refreshKey := []byte(cfg.RefreshSecretKey)

	if len(accessKey) < 32 {
		return nil, fmt.Errorf("access secret key must be at least 32 bytes")
	}
	if len(refreshKey) < 32 {
		return nil, fmt.Errorf("refresh secret key must be at least 32 bytes")
	}

	return &TokenService{
		accessKey:     accessKey,
		refreshKey:    refreshKey,
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
		logger:        logger,
	}, nil
}

type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

func (s *TokenService) MintAccess(userID string) (string, error) {
	return s.mint(userID, s.accessKey, s.accessExpiry)
}

func (s *TokenService) MintRefresh(userID string) (string, error) {
	return s.mint(userID, s.refreshKey, s.refreshExpiry)
}

// MintPair issues a fresh access/refresh pair for a new session.
func (s *TokenService) MintPair(userID string) (*models.TokenPair, error) {
	accessToken, err := s.MintAccess(userID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.MintRefresh(userID)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// VerifyAccess checks the token against the access signing key and returns
// the embedded subject id.
func (s *TokenService) VerifyAccess(tokenString string) (string, error) {
	return s.verify(tokenString, s.accessKey)
}

// VerifyRefresh checks the token against the refresh signing key and returns
// the embedded subject id.
func (s *TokenService) VerifyRefresh(tokenString string) (string, error) {
	return s.verify(tokenString, s.refreshKey)
}

func (s *TokenService) AccessExpiry() time.Duration {
	return s.accessExpiry
}

func (s *TokenService) RefreshExpiry() time.Duration {
	return s.refreshExpiry
}

func (s *TokenService) mint(userID string, key []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign token")
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *TokenService) verify(tokenString string, key []byte) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	if claims.ID == "" {
		return "", fmt.Errorf("token has no subject id")
	}

	return claims.ID, nil
}
