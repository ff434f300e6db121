package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/userbase/userbase/internal/config"
)

// RateLimitService counts login attempts per key in Redis. The counter lives
// for the configured window; once it passes the limit further attempts are
// refused until the key expires.
type RateLimitService struct {
	client *redis.Client
	cfg    *config.RateLimitConfig
	logger *logrus.Logger
}

func NewRateLimitService(client *redis.Client, cfg *config.RateLimitConfig, logger *logrus.Logger) *RateLimitService {
	return &RateLimitService{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// AllowLogin records one attempt for the key and reports whether it is still
// within the limit. Redis errors fail open so an unavailable limiter does not
// lock everyone out.
func (s *RateLimitService) AllowLogin(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("login_attempts:%s", key)

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to count login attempt, allowing request")
		return true, err
	}

	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, s.cfg.LoginWindow).Err(); err != nil {
			s.logger.WithError(err).Warn("Failed to set login attempt window")
		}
	}

	return count <= int64(s.cfg.LoginMaxAttempts), nil
}

// ResetLogin clears the attempt counter after a successful login.
func (s *RateLimitService) ResetLogin(ctx context.Context, key string) {
	redisKey := fmt.Sprintf("login_attempts:%s", key)
	if err := s.client.Del(ctx, redisKey).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to reset login attempts")
	}
}
