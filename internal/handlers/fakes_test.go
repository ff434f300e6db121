package handlers

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/userbase/userbase/internal/config"
	"github.com/userbase/userbase/internal/models"
	"github.com/userbase/userbase/internal/repository"
	"github.com/userbase/userbase/internal/service"
)

type fakeUserStore struct {
	users map[string]*models.User // keyed by id
	err   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) Update(_ context.Context, user *models.User, previousEmail string) error {
	if s.err != nil {
		return s.err
	}
	if user.Email != previousEmail {
		for id, existing := range s.users {
			if id != user.ID && existing.Email == user.Email {
				return repository.ErrEmailTaken
			}
		}
	}
	user.UpdatedAt = time.Now()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, user *models.User) error {
	if s.err != nil {
		return s.err
	}
	delete(s.users, user.ID)
	return nil
}

func (s *fakeUserStore) List(_ context.Context, limit int32) ([]models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	var users []models.User
	for _, user := range s.users {
		if int32(len(users)) >= limit {
			break
		}
		users = append(users, *user)
	}
	return users, nil
}

type fakeProfileStore struct {
	profiles map[string]*models.Profile
	err      error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: map[string]*models.Profile{}}
}

func (s *fakeProfileStore) Get(_ context.Context, userID string) (*models.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

func (s *fakeProfileStore) Upsert(_ context.Context, profile *models.Profile) error {
	if s.err != nil {
		return s.err
	}
	profile.UpdatedAt = time.Now()
	copied := *profile
	s.profiles[profile.UserID] = &copied
	return nil
}

type fakeLimiter struct {
	allow  bool
	resets []string
}

func (l *fakeLimiter) AllowLogin(_ context.Context, _ string) (bool, error) {
	return l.allow, nil
}

func (l *fakeLimiter) ResetLogin(_ context.Context, key string) {
	l.resets = append(l.resets, key)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testTokenService(t *testing.T) *service.TokenService {
	t.Helper()

	tokens, err := service.NewTokenService(&config.JWTConfig{
		AccessSecretKey:  "access-secret-key-0123456789abcdef",
		RefreshSecretKey: "refresh-secret-key-0123456789abcde",
		AccessExpiry:     time.Hour,
		RefreshExpiry:    7 * 24 * time.Hour,
	}, testLogger())
	require.NoError(t, err)

	return tokens
}
