package handlers

import (
	"context"

	"github.com/userbase/userbase/internal/models"
)

// UserStore is what the handlers need from the user repository.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User, previousEmail string) error
	Delete(ctx context.Context, user *models.User) error
	List(ctx context.Context, limit int32) ([]models.User, error)
}

// ProfileStore is what the profile handlers need from the profile repository.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}

// LoginLimiter bounds login attempts per email.
type LoginLimiter interface {
	AllowLogin(ctx context.Context, key string) (bool, error)
	ResetLogin(ctx context.Context, key string)
}
