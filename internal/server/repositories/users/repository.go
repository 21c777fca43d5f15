// Package users provides the repository for account records.
package users

import (
	"context"

	"github.com/clipstream/backend/internal/server/models"
)

// Repository describes the persistence operations the service layer needs.
// Each operation is atomic at the single-row level; there are no
// multi-row guarantees.
type Repository interface {
	// Create inserts a new user and returns it with the generated id.
	// Duplicate username or email yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByID returns the user with the given id or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByUsernameOrEmail returns the user whose username or email equals
	// login, or common.ErrorNotFound.
	GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error)

	// UpdateRefreshToken overwrites the user's refresh-token slot. An empty
	// token clears the slot (logout).
	UpdateRefreshToken(ctx context.Context, id, token string) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdateProfile sets fullname and email and returns the updated user.
	UpdateProfile(ctx context.Context, id, fullname, email string) (*models.User, error)

	// UpdateAvatarURL sets the avatar URL and returns the updated user.
	UpdateAvatarURL(ctx context.Context, id, url string) (*models.User, error)

	// UpdateCoverImageURL sets the cover-image URL and returns the updated user.
	UpdateCoverImageURL(ctx context.Context, id, url string) (*models.User, error)
}
