package repositories

import (
	"inventory/internal/models"
)

// UserRepository defines the interface for user data access. Lookups return
// apperrors.ErrNotFound when no user matches.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
}
