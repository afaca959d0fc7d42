package repositories

import (
	"context"

	"github.com/carevoice/backend/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByPhone retrieves a user by exact phone match
	GetByPhone(ctx context.Context, phone string) (*entities.User, error)
}
