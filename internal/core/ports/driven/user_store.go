package driven

import (
	"context"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// UserStore handles user persistence (PostgreSQL)
type UserStore interface {
	// Save creates or updates a user
	Save(ctx context.Context, user *domain.User) error

	// Get retrieves a user by ID
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List retrieves users ordered by creation time
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)

	// Delete deletes a user and everything they own
	Delete(ctx context.Context, id string) error

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, id string) error

	// UpdateTier changes a user's subscription tier
	UpdateTier(ctx context.Context, id string, tier domain.SubscriptionTier) error
}
