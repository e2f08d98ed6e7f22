package ports

import (
	"context"
	"time"

	"github.com/interimgrowthcollective/portal-system/internal/core/domain"
)

// UserRepository defines persistence for portal client users.
type UserRepository interface {
	// FindByEmail looks up a user by its normalized (lowercase) email.
	// Returns domain.ErrUserNotFound when no account exists.
	FindByEmail(ctx context.Context, email string) (*domain.ClientUser, error)

	// TouchLastLogin records a successful login timestamp on the user.
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// OrganizationRepository resolves the display name of a user's company.
type OrganizationRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Organization, error)
}
