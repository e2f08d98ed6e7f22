package ports

import (
	"context"
	"time"

	"github.com/interimgrowthcollective/portal-system/internal/core/domain"
)

// LoginCodeRepository defines persistence for single-use login codes.
type LoginCodeRepository interface {
	// Create inserts a new code row and returns it with its id populated.
	Create(ctx context.Context, code *domain.LoginCode) (*domain.LoginCode, error)

	// Consume atomically marks the most recently created matching, unexpired,
	// unconsumed code as consumed and returns it. The match-and-mark must be
	// a single conditional update at the store level so that two concurrent
	// calls with the same code can never both succeed.
	//
	// On a miss it returns one of domain.ErrCodeNotFound, ErrCodeExpired or
	// ErrCodeConsumed; callers must collapse these before they reach a client.
	Consume(ctx context.Context, userID, code string, now time.Time) (*domain.LoginCode, error)
}
