package ports

import (
	"context"

	"github.com/interimgrowthcollective/portal-system/internal/core/domain"
)

// AuthService implements the passwordless login flow for the client portal.
type AuthService interface {
	// RequestCode issues a fresh login code for a registered email and hands
	// it to the mailer. The returned acknowledgment message is identical
	// whether or not the email matches an account.
	RequestCode(ctx context.Context, email string) (string, error)

	// VerifyCode authenticates an (email, code) pair, consumes the matched
	// code and mints the client session.
	VerifyCode(ctx context.Context, email, code string) (*domain.ClientSession, error)
}
