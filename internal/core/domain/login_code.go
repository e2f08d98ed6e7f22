package domain

import (
	"errors"
	"time"
)

// Wire-visible failures. Every identity-shaped verification failure collapses
// onto ErrInvalidCode before it leaves the service; the distinctions live in
// the internal errors below and in structured logs only.
var (
	ErrInvalidCode   = errors.New("invalid or expired code")
	ErrMissingFields = errors.New("missing required fields")
	ErrSessionCreate = errors.New("could not create session")
	ErrEmailSend     = errors.New("could not send email")
	ErrRateLimited   = errors.New("too many requests")
)

// Internal verification outcomes. Returned by the login-code repository so the
// service can log and count the real cause; never serialized to a client.
var (
	ErrCodeNotFound = errors.New("no matching code")
	ErrCodeExpired  = errors.New("code expired")
	ErrCodeConsumed = errors.New("code already consumed")
)

// LoginCode is a single-use numeric credential issued on each login request.
// Rows are insert-only plus one conditional consume update; consumed and
// expired rows are retained as an audit trail and simply never match again.
type LoginCode struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Code      string    `json:"-"`
	Consumed  bool      `json:"consumed"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the code can still be redeemed at the given instant.
func (lc *LoginCode) Valid(now time.Time) bool {
	return !lc.Consumed && now.Before(lc.ExpiresAt)
}
