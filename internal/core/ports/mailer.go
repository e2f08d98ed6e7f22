package ports

import "context"

// Mailer delivers a single HTML email. Implementations must bound the send
// with a timeout; a hung provider must surface as an error, not a stall.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
