package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/interimgrowthcollective/portal-system/internal/core/domain"
	"github.com/interimgrowthcollective/portal-system/internal/core/ports"
	"github.com/interimgrowthcollective/portal-system/internal/pkg/metrics"
)

const (
	defaultCodeTTL = 15 * time.Minute

	// Acknowledgment returned by RequestCode. Must be the exact same bytes
	// whether or not the email belongs to an account, so that the response
	// cannot be used to probe which addresses are registered.
	requestAckMessage = "If that address is registered, a login code is on its way. Check your email."

	emailSubject = "Your Interim Growth Collective login code"

	// Shown when the organization lookup fails after a successful login.
	// A cosmetic lookup must never sink the login itself.
	companyNamePlaceholder = "Your organization"
)

// codeRange is the exclusive upper bound for generated codes: 000000–999999.
var codeRange = big.NewInt(1_000_000)

type authService struct {
	users   ports.UserRepository
	codes   ports.LoginCodeRepository
	orgs    ports.OrganizationRepository
	mailer  ports.Mailer
	codeTTL time.Duration
	log     zerolog.Logger
}

// NewAuthService returns the passwordless AuthService implementation.
func NewAuthService(
	users ports.UserRepository,
	codes ports.LoginCodeRepository,
	orgs ports.OrganizationRepository,
	mailer ports.Mailer,
	codeTTL time.Duration,
	log zerolog.Logger,
) ports.AuthService {
	if codeTTL <= 0 {
		codeTTL = defaultCodeTTL
	}
	return &authService{
		users:   users,
		codes:   codes,
		orgs:    orgs,
		mailer:  mailer,
		codeTTL: codeTTL,
		log:     log,
	}
}

// RequestCode issues a login code for a registered email address.
//
// Unknown addresses get the identical acknowledgment as known ones with no
// side effects — the response must not reveal whether an account exists.
// Infrastructure failures (store, mailer) are loud: a user who never receives
// a code they were promised is stranded.
func (s *authService) RequestCode(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", domain.ErrMissingFields
	}
	normalized := domain.NormalizeEmail(email)

	// 1. Lookup. An unknown address exits through the same door as success.
	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Info().Str("email", normalized).Msg("code requested for unknown email")
			return requestAckMessage, nil
		}
		s.log.Error().Err(err).Msg("user lookup failed")
		return "", domain.ErrSessionCreate
	}

	// 2. Generate and persist the challenge.
	code, err := generateCode()
	if err != nil {
		s.log.Error().Err(err).Msg("code generation failed")
		return "", domain.ErrSessionCreate
	}

	now := time.Now().UTC()
	created, err := s.codes.Create(ctx, &domain.LoginCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(s.codeTTL),
		CreatedAt: now,
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("login code insert failed")
		return "", domain.ErrSessionCreate
	}
	metrics.CodesIssuedTotal.Inc()

	// 3. Deliver. The send is bounded by the mailer; a failure here surfaces
	// as an error even though the code row already exists.
	if err := s.mailer.Send(ctx, user.Email, emailSubject, codeEmailBody(user.Name, code, s.codeTTL)); err != nil {
		metrics.EmailsTotal.WithLabelValues("failed").Inc()
		s.log.Error().Err(err).Str("user_id", user.ID).Str("code_id", created.ID).Msg("code email delivery failed")
		return "", domain.ErrEmailSend
	}
	metrics.EmailsTotal.WithLabelValues("sent").Inc()

	s.log.Info().Str("user_id", user.ID).Str("code_id", created.ID).Time("expires_at", created.ExpiresAt).Msg("login code issued")
	return requestAckMessage, nil
}

// VerifyCode authenticates an (email, code) pair and mints the client session.
//
// All identity-shaped failures — unknown email, wrong code, expired code,
// replayed code — collapse onto domain.ErrInvalidCode. The real outcome is
// logged and counted but never put on the wire.
func (s *authService) VerifyCode(ctx context.Context, email, code string) (*domain.ClientSession, error) {
	if email == "" || code == "" {
		return nil, domain.ErrMissingFields
	}
	normalized := domain.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordFailure(normalized, "user_not_found", err)
			return nil, domain.ErrInvalidCode
		}
		s.log.Error().Err(err).Msg("user lookup failed")
		return nil, err
	}

	// Single conditional update at the store level: two racing calls with
	// the same code can never both get the row back.
	now := time.Now().UTC()
	consumed, err := s.codes.Consume(ctx, user.ID, code, now)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeNotFound):
			s.recordFailure(normalized, "code_not_found", err)
			return nil, domain.ErrInvalidCode
		case errors.Is(err, domain.ErrCodeExpired):
			s.recordFailure(normalized, "code_expired", err)
			return nil, domain.ErrInvalidCode
		case errors.Is(err, domain.ErrCodeConsumed):
			s.recordFailure(normalized, "code_consumed", err)
			return nil, domain.ErrInvalidCode
		}
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("code consume failed")
		return nil, err
	}
	metrics.VerificationsTotal.WithLabelValues("success").Inc()

	// Best-effort bookkeeping: a failed last-login write must not undo an
	// otherwise successful authentication.
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}

	s.log.Info().Str("user_id", user.ID).Str("code_id", consumed.ID).Msg("login verified")
	return s.buildSession(ctx, user, consumed), nil
}

// buildSession shapes the verified identity into the payload the front end
// persists. The organization name is cosmetic and degrades to a placeholder.
func (s *authService) buildSession(ctx context.Context, user *domain.ClientUser, consumed *domain.LoginCode) *domain.ClientSession {
	companyName := companyNamePlaceholder
	if org, err := s.orgs.FindByID(ctx, user.CompanyID); err != nil {
		s.log.Warn().Err(err).Str("company_id", user.CompanyID).Msg("organization lookup failed, using placeholder name")
	} else {
		companyName = org.Name
	}

	return &domain.ClientSession{
		ID: consumed.ID,
		User: domain.SessionUser{
			ID:          user.ID,
			Name:        user.Name,
			Email:       user.Email,
			CompanyID:   user.CompanyID,
			CompanyName: companyName,
		},
	}
}

func (s *authService) recordFailure(email, outcome string, err error) {
	metrics.VerificationsTotal.WithLabelValues(outcome).Inc()
	s.log.Info().Err(err).Str("email", email).Str("outcome", outcome).Msg("verification rejected")
}

// generateCode draws a uniformly random 6-digit code from crypto/rand. The
// code is a bearer credential for its whole 15-minute window, so a
// predictable sequence is not acceptable.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeRange)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
