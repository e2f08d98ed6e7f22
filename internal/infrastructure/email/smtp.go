// Package email implements the outbound mail collaborator over SMTP with
// implicit TLS. The provider is treated as a black box: Send either delivers
// within its deadline or returns an error the caller surfaces.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"
)

const defaultSendTimeout = 10 * time.Second

// Config captures the SMTP provider settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	// Timeout bounds the whole dial-auth-send sequence. A hung provider must
	// fail the request, not stall it past the HTTP timeout.
	Timeout time.Duration
}

type SMTPSender struct {
	cfg Config
}

// NewSMTPSender returns a Mailer that delivers over implicit TLS (port 465
// style). A default timeout is applied when none is configured.
func NewSMTPSender(cfg Config) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSendTimeout
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg}
}

// Send delivers a single HTML message. The deadline is the earlier of the
// context deadline and the configured timeout, enforced on the socket so every
// SMTP round trip is covered.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	dialer := &net.Dialer{Deadline: deadline}

	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("smtp deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Quit()

	// Unauthenticated relays reject AUTH outright, so only attempt it when
	// credentials are configured.
	if s.useAuth() {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(message(s.cfg.From, to, subject, htmlBody)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	return nil
}

// useAuth reports whether the sender should issue AUTH at all.
func (s *SMTPSender) useAuth() bool {
	return s.cfg.Username != ""
}

func message(from, to, subject, htmlBody string) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			htmlBody,
	)
}
