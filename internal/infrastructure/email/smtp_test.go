package email

import (
	"strings"
	"testing"
	"time"
)

func TestNewSMTPSender_Defaults(t *testing.T) {
	s := NewSMTPSender(Config{Host: "mail.example.se", Port: "465", Username: "portal@example.se"})

	if s.cfg.Timeout != defaultSendTimeout {
		t.Fatalf("expected default timeout, got %v", s.cfg.Timeout)
	}
	if s.cfg.From != "portal@example.se" {
		t.Fatalf("From should fall back to the username, got %q", s.cfg.From)
	}
}

func TestSMTPSender_UseAuth(t *testing.T) {
	withCreds := NewSMTPSender(Config{Host: "mail.example.se", Port: "465", Username: "portal@example.se", Password: "s3cret"})
	if !withCreds.useAuth() {
		t.Fatalf("configured credentials must enable AUTH")
	}

	// An open relay setup has no username; issuing AUTH against it would
	// fail every send.
	openRelay := NewSMTPSender(Config{Host: "localhost", Port: "465", From: "portal@example.se", Timeout: time.Second})
	if openRelay.useAuth() {
		t.Fatalf("empty username must skip AUTH")
	}
}

func TestMessage_Headers(t *testing.T) {
	msg := string(message("portal@example.se", "anna@bolag.se", "Your login code", "<p>482913</p>"))

	for _, want := range []string{
		"From: portal@example.se\r\n",
		"To: anna@bolag.se\r\n",
		"Subject: Your login code\r\n",
		"Content-Type: text/html",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.HasSuffix(msg, "\r\n\r\n<p>482913</p>") {
		t.Fatalf("body must follow a blank line: %q", msg)
	}
}
