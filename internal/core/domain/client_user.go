package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// ClientUser models a person entitled to portal access. Accounts are created
// by internal staff tooling; this service only reads them and records the
// last successful login.
type ClientUser struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	CompanyID   string     `json:"company_id"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// Organization is the company a ClientUser belongs to. Read-only here.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NormalizeEmail canonicalizes an address for lookup. Email uniqueness is
// case-insensitive, so every read and write goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
