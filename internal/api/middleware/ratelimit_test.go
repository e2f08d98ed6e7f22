package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/interimgrowthcollective/portal-system/internal/core/domain"
)

type stubThrottle struct {
	allow bool
	err   error
	ips   []string
}

func (s *stubThrottle) AllowEmail(context.Context, string) (bool, error) { return true, nil }

func (s *stubThrottle) AllowIP(_ context.Context, ip string) (bool, error) {
	s.ips = append(s.ips, ip)
	return s.allow, s.err
}

func invoke(t *testing.T, throttle *stubThrottle) (int, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/send-magic-link/request", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	err := RateLimitByIP(throttle, zerolog.Nop())(next)(c)
	return rec.Code, err
}

func TestRateLimitByIP_Allows(t *testing.T) {
	code, err := invoke(t, &stubThrottle{allow: true})
	if err != nil || code != http.StatusOK {
		t.Fatalf("expected pass-through, got code=%d err=%v", code, err)
	}
}

func TestRateLimitByIP_Rejects(t *testing.T) {
	_, err := invoke(t, &stubThrottle{allow: false})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimitByIP_FailsOpenOnLimiterError(t *testing.T) {
	code, err := invoke(t, &stubThrottle{err: errors.New("redis down")})
	if err != nil || code != http.StatusOK {
		t.Fatalf("limiter outage must fail open, got code=%d err=%v", code, err)
	}
}

func TestRateLimitByIP_UsesClientIP(t *testing.T) {
	throttle := &stubThrottle{allow: true}
	if _, err := invoke(t, throttle); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if len(throttle.ips) != 1 || throttle.ips[0] == "" {
		t.Fatalf("expected one non-empty ip check, got %v", throttle.ips)
	}
}
