package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/interimgrowthcollective/portal-system/internal/core/domain"
	"github.com/interimgrowthcollective/portal-system/internal/core/ports"
	"github.com/interimgrowthcollective/portal-system/internal/pkg/metrics"
)

// RateLimitByIP rejects requests from addresses that exceed the per-IP
// window. A limiter failure fails open: throttling is hardening, and a Redis
// outage must not lock every client out of the portal.
func RateLimitByIP(throttle ports.RequestThrottle, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			allowed, err := throttle.AllowIP(c.Request().Context(), ip)
			if err != nil {
				log.Warn().Err(err).Str("ip", ip).Msg("ip throttle unavailable, allowing request")
				return next(c)
			}
			if !allowed {
				metrics.ThrottleRejectionsTotal.WithLabelValues("ip").Inc()
				log.Info().Str("ip", ip).Msg("request rejected by ip throttle")
				return domain.ErrRateLimited
			}

			return next(c)
		}
	}
}
