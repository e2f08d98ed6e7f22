package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/interimgrowthcollective/portal-system/internal/core/domain"
	"github.com/interimgrowthcollective/portal-system/internal/core/ports"
	"github.com/interimgrowthcollective/portal-system/internal/pkg/metrics"
)

type AuthHandler struct {
	authService ports.AuthService
	throttle    ports.RequestThrottle
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, throttle ports.RequestThrottle, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, throttle: throttle, log: log}
}

// RequestCode issues a one-time login code for a registered email.
//
// @Summary      Request a login code
// @Description  Sends a one-time code to the given email if it belongs to a portal account. The response is identical either way.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      requestCodeRequest  true  "Email to send the code to"
// @Success      200   {object}  requestCodeResponse
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /send-magic-link/request [post]
func (h *AuthHandler) RequestCode(c echo.Context) error {
	var req requestCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Per-email window, checked before the user lookup so throttling looks
	// the same for registered and unknown addresses.
	normalized := domain.NormalizeEmail(req.Email)
	if allowed, err := h.throttle.AllowEmail(c.Request().Context(), normalized); err != nil {
		h.log.Warn().Err(err).Msg("email throttle unavailable, allowing request")
	} else if !allowed {
		metrics.ThrottleRejectionsTotal.WithLabelValues("email").Inc()
		h.log.Info().Str("email", normalized).Msg("request rejected by email throttle")
		return domain.ErrRateLimited
	}

	message, err := h.authService.RequestCode(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, requestCodeResponse{Success: true, Message: message})
}

// VerifyCode exchanges an (email, code) pair for a client session.
//
// @Summary      Verify a login code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyCodeRequest  true  "Email and one-time code"
// @Success      200   {object}  verifyCodeResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /send-magic-link/verify [post]
func (h *AuthHandler) VerifyCode(c echo.Context) error {
	var req verifyCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := h.authService.VerifyCode(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, verifyCodeResponse{Success: true, Session: session})
}
