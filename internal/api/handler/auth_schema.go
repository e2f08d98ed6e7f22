package handler

import "github.com/interimgrowthcollective/portal-system/internal/core/domain"

// requestCodeRequest is the body of POST /send-magic-link/request.
// Only presence is checked: any string is lower-cased and looked up, and a
// string that matches no account exits through the generic acknowledgment.
// A format check here would give away which inputs can possibly be accounts.
type requestCodeRequest struct {
	Email string `json:"email" validate:"required"`
}

// verifyCodeRequest is the body of POST /send-magic-link/verify.
// The code is only checked for presence; anything that was never stored
// simply fails to match.
type verifyCodeRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

type requestCodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type verifyCodeResponse struct {
	Success bool                  `json:"success"`
	Session *domain.ClientSession `json:"session"`
}
