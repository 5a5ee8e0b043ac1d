package dto

import "time"

type RequestOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=200"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=200"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type RequestOTPResponse struct {
	Destination     string    `json:"destination"`
	ExpiresAt       time.Time `json:"expires_at"`
	ResendAfterSecs int       `json:"resend_after_seconds"`
}

type VerifyOTPResponse struct {
	Verified          bool       `json:"verified"`
	VerificationToken string     `json:"verification_token,omitempty"`
	TokenExpiresAt    *time.Time `json:"token_expires_at,omitempty"`
}
