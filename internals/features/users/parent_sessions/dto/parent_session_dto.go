package dto

import (
	"time"

	"github.com/google/uuid"

	accountModel "schoolerp_backend/internals/features/users/accounts/model"
)

type ParentOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=200"`
}

type ParentOTPVerify struct {
	Email string `json:"email" validate:"required,email,max=200"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// Claims describe a live parent session.
type Claims struct {
	ParentID  uuid.UUID `json:"parent_id"`
	StudentID uuid.UUID `json:"student_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionResponse struct {
	Token     string                          `json:"session_token"`
	ExpiresAt time.Time                       `json:"expires_at"`
	Parent    accountModel.ParentProfileModel `json:"parent"`
}

type MeResponse struct {
	Parent  accountModel.ParentProfileModel  `json:"parent"`
	Student accountModel.StudentProfileModel `json:"student"`
	School  string                           `json:"school_name"`
}
