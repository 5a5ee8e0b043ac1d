package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PurposeEmailVerification = "email_verification"
	PurposeParentLogin       = "parent_login"
)

type OTPCodeModel struct {
	OTPID                uuid.UUID  `gorm:"column:otp_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"otp_id"`
	OTPPurpose           string     `gorm:"column:otp_purpose;type:varchar(30);not null" json:"otp_purpose"`
	OTPDestination       string     `gorm:"column:otp_destination;type:varchar(200);not null" json:"otp_destination"`
	OTPCode              string     `gorm:"column:otp_code;type:varchar(6);not null" json:"-"`
	OTPExpiresAt         time.Time  `gorm:"column:otp_expires_at;not null" json:"otp_expires_at"`
	OTPAttempts          int        `gorm:"column:otp_attempts;not null;default:0" json:"otp_attempts"`
	OTPVerifiedAt        *time.Time `gorm:"column:otp_verified_at" json:"otp_verified_at,omitempty"`
	OTPVerificationToken *string    `gorm:"column:otp_verification_token" json:"-"`
	OTPConsumedAt        *time.Time `gorm:"column:otp_consumed_at" json:"otp_consumed_at,omitempty"`
	OTPCreatedAt         time.Time  `gorm:"column:otp_created_at;autoCreateTime" json:"otp_created_at"`
}

func (OTPCodeModel) TableName() string { return "otp_codes" }

func ValidPurpose(p string) bool {
	return p == PurposeEmailVerification || p == PurposeParentLogin
}
