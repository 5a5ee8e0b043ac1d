package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolerp_backend/internals/features/admissions/identifiers"
	"schoolerp_backend/internals/features/notifications/email"
	dto "schoolerp_backend/internals/features/users/otp/dto"
	model "schoolerp_backend/internals/features/users/otp/model"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
	"schoolerp_backend/internals/observability"
)

// VerificationTokenTTL bounds how long a verified email may be used to submit an application.
const VerificationTokenTTL = time.Hour

type Service struct {
	DB     *gorm.DB
	Mail   email.Sender
	Policy identifiers.OTPPolicy
}

func New(db *gorm.DB, mail email.Sender) *Service {
	return &Service{DB: db, Mail: mail, Policy: identifiers.DefaultOTPPolicy}
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Request issues a new code after the throttle check. Generators for the same
// destination are serialised with a transaction-scoped advisory lock.
func (s *Service) Request(ctx context.Context, purpose, destination string) (out *dto.RequestOTPResponse, err error) {
	defer func() {
		observability.OTPRequests.WithLabelValues(purpose, observability.Result(err, helper.CodeOf(err))).Inc()
	}()

	if !model.ValidPurpose(purpose) {
		return nil, helper.FieldError("purpose", "unknown otp purpose")
	}
	dest := NormalizeEmail(destination)
	if dest == "" {
		return nil, helper.FieldError("email", "this field is required")
	}

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, "otp:"+purpose+":"+dest).Error; err != nil {
		return nil, err
	}

	now := dbtime.Now()
	var history []time.Time
	if err := tx.Model(&model.OTPCodeModel{}).
		Where("otp_purpose = ? AND otp_destination = ? AND otp_created_at > ?", purpose, dest, now.Add(-s.Policy.Window)).
		Pluck("otp_created_at", &history).Error; err != nil {
		return nil, err
	}
	if err := s.Policy.CheckOTPThrottle(history, now); err != nil {
		return nil, err
	}

	code, err := identifiers.NewOTP()
	if err != nil {
		return nil, err
	}
	row := model.OTPCodeModel{
		OTPPurpose:     purpose,
		OTPDestination: dest,
		OTPCode:        code,
		OTPExpiresAt:   now.Add(s.Policy.Validity),
		OTPCreatedAt:   now,
	}
	if err := tx.Create(&row).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if s.Mail != nil {
		s.Mail.SendMessages(email.OTPMessage(dest, email.OTPData{
			Code:     code,
			Purpose:  purpose,
			ValidFor: s.Policy.Validity,
		}))
	}
	zap.L().Info("[OTP] issued", zap.String("purpose", purpose), zap.String("destination", dest))

	return &dto.RequestOTPResponse{
		Destination:     dest,
		ExpiresAt:       row.OTPExpiresAt,
		ResendAfterSecs: int(s.Policy.MinGap.Seconds()),
	}, nil
}

// Verify checks the latest unverified code. A wrong code still burns an
// attempt, so the increment is committed before the error is returned.
func (s *Service) Verify(ctx context.Context, purpose, destination, code string) (*dto.VerifyOTPResponse, error) {
	dest := NormalizeEmail(destination)

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	var row model.OTPCodeModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("otp_purpose = ? AND otp_destination = ? AND otp_verified_at IS NULL", purpose, dest).
		Order("otp_created_at DESC").
		Take(&row).Error
	if err != nil {
		return nil, helper.NotFoundOr(err, "OTP_NOT_REQUESTED", "no pending code for this email, request a new one")
	}

	now := dbtime.Now()
	if !now.Before(row.OTPExpiresAt) {
		return nil, helper.StateErr("OTP_EXPIRED", "the code has expired, request a new one")
	}
	if row.OTPAttempts >= s.Policy.MaxAttempts {
		return nil, helper.StateErr("OTP_ATTEMPTS_EXCEEDED", "too many wrong attempts, request a new code")
	}

	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(row.OTPCode)) != 1 {
		row.OTPAttempts++
		if err := tx.Model(&row).Update("otp_attempts", row.OTPAttempts).Error; err != nil {
			return nil, err
		}
		if err := tx.Commit().Error; err != nil {
			return nil, err
		}
		left := s.Policy.MaxAttempts - row.OTPAttempts
		if left <= 0 {
			return nil, helper.StateErr("OTP_ATTEMPTS_EXCEEDED", "too many wrong attempts, request a new code")
		}
		return nil, helper.StateErr("OTP_INVALID", "the code is not correct").With("attempts_remaining", left)
	}

	out := &dto.VerifyOTPResponse{Verified: true}
	updates := map[string]any{"otp_verified_at": now}
	if purpose == model.PurposeEmailVerification {
		tok, err := newToken()
		if err != nil {
			return nil, err
		}
		exp := now.Add(VerificationTokenTTL)
		updates["otp_verification_token"] = tok
		out.VerificationToken = tok
		out.TokenExpiresAt = &exp
	}
	if err := tx.Model(&row).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return out, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ConsumeVerificationToken spends a verified email token inside the caller's
// transaction. A token works once.
func ConsumeVerificationToken(ctx context.Context, tx *gorm.DB, destination, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return helper.FieldError("verification_token", "verify your email before submitting")
	}
	var row model.OTPCodeModel
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("otp_purpose = ? AND otp_verification_token = ? AND otp_destination = ?",
			model.PurposeEmailVerification, token, NormalizeEmail(destination)).
		Take(&row).Error
	if err != nil {
		return helper.NotFoundOr(err, "EMAIL_NOT_VERIFIED", "the verification token does not match this email")
	}
	now := dbtime.Now()
	switch {
	case row.OTPConsumedAt != nil:
		return helper.StateErr("VERIFICATION_TOKEN_USED", "this verification token was already used")
	case row.OTPVerifiedAt == nil || now.Sub(*row.OTPVerifiedAt) > VerificationTokenTTL:
		return helper.StateErr("VERIFICATION_TOKEN_EXPIRED", "verify your email again")
	}
	return tx.WithContext(ctx).Model(&row).Update("otp_consumed_at", now).Error
}

// Purge removes codes that expired before the cutoff.
func Purge(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("otp_expires_at < ?", cutoff).
		Delete(&model.OTPCodeModel{})
	return res.RowsAffected, res.Error
}
