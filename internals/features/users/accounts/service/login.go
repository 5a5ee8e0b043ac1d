package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	model "schoolerp_backend/internals/features/users/accounts/model"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
)

const accessTTLDefault = 12 * time.Hour

type LoginResult struct {
	AccessToken        string          `json:"access_token"`
	ExpiresAt          time.Time       `json:"expires_at"`
	User               model.UserModel `json:"user"`
	StudentID          *uuid.UUID      `json:"student_id,omitempty"`
	MustChangePassword bool            `json:"must_change_password"`
}

var errBadCredentials = helper.StateErr("INVALID_CREDENTIALS", "identifier or password is incorrect")

// Login accepts a username or an email.
func Login(ctx context.Context, db *gorm.DB, identifier, password, secret string, ttl time.Duration) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, helper.NewValidation(map[string][]string{
			"identifier": {"this field is required"},
			"password":   {"this field is required"},
		})
	}

	var users []model.UserModel
	q := db.WithContext(ctx).Model(&model.UserModel{})
	if strings.Contains(identifier, "@") {
		q = q.Where("lower(user_email) = lower(?)", identifier)
	} else {
		q = q.Where("user_name = ?", identifier)
	}
	if err := q.Limit(2).Find(&users).Error; err != nil {
		return nil, err
	}
	switch {
	case len(users) == 0:
		return nil, errBadCredentials
	case len(users) > 1:
		return nil, helper.FieldError("identifier", "username is shared by several schools, sign in with your email")
	}
	u := users[0]
	if !u.UserIsActive {
		return nil, helper.StateErr("ACCOUNT_DISABLED", "this account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.UserPassword), []byte(password)); err != nil {
		return nil, errBadCredentials
	}

	var studentID *uuid.UUID
	if u.UserRole == model.RoleStudent {
		var sp model.StudentProfileModel
		err := db.WithContext(ctx).Where("student_user_id = ?", u.UserID).Take(&sp).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil {
			studentID = &sp.StudentID
		}
	}

	now := dbtime.Now()
	tok, exp, err := IssueAccessToken(u, studentID, secret, ttl, now)
	if err != nil {
		return nil, err
	}
	_ = db.WithContext(ctx).Model(&model.UserModel{}).
		Where("user_id = ?", u.UserID).
		Update("user_last_login_at", now).Error

	return &LoginResult{
		AccessToken:        tok,
		ExpiresAt:          exp,
		User:               u,
		StudentID:          studentID,
		MustChangePassword: u.UserMustChangePassword,
	}, nil
}

func buildAccessClaims(u model.UserModel, studentID *uuid.UUID, now time.Time, ttl time.Duration) jwt.MapClaims {
	claims := jwt.MapClaims{
		"typ":       "access",
		"sub":       u.UserID.String(),
		"user_name": u.UserName,
		"role":      u.UserRole,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	if u.UserSchoolID != nil {
		claims["school_id"] = u.UserSchoolID.String()
	}
	if studentID != nil {
		claims["student_id"] = studentID.String()
	}
	return claims
}

func IssueAccessToken(u model.UserModel, studentID *uuid.UUID, secret string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = accessTTLDefault
	}
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, errors.New("jwt secret is not configured")
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, buildAccessClaims(u, studentID, now, ttl)).
		SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, now.Add(ttl), nil
}

// UserActive backs the JWT middleware check for disabled accounts.
func UserActive(ctx context.Context, db *gorm.DB, userID uuid.UUID) (bool, error) {
	var active []bool
	if err := db.WithContext(ctx).Model(&model.UserModel{}).
		Where("user_id = ?", userID).
		Pluck("user_is_active", &active).Error; err != nil {
		return false, err
	}
	return len(active) == 1 && active[0], nil
}
