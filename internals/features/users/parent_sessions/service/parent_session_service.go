package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountModel "schoolerp_backend/internals/features/users/accounts/model"
	otpDto "schoolerp_backend/internals/features/users/otp/dto"
	otpModel "schoolerp_backend/internals/features/users/otp/model"
	otpService "schoolerp_backend/internals/features/users/otp/service"
	dto "schoolerp_backend/internals/features/users/parent_sessions/dto"
	model "schoolerp_backend/internals/features/users/parent_sessions/model"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
	authMw "schoolerp_backend/internals/middlewares/auth"
)

const DefaultTTL = 4 * time.Hour

var errSessionInvalid = fiber.NewError(fiber.StatusUnauthorized, "parent session is invalid or expired")

type Service struct {
	DB     *gorm.DB
	OTP    *otpService.Service
	Secret string
	TTL    time.Duration
}

func New(db *gorm.DB, otp *otpService.Service, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{DB: db, OTP: otp, Secret: secret, TTL: ttl}
}

// HashToken keys the stored session; the raw token never reaches the database.
func HashToken(token, secret string) string {
	m := hmac.New(sha256.New, []byte(secret))
	_, _ = m.Write([]byte(token))
	return hex.EncodeToString(m.Sum(nil))
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

/* ===============================
   Parent lookup
=================================*/

// FindParentForLogin resolves a parent by their own email first, then through
// the applicant email of an application whose student account exists.
// Primary contacts win in both cases.
func FindParentForLogin(ctx context.Context, db *gorm.DB, emailAddr string) (*accountModel.ParentProfileModel, error) {
	addr := otpService.NormalizeEmail(emailAddr)

	var p accountModel.ParentProfileModel
	err := db.WithContext(ctx).
		Where("lower(parent_email) = ?", addr).
		Order("parent_is_primary_contact DESC, parent_created_at DESC").
		Take(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = db.WithContext(ctx).
		Table("parent_profiles AS p").
		Select("p.*").
		Joins("JOIN student_profiles s ON s.student_id = p.parent_student_id").
		Joins("JOIN admission_decisions d ON d.decision_id = s.student_decision_id AND d.decision_account_allocated").
		Joins("JOIN admission_applications a ON a.application_id = d.decision_application_id").
		Where("lower(a.application_email) = ?", addr).
		Order("p.parent_is_primary_contact DESC, p.parent_created_at DESC").
		Take(&p).Error
	if err != nil {
		return nil, helper.NotFoundOr(err, "PARENT_NOT_FOUND", "no parent record is linked to this email")
	}
	return &p, nil
}

/* ===============================
   Login flow
=================================*/

func (s *Service) RequestLogin(ctx context.Context, emailAddr string) (*otpDto.RequestOTPResponse, error) {
	if _, err := FindParentForLogin(ctx, s.DB, emailAddr); err != nil {
		return nil, err
	}
	return s.OTP.Request(ctx, otpModel.PurposeParentLogin, emailAddr)
}

func (s *Service) VerifyLogin(ctx context.Context, emailAddr, code string) (*dto.SessionResponse, error) {
	parent, err := FindParentForLogin(ctx, s.DB, emailAddr)
	if err != nil {
		return nil, err
	}
	if _, err := s.OTP.Verify(ctx, otpModel.PurposeParentLogin, emailAddr, code); err != nil {
		return nil, err
	}
	token, exp, err := s.Create(ctx, parent, otpService.NormalizeEmail(emailAddr))
	if err != nil {
		return nil, err
	}
	zap.L().Info("[PARENT] session opened",
		zap.String("parent_id", parent.ParentID.String()),
		zap.String("student_id", parent.ParentStudentID.String()))
	return &dto.SessionResponse{Token: token, ExpiresAt: exp, Parent: *parent}, nil
}

func (s *Service) Create(ctx context.Context, parent *accountModel.ParentProfileModel, emailAddr string) (string, time.Time, error) {
	if strings.TrimSpace(s.Secret) == "" {
		return "", time.Time{}, errors.New("session secret is not configured")
	}
	token, err := newSessionToken()
	if err != nil {
		return "", time.Time{}, err
	}
	exp := dbtime.Now().Add(s.TTL)
	row := model.ParentSessionModel{
		ParentSessionTokenHash: HashToken(token, s.Secret),
		ParentSessionParentID:  parent.ParentID,
		ParentSessionStudentID: parent.ParentStudentID,
		ParentSessionEmail:     emailAddr,
		ParentSessionExpiresAt: exp,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Resolver adapts Resolve to the parent session middleware.
func (s *Service) Resolver() authMw.ParentResolver {
	return func(ctx context.Context, raw string) (*authMw.ParentIdentity, error) {
		cl, err := s.Resolve(ctx, raw)
		if err != nil {
			return nil, err
		}
		return &authMw.ParentIdentity{ParentID: cl.ParentID, StudentID: cl.StudentID, Email: cl.Email}, nil
	}
}

// Resolve returns the claims of a live session.
func (s *Service) Resolve(ctx context.Context, token string) (*dto.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errSessionInvalid
	}
	var row model.ParentSessionModel
	err := s.DB.WithContext(ctx).
		Where("parent_session_token_hash = ?", HashToken(token, s.Secret)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	if !row.Live(dbtime.Now()) {
		return nil, errSessionInvalid
	}
	return &dto.Claims{
		ParentID:  row.ParentSessionParentID,
		StudentID: row.ParentSessionStudentID,
		Email:     row.ParentSessionEmail,
		ExpiresAt: row.ParentSessionExpiresAt,
	}, nil
}

func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.DB.WithContext(ctx).
		Model(&model.ParentSessionModel{}).
		Where("parent_session_token_hash = ? AND parent_session_revoked_at IS NULL", HashToken(token, s.Secret)).
		Update("parent_session_revoked_at", dbtime.Now()).Error
}

func (s *Service) Me(ctx context.Context, parentID, studentID uuid.UUID) (*dto.MeResponse, error) {
	var out dto.MeResponse
	if err := s.DB.WithContext(ctx).Where("parent_id = ?", parentID).Take(&out.Parent).Error; err != nil {
		return nil, helper.NotFoundOr(err, "PARENT_NOT_FOUND", "parent not found")
	}
	if err := s.DB.WithContext(ctx).Where("student_id = ?", studentID).Take(&out.Student).Error; err != nil {
		return nil, helper.NotFoundOr(err, "STUDENT_NOT_FOUND", "student not found")
	}
	var names []string
	if err := s.DB.WithContext(ctx).Table("schools").
		Where("school_id = ?", out.Student.StudentSchoolID).
		Pluck("school_name", &names).Error; err != nil {
		return nil, err
	}
	if len(names) > 0 {
		out.School = names[0]
	}
	return &out, nil
}

// Purge removes sessions that expired or were revoked before the cutoff.
func Purge(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("parent_session_expires_at < ? OR parent_session_revoked_at < ?", cutoff, cutoff).
		Delete(&model.ParentSessionModel{})
	return res.RowsAffected, res.Error
}
