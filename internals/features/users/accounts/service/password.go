package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	model "schoolerp_backend/internals/features/users/accounts/model"
	helper "schoolerp_backend/internals/helpers"
)

// ChangePassword verifies the current password and clears the
// must-change flag set at provisioning time.
func ChangePassword(ctx context.Context, db *gorm.DB, userID uuid.UUID, current, next string) error {
	if current == next {
		return helper.FieldError("new_password", "must differ from the current password")
	}

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	var u model.UserModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).Take(&u).Error; err != nil {
		return helper.NotFoundOr(err, "USER_NOT_FOUND", "user not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.UserPassword), []byte(current)); err != nil {
		return helper.FieldError("current_password", "current password is incorrect")
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := tx.Model(&u).Updates(map[string]any{
		"user_password":             hash,
		"user_must_change_password": false,
	}).Error; err != nil {
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}
	zap.L().Info("[ACCOUNT] password changed", zap.String("user_id", userID.String()))
	return nil
}

type Me struct {
	User    model.UserModel            `json:"user"`
	Student *model.StudentProfileModel `json:"student,omitempty"`
}

func GetMe(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*Me, error) {
	var out Me
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Take(&out.User).Error; err != nil {
		return nil, helper.NotFoundOr(err, "USER_NOT_FOUND", "user not found")
	}
	if out.User.UserRole == model.RoleStudent {
		var sp []model.StudentProfileModel
		if err := db.WithContext(ctx).Where("student_user_id = ?", userID).Limit(1).Find(&sp).Error; err != nil {
			return nil, err
		}
		if len(sp) == 1 {
			out.Student = &sp[0]
		}
	}
	return &out, nil
}
