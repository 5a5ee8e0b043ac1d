// file: internals/features/users/accounts/model/user_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleWarden  = "warden"
	RoleStudent = "student"
)

type UserModel struct {
	UserID                 uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	UserName               string     `gorm:"column:user_name;type:varchar(150);not null" json:"user_name"`
	UserEmail              string     `gorm:"column:user_email;type:varchar(200);not null" json:"user_email"`
	UserPassword           string     `gorm:"column:user_password;not null" json:"-"`
	UserFullName           *string    `gorm:"column:user_full_name" json:"user_full_name,omitempty"`
	UserRole               string     `gorm:"column:user_role;type:varchar(20);not null;default:'student'" json:"user_role"`
	UserSchoolID           *uuid.UUID `gorm:"column:user_school_id;type:uuid" json:"user_school_id,omitempty"`
	UserMustChangePassword bool       `gorm:"column:user_must_change_password;not null;default:false" json:"user_must_change_password"`
	UserIsActive           bool       `gorm:"column:user_is_active;not null;default:true" json:"user_is_active"`
	UserLastLoginAt        *time.Time `gorm:"column:user_last_login_at" json:"user_last_login_at,omitempty"`

	UserCreatedAt time.Time `gorm:"column:user_created_at;autoCreateTime" json:"user_created_at"`
	UserUpdatedAt time.Time `gorm:"column:user_updated_at;autoUpdateTime" json:"user_updated_at"`
}

func (UserModel) TableName() string { return "users" }
