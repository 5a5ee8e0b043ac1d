// file: internals/features/schools/model/school_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type SchoolModel struct {
	SchoolID       uuid.UUID `gorm:"column:school_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"school_id"`
	SchoolName     string    `gorm:"column:school_name;type:varchar(200);not null" json:"school_name"`
	SchoolCode     string    `gorm:"column:school_code;type:varchar(32);not null" json:"school_code"`
	SchoolEmail    *string   `gorm:"column:school_email" json:"school_email,omitempty"`
	SchoolPhone    *string   `gorm:"column:school_phone" json:"school_phone,omitempty"`
	SchoolAddress  *string   `gorm:"column:school_address" json:"school_address,omitempty"`
	SchoolDistrict *string   `gorm:"column:school_district" json:"school_district,omitempty"`
	SchoolIsActive bool      `gorm:"column:school_is_active;not null;default:true" json:"school_is_active"`

	SchoolCreatedAt time.Time `gorm:"column:school_created_at;autoCreateTime" json:"school_created_at"`
	SchoolUpdatedAt time.Time `gorm:"column:school_updated_at;autoUpdateTime" json:"school_updated_at"`
}

func (SchoolModel) TableName() string { return "schools" }

// CodeSuffix returns the last five characters of the school code, used in student credentials.
func (s SchoolModel) CodeSuffix() string {
	code := []rune(s.SchoolCode)
	if len(code) <= 5 {
		return string(code)
	}
	return string(code[len(code)-5:])
}
