package model

import (
	"time"

	"github.com/google/uuid"
)

type StudentProfileModel struct {
	StudentID              uuid.UUID  `gorm:"column:student_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	StudentUserID          uuid.UUID  `gorm:"column:student_user_id;type:uuid;not null" json:"student_user_id"`
	StudentSchoolID        uuid.UUID  `gorm:"column:student_school_id;type:uuid;not null" json:"student_school_id"`
	StudentApplicationID   *uuid.UUID `gorm:"column:student_application_id;type:uuid" json:"student_application_id,omitempty"`
	StudentDecisionID      *uuid.UUID `gorm:"column:student_decision_id;type:uuid" json:"student_decision_id,omitempty"`
	StudentAdmissionNumber string     `gorm:"column:student_admission_number;type:varchar(10);not null" json:"student_admission_number"`
	StudentRollNumber      string     `gorm:"column:student_roll_number;type:varchar(20);not null" json:"student_roll_number"`
	StudentFullName        string     `gorm:"column:student_full_name;not null" json:"student_full_name"`
	StudentCourse          string     `gorm:"column:student_course;not null" json:"student_course"`
	StudentSemester        int        `gorm:"column:student_semester;not null;default:1" json:"student_semester"`
	StudentDateOfBirth     *time.Time `gorm:"column:student_date_of_birth;type:date" json:"student_date_of_birth,omitempty"`
	StudentCategory        *string    `gorm:"column:student_category" json:"student_category,omitempty"`
	StudentPhone           *string    `gorm:"column:student_phone" json:"student_phone,omitempty"`
	StudentAddress         *string    `gorm:"column:student_address" json:"student_address,omitempty"`

	StudentCreatedAt time.Time `gorm:"column:student_created_at;autoCreateTime" json:"student_created_at"`
	StudentUpdatedAt time.Time `gorm:"column:student_updated_at;autoUpdateTime" json:"student_updated_at"`
}

func (StudentProfileModel) TableName() string { return "student_profiles" }
