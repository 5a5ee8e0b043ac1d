package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RelationFather   = "father"
	RelationMother   = "mother"
	RelationGuardian = "guardian"
)

// ParentProfileModel has no login of its own; parents authenticate by OTP.
type ParentProfileModel struct {
	ParentID               uuid.UUID `gorm:"column:parent_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"parent_id"`
	ParentStudentID        uuid.UUID `gorm:"column:parent_student_id;type:uuid;not null" json:"parent_student_id"`
	ParentRelationship     string    `gorm:"column:parent_relationship;type:varchar(10);not null" json:"parent_relationship"`
	ParentFirstName        string    `gorm:"column:parent_first_name;not null" json:"parent_first_name"`
	ParentLastName         string    `gorm:"column:parent_last_name;not null;default:''" json:"parent_last_name"`
	ParentEmail            string    `gorm:"column:parent_email;not null" json:"parent_email"`
	ParentPhone            *string   `gorm:"column:parent_phone" json:"parent_phone,omitempty"`
	ParentOccupation       *string   `gorm:"column:parent_occupation" json:"parent_occupation,omitempty"`
	ParentAddress          *string   `gorm:"column:parent_address" json:"parent_address,omitempty"`
	ParentIsPrimaryContact bool      `gorm:"column:parent_is_primary_contact;not null;default:false" json:"parent_is_primary_contact"`

	ParentCreatedAt time.Time `gorm:"column:parent_created_at;autoCreateTime" json:"parent_created_at"`
	ParentUpdatedAt time.Time `gorm:"column:parent_updated_at;autoUpdateTime" json:"parent_updated_at"`
}

func (ParentProfileModel) TableName() string { return "parent_profiles" }
