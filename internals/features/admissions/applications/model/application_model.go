// file: internals/features/admissions/applications/model/application_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationUnderReview ApplicationStatus = "under_review"
	ApplicationApproved    ApplicationStatus = "approved"
	ApplicationRejected    ApplicationStatus = "rejected"
)

const (
	CategoryGeneral = "general"
	CategorySC      = "sc"
	CategoryST      = "st"
	CategoryOBC     = "obc"
	CategorySBC     = "sbc"
)

type ApplicationModel struct {
	ApplicationID          uuid.UUID `gorm:"column:application_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"application_id"`
	ApplicationReferenceID string    `gorm:"column:application_reference_id;type:varchar(20);not null" json:"application_reference_id"`

	// Applicant
	ApplicationApplicantName  string    `gorm:"column:application_applicant_name;not null" json:"application_applicant_name"`
	ApplicationDateOfBirth    time.Time `gorm:"column:application_date_of_birth;type:date;not null" json:"application_date_of_birth"`
	ApplicationGender         *string   `gorm:"column:application_gender" json:"application_gender,omitempty"`
	ApplicationEmail          string    `gorm:"column:application_email;not null" json:"application_email"`
	ApplicationPhone          string    `gorm:"column:application_phone;not null" json:"application_phone"`
	ApplicationAddress        string    `gorm:"column:application_address;not null" json:"application_address"`
	ApplicationCourseApplied  string    `gorm:"column:application_course_applied;not null" json:"application_course_applied"`
	ApplicationCategory       string    `gorm:"column:application_category;not null" json:"application_category"`
	ApplicationPreviousSchool *string   `gorm:"column:application_previous_school" json:"application_previous_school,omitempty"`
	ApplicationPreviousClass  *string   `gorm:"column:application_previous_class" json:"application_previous_class,omitempty"`

	// Preferences, order significant
	ApplicationFirstSchoolID  *uuid.UUID `gorm:"column:application_first_school_id;type:uuid" json:"application_first_school_id,omitempty"`
	ApplicationSecondSchoolID *uuid.UUID `gorm:"column:application_second_school_id;type:uuid" json:"application_second_school_id,omitempty"`
	ApplicationThirdSchoolID  *uuid.UUID `gorm:"column:application_third_school_id;type:uuid" json:"application_third_school_id,omitempty"`

	// Parent / guardian blocks
	ApplicationFatherName       *string `gorm:"column:application_father_name" json:"application_father_name,omitempty"`
	ApplicationFatherEmail      *string `gorm:"column:application_father_email" json:"application_father_email,omitempty"`
	ApplicationFatherPhone      *string `gorm:"column:application_father_phone" json:"application_father_phone,omitempty"`
	ApplicationFatherOccupation *string `gorm:"column:application_father_occupation" json:"application_father_occupation,omitempty"`
	ApplicationMotherName       *string `gorm:"column:application_mother_name" json:"application_mother_name,omitempty"`
	ApplicationMotherEmail      *string `gorm:"column:application_mother_email" json:"application_mother_email,omitempty"`
	ApplicationMotherPhone      *string `gorm:"column:application_mother_phone" json:"application_mother_phone,omitempty"`
	ApplicationMotherOccupation *string `gorm:"column:application_mother_occupation" json:"application_mother_occupation,omitempty"`
	ApplicationGuardianName     *string `gorm:"column:application_guardian_name" json:"application_guardian_name,omitempty"`
	ApplicationGuardianEmail    *string `gorm:"column:application_guardian_email" json:"application_guardian_email,omitempty"`
	ApplicationGuardianPhone    *string `gorm:"column:application_guardian_phone" json:"application_guardian_phone,omitempty"`
	ApplicationGuardianRelation *string `gorm:"column:application_guardian_relation" json:"application_guardian_relation,omitempty"`
	ApplicationPrimaryContact   string  `gorm:"column:application_primary_contact;not null" json:"application_primary_contact"`

	ApplicationDocuments datatypes.JSON `gorm:"column:application_documents;type:jsonb;not null;default:'[]'" json:"application_documents"`

	// Review
	ApplicationStatus         ApplicationStatus `gorm:"column:application_status;type:varchar(20);not null;default:'pending'" json:"application_status"`
	ApplicationReviewComments *string           `gorm:"column:application_review_comments" json:"application_review_comments,omitempty"`
	ApplicationReviewedBy     *uuid.UUID        `gorm:"column:application_reviewed_by;type:uuid" json:"application_reviewed_by,omitempty"`
	ApplicationReviewedAt     *time.Time        `gorm:"column:application_reviewed_at" json:"application_reviewed_at,omitempty"`

	ApplicationCreatedAt time.Time `gorm:"column:application_created_at;autoCreateTime" json:"application_created_at"`
	ApplicationUpdatedAt time.Time `gorm:"column:application_updated_at;autoUpdateTime" json:"application_updated_at"`
}

func (ApplicationModel) TableName() string { return "admission_applications" }

type Preference struct {
	Rank     string
	SchoolID uuid.UUID
}

// Preferences returns the non-null school choices in rank order.
func (a *ApplicationModel) Preferences() []Preference {
	out := make([]Preference, 0, 3)
	for _, p := range []struct {
		rank string
		id   *uuid.UUID
	}{
		{"1st", a.ApplicationFirstSchoolID},
		{"2nd", a.ApplicationSecondSchoolID},
		{"3rd", a.ApplicationThirdSchoolID},
	} {
		if p.id != nil && *p.id != uuid.Nil {
			out = append(out, Preference{Rank: p.rank, SchoolID: *p.id})
		}
	}
	return out
}

// ContactBlock is one parent or guardian block as entered on the form.
type ContactBlock struct {
	Relationship string
	Name         string
	Email        string
	Phone        string
	Occupation   string
}

func (a *ApplicationModel) ContactBlocks() []ContactBlock {
	return []ContactBlock{
		{"father", deref(a.ApplicationFatherName), deref(a.ApplicationFatherEmail), deref(a.ApplicationFatherPhone), deref(a.ApplicationFatherOccupation)},
		{"mother", deref(a.ApplicationMotherName), deref(a.ApplicationMotherEmail), deref(a.ApplicationMotherPhone), deref(a.ApplicationMotherOccupation)},
		{"guardian", deref(a.ApplicationGuardianName), deref(a.ApplicationGuardianEmail), deref(a.ApplicationGuardianPhone), ""},
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
