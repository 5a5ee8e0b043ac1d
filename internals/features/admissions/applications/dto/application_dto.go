// file: internals/features/admissions/applications/dto/application_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	model "schoolerp_backend/internals/features/admissions/applications/model"
	decisionModel "schoolerp_backend/internals/features/admissions/decisions/model"
)

type SubmitApplicationRequest struct {
	ApplicantName  string  `json:"applicant_name" validate:"required,min=2,max=200"`
	DateOfBirth    string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender         *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Email          string  `json:"email" validate:"required,email,max=200"`
	Phone          string  `json:"phone" validate:"required,min=7,max=30"`
	Address        string  `json:"address" validate:"required,min=5"`
	CourseApplied  string  `json:"course_applied" validate:"required,max=100"`
	Category       string  `json:"category" validate:"required,oneof=general sc st obc sbc"`
	PreviousSchool *string `json:"previous_school" validate:"omitempty,max=200"`
	PreviousClass  *string `json:"previous_class" validate:"omitempty,max=50"`

	FirstSchoolID  *string `json:"first_school_id" validate:"omitempty,uuid"`
	SecondSchoolID *string `json:"second_school_id" validate:"omitempty,uuid"`
	ThirdSchoolID  *string `json:"third_school_id" validate:"omitempty,uuid"`

	FatherName       *string `json:"father_name" validate:"omitempty,max=200"`
	FatherEmail      *string `json:"father_email" validate:"omitempty,email,max=200"`
	FatherPhone      *string `json:"father_phone" validate:"omitempty,max=30"`
	FatherOccupation *string `json:"father_occupation" validate:"omitempty,max=100"`
	MotherName       *string `json:"mother_name" validate:"omitempty,max=200"`
	MotherEmail      *string `json:"mother_email" validate:"omitempty,email,max=200"`
	MotherPhone      *string `json:"mother_phone" validate:"omitempty,max=30"`
	MotherOccupation *string `json:"mother_occupation" validate:"omitempty,max=100"`
	GuardianName     *string `json:"guardian_name" validate:"omitempty,max=200"`
	GuardianEmail    *string `json:"guardian_email" validate:"omitempty,email,max=200"`
	GuardianPhone    *string `json:"guardian_phone" validate:"omitempty,max=30"`
	GuardianRelation *string `json:"guardian_relation" validate:"omitempty,max=50"`
	PrimaryContact   string  `json:"primary_contact" validate:"required,oneof=father mother guardian"`

	VerificationToken string `json:"verification_token" validate:"omitempty,max=128"`
}

func clean(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func lowerClean(p *string) *string {
	if v := clean(p); v != nil {
		l := strings.ToLower(*v)
		return &l
	}
	return nil
}

func parseSchool(p *string) *uuid.UUID {
	v := clean(p)
	if v == nil {
		return nil
	}
	id, err := uuid.Parse(*v)
	if err != nil {
		return nil
	}
	return &id
}

// CheckPreferences reports duplicated schools against the later field.
func (r *SubmitApplicationRequest) CheckPreferences() map[string][]string {
	seen := map[uuid.UUID]string{}
	out := map[string][]string{}
	for _, f := range []struct {
		name string
		val  *string
	}{
		{"first_school_id", r.FirstSchoolID},
		{"second_school_id", r.SecondSchoolID},
		{"third_school_id", r.ThirdSchoolID},
	} {
		id := parseSchool(f.val)
		if id == nil {
			continue
		}
		if prev, dup := seen[*id]; dup {
			out[f.name] = append(out[f.name], "school already chosen as "+prev)
			continue
		}
		seen[*id] = f.name
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ToModel expects a request that already passed validation.
func (r *SubmitApplicationRequest) ToModel(dob time.Time) *model.ApplicationModel {
	return &model.ApplicationModel{
		ApplicationApplicantName:    strings.TrimSpace(r.ApplicantName),
		ApplicationDateOfBirth:      dob,
		ApplicationGender:           lowerClean(r.Gender),
		ApplicationEmail:            strings.ToLower(strings.TrimSpace(r.Email)),
		ApplicationPhone:            strings.TrimSpace(r.Phone),
		ApplicationAddress:          strings.TrimSpace(r.Address),
		ApplicationCourseApplied:    strings.TrimSpace(r.CourseApplied),
		ApplicationCategory:         strings.ToLower(r.Category),
		ApplicationPreviousSchool:   clean(r.PreviousSchool),
		ApplicationPreviousClass:    clean(r.PreviousClass),
		ApplicationFirstSchoolID:    parseSchool(r.FirstSchoolID),
		ApplicationSecondSchoolID:   parseSchool(r.SecondSchoolID),
		ApplicationThirdSchoolID:    parseSchool(r.ThirdSchoolID),
		ApplicationFatherName:       clean(r.FatherName),
		ApplicationFatherEmail:      lowerClean(r.FatherEmail),
		ApplicationFatherPhone:      clean(r.FatherPhone),
		ApplicationFatherOccupation: clean(r.FatherOccupation),
		ApplicationMotherName:       clean(r.MotherName),
		ApplicationMotherEmail:      lowerClean(r.MotherEmail),
		ApplicationMotherPhone:      clean(r.MotherPhone),
		ApplicationMotherOccupation: clean(r.MotherOccupation),
		ApplicationGuardianName:     clean(r.GuardianName),
		ApplicationGuardianEmail:    lowerClean(r.GuardianEmail),
		ApplicationGuardianPhone:    clean(r.GuardianPhone),
		ApplicationGuardianRelation: clean(r.GuardianRelation),
		ApplicationPrimaryContact:   r.PrimaryContact,
		ApplicationStatus:           model.ApplicationPending,
	}
}

type ReviewApplicationRequest struct {
	Status   string  `json:"status" validate:"required,oneof=pending under_review approved rejected"`
	Comments *string `json:"comments" validate:"omitempty,max=2000"`
}

type ListApplicationsQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=pending under_review approved rejected"`
	SchoolID string `query:"school_id" validate:"omitempty,uuid"`
	Category string `query:"category" validate:"omitempty,oneof=general sc st obc sbc"`
	Q        string `query:"q" validate:"omitempty,max=100"`
}

// DecisionView is a decision with the school name, as shown to applicants.
type DecisionView struct {
	DecisionID       uuid.UUID                      `json:"decision_id"`
	SchoolID         uuid.UUID                      `json:"school_id"`
	SchoolName       string                         `json:"school_name"`
	Rank             string                         `json:"rank"`
	Outcome          decisionModel.Outcome          `json:"outcome"`
	DecisionDate     *time.Time                     `json:"decision_date,omitempty"`
	Comments         *string                        `json:"comments,omitempty"`
	IsStudentChoice  bool                           `json:"is_student_choice"`
	EnrollmentStatus decisionModel.EnrollmentStatus `json:"enrollment_status"`
	PaymentStatus    decisionModel.PaymentStatus    `json:"payment_status"`
	PaymentFinalized bool                           `json:"payment_finalized"`
	AccountAllocated bool                           `json:"account_allocated"`
}

type SubmitResponse struct {
	ReferenceID string                  `json:"reference_id"`
	Application *model.ApplicationModel `json:"application"`
	Decisions   []DecisionView          `json:"decisions"`
}

type TrackResponse struct {
	ReferenceID    string                  `json:"reference_id"`
	ApplicantName  string                  `json:"applicant_name"`
	CourseApplied  string                  `json:"course_applied"`
	Status         model.ApplicationStatus `json:"status"`
	ReviewComments *string                 `json:"review_comments,omitempty"`
	SubmittedAt    time.Time               `json:"submitted_at"`
	Decisions      []DecisionView          `json:"decisions"`
}

type ApplicationDetail struct {
	Application *model.ApplicationModel `json:"application"`
	Decisions   []DecisionView          `json:"decisions"`
}
