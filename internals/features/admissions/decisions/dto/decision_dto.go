package dto

import (
	"time"

	"github.com/google/uuid"

	model "schoolerp_backend/internals/features/admissions/decisions/model"
)

type ReviewDecisionRequest struct {
	Outcome  string  `json:"outcome" validate:"required,oneof=pending under_review accepted rejected waitlisted"`
	Comments *string `json:"comments" validate:"omitempty,max=2000"`
}

// ApplicantRef proves the caller holds the application reference id.
type ApplicantRef struct {
	ReferenceID string `json:"reference_id" validate:"required,min=8,max=20"`
}

type EnrollRequest struct {
	ReferenceID      string  `json:"reference_id" validate:"required,min=8,max=20"`
	PaymentReference *string `json:"payment_reference" validate:"omitempty,min=3,max=100"`
	Finalize         bool    `json:"finalize"`
}

type WithdrawRequest struct {
	ReferenceID string `json:"reference_id" validate:"omitempty,min=8,max=20"`
	Reason      string `json:"reason" validate:"required,min=3,max=1000"`
	Force       bool   `json:"force"`
}

type ListDecisionsQuery struct {
	Outcome    string `query:"outcome" validate:"omitempty,oneof=pending under_review accepted rejected waitlisted"`
	Enrollment string `query:"enrollment" validate:"omitempty,oneof=not_enrolled enrolled withdrawn"`
	Q          string `query:"q" validate:"omitempty,max=100"`
}

// DecisionRow is a review-queue entry joined with the applicant.
type DecisionRow struct {
	model.DecisionModel
	ApplicationReferenceID string `gorm:"column:application_reference_id" json:"application_reference_id"`
	ApplicantName          string `gorm:"column:application_applicant_name" json:"applicant_name"`
	ApplicantEmail         string `gorm:"column:application_email" json:"applicant_email"`
	CourseApplied          string `gorm:"column:application_course_applied" json:"course_applied"`
	Category               string `gorm:"column:application_category" json:"category"`
	SchoolName             string `gorm:"column:school_name" json:"school_name"`
}

type FinalizeResponse struct {
	Finalized bool                 `json:"finalized"`
	Decision  *model.DecisionModel `json:"decision"`
}

type EnrollmentStatusResponse struct {
	ReferenceID      string     `json:"reference_id"`
	ApplicantName    string     `json:"applicant_name"`
	Enrolled         bool       `json:"enrolled"`
	DecisionID       *uuid.UUID `json:"decision_id,omitempty"`
	SchoolID         *uuid.UUID `json:"school_id,omitempty"`
	SchoolName       string     `json:"school_name,omitempty"`
	EnrolledAt       *time.Time `json:"enrolled_at,omitempty"`
	PaymentStatus    string     `json:"payment_status,omitempty"`
	PaymentFinalized bool       `json:"payment_finalized"`
	AccountAllocated bool       `json:"account_allocated"`
	AdmissionNumber  *string    `json:"admission_number,omitempty"`
	AcceptedSchools  int        `json:"accepted_schools"`
	PendingDecisions int        `json:"pending_decisions"`
}
