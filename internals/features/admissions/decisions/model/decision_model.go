// file: internals/features/admissions/decisions/model/decision_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Outcome string
type EnrollmentStatus string
type PaymentStatus string

const (
	OutcomePending     Outcome = "pending"
	OutcomeUnderReview Outcome = "under_review"
	OutcomeAccepted    Outcome = "accepted"
	OutcomeRejected    Outcome = "rejected"
	OutcomeWaitlisted  Outcome = "waitlisted"
)

const (
	NotEnrolled EnrollmentStatus = "not_enrolled"
	Enrolled    EnrollmentStatus = "enrolled"
	Withdrawn   EnrollmentStatus = "withdrawn"
)

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentWaived    PaymentStatus = "waived"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomePending, OutcomeUnderReview, OutcomeAccepted, OutcomeRejected, OutcomeWaitlisted:
		return true
	}
	return false
}

type DecisionModel struct {
	DecisionID            uuid.UUID `gorm:"column:decision_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"decision_id"`
	DecisionApplicationID uuid.UUID `gorm:"column:decision_application_id;type:uuid;not null" json:"decision_application_id"`
	DecisionSchoolID      uuid.UUID `gorm:"column:decision_school_id;type:uuid;not null" json:"decision_school_id"`
	DecisionRank          string    `gorm:"column:decision_rank;type:varchar(3);not null" json:"decision_rank"`

	// Admission outcome
	DecisionOutcome    Outcome    `gorm:"column:decision_outcome;type:varchar(20);not null;default:'pending'" json:"decision_outcome"`
	DecisionDate       *time.Time `gorm:"column:decision_date" json:"decision_date,omitempty"`
	DecisionReviewedBy *uuid.UUID `gorm:"column:decision_reviewed_by;type:uuid" json:"decision_reviewed_by,omitempty"`
	DecisionComments   *string    `gorm:"column:decision_comments" json:"decision_comments,omitempty"`

	DecisionIsStudentChoice bool       `gorm:"column:decision_is_student_choice;not null;default:false" json:"decision_is_student_choice"`
	DecisionStudentChoiceAt *time.Time `gorm:"column:decision_student_choice_at" json:"decision_student_choice_at,omitempty"`

	// Enrollment
	DecisionEnrollmentStatus EnrollmentStatus `gorm:"column:decision_enrollment_status;type:varchar(20);not null;default:'not_enrolled'" json:"decision_enrollment_status"`
	DecisionEnrolledAt       *time.Time       `gorm:"column:decision_enrolled_at" json:"decision_enrolled_at,omitempty"`
	DecisionWithdrawnAt      *time.Time       `gorm:"column:decision_withdrawn_at" json:"decision_withdrawn_at,omitempty"`
	DecisionWithdrawalReason *string          `gorm:"column:decision_withdrawal_reason" json:"decision_withdrawal_reason,omitempty"`

	// Payment
	DecisionPaymentStatus      PaymentStatus `gorm:"column:decision_payment_status;type:varchar(20);not null;default:'pending'" json:"decision_payment_status"`
	DecisionPaymentReference   *string       `gorm:"column:decision_payment_reference" json:"decision_payment_reference,omitempty"`
	DecisionPaymentCompletedAt *time.Time    `gorm:"column:decision_payment_completed_at" json:"decision_payment_completed_at,omitempty"`
	DecisionPaymentFinalized   bool          `gorm:"column:decision_payment_finalized;not null;default:false" json:"decision_payment_finalized"`
	DecisionPaymentFinalizedAt *time.Time    `gorm:"column:decision_payment_finalized_at" json:"decision_payment_finalized_at,omitempty"`

	// Account provisioning
	DecisionAccountAllocated bool       `gorm:"column:decision_account_allocated;not null;default:false" json:"decision_account_allocated"`
	DecisionStudentUserID    *uuid.UUID `gorm:"column:decision_student_user_id;type:uuid" json:"decision_student_user_id,omitempty"`
	DecisionAdmissionNumber  *string    `gorm:"column:decision_admission_number" json:"decision_admission_number,omitempty"`
	DecisionAllocatedAt      *time.Time `gorm:"column:decision_allocated_at" json:"decision_allocated_at,omitempty"`
	DecisionAllocatedBy      *uuid.UUID `gorm:"column:decision_allocated_by;type:uuid" json:"decision_allocated_by,omitempty"`

	DecisionCreatedAt time.Time `gorm:"column:decision_created_at;autoCreateTime" json:"decision_created_at"`
	DecisionUpdatedAt time.Time `gorm:"column:decision_updated_at;autoUpdateTime" json:"decision_updated_at"`
}

func (DecisionModel) TableName() string { return "admission_decisions" }

// NewPendingDecision seeds the decision created for one preference.
func NewPendingDecision(applicationID, schoolID uuid.UUID, rank string) DecisionModel {
	return DecisionModel{
		DecisionApplicationID:    applicationID,
		DecisionSchoolID:         schoolID,
		DecisionRank:             rank,
		DecisionOutcome:          OutcomePending,
		DecisionEnrollmentStatus: NotEnrolled,
		DecisionPaymentStatus:    PaymentPending,
	}
}

func (d *DecisionModel) IsEnrolled() bool { return d.DecisionEnrollmentStatus == Enrolled }
