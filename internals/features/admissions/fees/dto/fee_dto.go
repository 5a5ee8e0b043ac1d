package dto

import (
	"time"

	"github.com/google/uuid"

	model "schoolerp_backend/internals/features/admissions/fees/model"
)

type CalculateFeeRequest struct {
	CourseApplied string `json:"course_applied" validate:"required,max=100"`
	Category      string `json:"category" validate:"required,oneof=general sc st obc sbc"`
}

type CalculateFeeResponse struct {
	ClassRange    model.ClassRange `json:"class_range"`
	Category      string           `json:"category"`
	AnnualFeeMin  int64            `json:"annual_fee_min"`
	AnnualFeeMax  int64            `json:"annual_fee_max"`
	ApplicableFee int64            `json:"applicable_fee"`
}

type FeeStructureView struct {
	model.FeeStructureModel
	DisplayName string `json:"display_name"`
}

type EnrollmentFee struct {
	ApplicationID      uuid.UUID  `json:"application_id"`
	ReferenceID        string     `json:"reference_id"`
	StudentName        string     `json:"student_name"`
	Course             string     `json:"course"`
	Category           string     `json:"category"`
	SchoolName         string     `json:"school_name"`
	FeeAmount          int64      `json:"fee_amount"`
	PaymentStatus      string     `json:"payment_status"`
	PaymentCompletedAt *time.Time `json:"payment_completed_at,omitempty"`
	PaymentReference   *string    `json:"payment_reference,omitempty"`
	PaymentFinalized   bool       `json:"is_payment_finalized"`
	EnrolledAt         *time.Time `json:"enrollment_date,omitempty"`
}

type FeeStatistics struct {
	TotalExpected  int64   `json:"total_expected"`
	TotalCollected int64   `json:"total_collected"`
	PendingAmount  int64   `json:"pending_amount"`
	CollectionRate float64 `json:"collection_rate"`
	TotalStudents  int     `json:"total_students"`
	PaidStudents   int     `json:"paid_students"`
}

type FeeSummary struct {
	FeeStructures  []FeeStructureView `json:"fee_structures"`
	EnrollmentFees []EnrollmentFee    `json:"enrollment_fees"`
	Statistics     FeeStatistics      `json:"statistics"`
}
