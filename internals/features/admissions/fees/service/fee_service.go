package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "schoolerp_backend/internals/features/admissions/fees/dto"
	model "schoolerp_backend/internals/features/admissions/fees/model"
	helper "schoolerp_backend/internals/helpers"
)

// GetFee returns nil without error when the label has no band or the band has no row.
func GetFee(ctx context.Context, db *gorm.DB, courseLabel, category string) (*model.FeeStructureModel, error) {
	band, ok := ResolveClassRange(courseLabel)
	if !ok {
		return nil, nil
	}
	var f model.FeeStructureModel
	err := db.WithContext(ctx).
		Where("fee_class_range = ? AND fee_category = ? AND fee_is_active", band, FeeCategoryFor(category)).
		Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FeeAmount is the admission fee charged to an applicant, falling back to the
// category default.
func FeeAmount(ctx context.Context, db *gorm.DB, courseLabel, category string) (int64, error) {
	f, err := GetFee(ctx, db, courseLabel, category)
	if err != nil {
		return 0, err
	}
	if f == nil {
		return DefaultFeeAmount(category), nil
	}
	return f.FeeAnnualMin, nil
}

func Calculate(ctx context.Context, db *gorm.DB, req dto.CalculateFeeRequest) (*dto.CalculateFeeResponse, error) {
	f, err := GetFee(ctx, db, req.CourseApplied, req.Category)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, helper.NotFound("FEE_STRUCTURE_NOT_FOUND", "no fee structure found for the given course and category")
	}
	return &dto.CalculateFeeResponse{
		ClassRange:    f.FeeClassRange,
		Category:      f.FeeCategory,
		AnnualFeeMin:  f.FeeAnnualMin,
		AnnualFeeMax:  f.FeeAnnualMax,
		ApplicableFee: f.FeeAnnualMin,
	}, nil
}

type enrolledRow struct {
	ApplicationID      uuid.UUID  `gorm:"column:application_id"`
	ReferenceID        string     `gorm:"column:application_reference_id"`
	ApplicantName      string     `gorm:"column:application_applicant_name"`
	Course             string     `gorm:"column:application_course_applied"`
	Category           string     `gorm:"column:application_category"`
	SchoolName         string     `gorm:"column:school_name"`
	PaymentStatus      string     `gorm:"column:decision_payment_status"`
	PaymentCompletedAt *time.Time `gorm:"column:decision_payment_completed_at"`
	PaymentReference   *string    `gorm:"column:decision_payment_reference"`
	PaymentFinalized   bool       `gorm:"column:decision_payment_finalized"`
	EnrolledAt         *time.Time `gorm:"column:decision_enrolled_at"`
}

// Summary lists the fee structures and what enrolled applicants owe and paid.
// Expected amounts use the fee structure only; no default is assumed.
func Summary(ctx context.Context, db *gorm.DB, schoolID *uuid.UUID) (*dto.FeeSummary, error) {
	var structures []model.FeeStructureModel
	if err := db.WithContext(ctx).
		Order("fee_class_range, fee_category").
		Find(&structures).Error; err != nil {
		return nil, err
	}
	byKey := map[string]model.FeeStructureModel{}
	out := &dto.FeeSummary{
		FeeStructures:  make([]dto.FeeStructureView, 0, len(structures)),
		EnrollmentFees: []dto.EnrollmentFee{},
	}
	for _, f := range structures {
		out.FeeStructures = append(out.FeeStructures, dto.FeeStructureView{FeeStructureModel: f, DisplayName: f.DisplayName()})
		if f.FeeIsActive {
			byKey[string(f.FeeClassRange)+"|"+f.FeeCategory] = f
		}
	}

	q := db.WithContext(ctx).
		Table("admission_decisions AS d").
		Select(`a.application_id, a.application_reference_id, a.application_applicant_name,
			a.application_course_applied, a.application_category, sc.school_name,
			d.decision_payment_status, d.decision_payment_completed_at, d.decision_payment_reference,
			d.decision_payment_finalized, d.decision_enrolled_at`).
		Joins("JOIN admission_applications a ON a.application_id = d.decision_application_id").
		Joins("JOIN schools sc ON sc.school_id = d.decision_school_id").
		Where("d.decision_enrollment_status = 'enrolled'")
	if schoolID != nil {
		q = q.Where("d.decision_school_id = ?", *schoolID)
	}
	var enrolled []enrolledRow
	if err := q.Order("d.decision_enrolled_at DESC").Scan(&enrolled).Error; err != nil {
		return nil, err
	}

	stats := &out.Statistics
	for _, e := range enrolled {
		var amount int64
		if band, ok := ResolveClassRange(e.Course); ok {
			if f, found := byKey[string(band)+"|"+FeeCategoryFor(e.Category)]; found {
				amount = f.FeeAnnualMin
			}
		}
		stats.TotalExpected += amount
		if e.PaymentStatus == "completed" {
			stats.TotalCollected += amount
			stats.PaidStudents++
		}
		out.EnrollmentFees = append(out.EnrollmentFees, dto.EnrollmentFee{
			ApplicationID:      e.ApplicationID,
			ReferenceID:        e.ReferenceID,
			StudentName:        e.ApplicantName,
			Course:             e.Course,
			Category:           e.Category,
			SchoolName:         e.SchoolName,
			FeeAmount:          amount,
			PaymentStatus:      e.PaymentStatus,
			PaymentCompletedAt: e.PaymentCompletedAt,
			PaymentReference:   e.PaymentReference,
			PaymentFinalized:   e.PaymentFinalized,
			EnrolledAt:         e.EnrolledAt,
		})
	}
	stats.TotalStudents = len(out.EnrollmentFees)
	stats.PendingAmount = stats.TotalExpected - stats.TotalCollected
	if stats.TotalExpected > 0 {
		stats.CollectionRate = float64(stats.TotalCollected) / float64(stats.TotalExpected) * 100
	}
	return out, nil
}
