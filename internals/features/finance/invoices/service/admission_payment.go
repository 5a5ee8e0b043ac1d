package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	decisionModel "schoolerp_backend/internals/features/admissions/decisions/model"
	decisionService "schoolerp_backend/internals/features/admissions/decisions/service"
	feeService "schoolerp_backend/internals/features/admissions/fees/service"
	dto "schoolerp_backend/internals/features/finance/invoices/dto"
	model "schoolerp_backend/internals/features/finance/invoices/model"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
)

const admissionDueDays = 7

// InitAdmissionPayment raises the admission-fee invoice of an enrolled
// decision and opens its checkout. An open invoice is reused.
func (s *Service) InitAdmissionPayment(ctx context.Context, decisionID uuid.UUID, referenceID, phone string) (*dto.CheckoutResponse, error) {
	if s.Gateway == nil {
		return nil, helper.External("GATEWAY_DISABLED", "online payment is not configured", nil)
	}

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	var row struct {
		decisionModel.DecisionModel
		ApplicationReferenceID   string `gorm:"column:application_reference_id"`
		ApplicationApplicantName string `gorm:"column:application_applicant_name"`
		ApplicationEmail         string `gorm:"column:application_email"`
		ApplicationCourseApplied string `gorm:"column:application_course_applied"`
		ApplicationCategory      string `gorm:"column:application_category"`
		SchoolName               string `gorm:"column:school_name"`
	}
	if err := tx.Table("admission_decisions AS d").
		Select(`d.*, a.application_reference_id, a.application_applicant_name, a.application_email,
			a.application_course_applied, a.application_category, sc.school_name`).
		Joins("JOIN admission_applications a ON a.application_id = d.decision_application_id").
		Joins("JOIN schools sc ON sc.school_id = d.decision_school_id").
		Where("d.decision_id = ?", decisionID).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "d"}}).
		Take(&row).Error; err != nil {
		return nil, helper.NotFoundOr(err, "DECISION_NOT_FOUND", "decision not found")
	}
	if !strings.EqualFold(row.ApplicationReferenceID, strings.TrimSpace(referenceID)) {
		return nil, helper.NotFound("DECISION_NOT_FOUND", "decision not found")
	}
	d := row.DecisionModel
	if err := d.CanRecordPayment(); err != nil {
		return nil, err
	}
	switch d.DecisionPaymentStatus {
	case decisionModel.PaymentCompleted:
		return nil, helper.Conflict("PAYMENT_ALREADY_COMPLETED", "the admission fee is already paid")
	case decisionModel.PaymentWaived:
		return nil, helper.Conflict("PAYMENT_WAIVED", "the admission fee was waived")
	}

	inv, err := openInvoice(ctx, tx, "fee_invoice_decision_id", d.DecisionID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		amount, err := feeService.FeeAmount(ctx, tx, row.ApplicationCourseApplied, row.ApplicationCategory)
		if err != nil {
			return nil, err
		}
		inv, err = Create(ctx, tx, NewInvoice{
			SchoolID:      d.DecisionSchoolID,
			DecisionID:    &d.DecisionID,
			FeeType:       model.FeeTypeAdmission,
			Amount:        amount,
			DueDate:       dbtime.Today().AddDate(0, 0, admissionDueDays),
			Description:   "Admission fee " + row.SchoolName,
			CustomerName:  row.ApplicationApplicantName,
			CustomerEmail: row.ApplicationEmail,
		})
		if err != nil {
			return nil, err
		}
	}
	if err := tx.Model(&decisionModel.DecisionModel{}).
		Where("decision_id = ?", d.DecisionID).
		Update("decision_payment_status", decisionModel.PaymentPending).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.checkout(ctx, inv, Customer{
		Name:  row.ApplicationApplicantName,
		Email: row.ApplicationEmail,
		Phone: phone,
	})
}

// RegisterAdmissionHooks links admission invoices to the decision payment state.
func (s *Service) RegisterAdmissionHooks() {
	s.OnPaid(model.FeeTypeAdmission, func(ctx context.Context, tx *gorm.DB, inv *model.FeeInvoiceModel) error {
		if inv.FeeInvoiceDecisionID == nil {
			return nil
		}
		ref := inv.FeeInvoiceNumber
		if inv.FeeInvoicePaymentReference != nil {
			ref = *inv.FeeInvoicePaymentReference
		}
		return decisionService.RecordPayment(ctx, tx, *inv.FeeInvoiceDecisionID, ref)
	})
	s.OnFailed(model.FeeTypeAdmission, func(ctx context.Context, tx *gorm.DB, inv *model.FeeInvoiceModel) error {
		if inv.FeeInvoiceDecisionID == nil {
			return nil
		}
		return decisionService.MarkPaymentFailed(ctx, tx, *inv.FeeInvoiceDecisionID)
	})
}
