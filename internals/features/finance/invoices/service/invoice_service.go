// file: internals/features/finance/invoices/service/invoice_service.go
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dto "schoolerp_backend/internals/features/finance/invoices/dto"
	model "schoolerp_backend/internals/features/finance/invoices/model"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
)

// Hook runs inside the transaction that changed the invoice.
type Hook func(ctx context.Context, tx *gorm.DB, inv *model.FeeInvoiceModel) error

type Service struct {
	DB      *gorm.DB
	Gateway Gateway

	paid   map[string]Hook
	failed map[string]Hook
}

func New(db *gorm.DB, gw Gateway) *Service {
	return &Service{DB: db, Gateway: gw, paid: map[string]Hook{}, failed: map[string]Hook{}}
}

// OnPaid registers the side effect for invoices of a fee type.
func (s *Service) OnPaid(feeType string, h Hook) { s.paid[feeType] = h }

// OnFailed registers what a failed gateway charge does for a fee type.
func (s *Service) OnFailed(feeType string, h Hook) { s.failed[feeType] = h }

/* ===============================
   Create
=================================*/

type NewInvoice struct {
	SchoolID      uuid.UUID
	StudentID     *uuid.UUID
	DecisionID    *uuid.UUID
	AllocationID  *uuid.UUID
	FeeType       string
	Amount        int64
	DueDate       time.Time
	Description   string
	CustomerName  string
	CustomerEmail string
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Create numbers and stores an invoice in the caller's transaction.
func Create(ctx context.Context, tx *gorm.DB, in NewInvoice) (*model.FeeInvoiceModel, error) {
	if in.Amount < 0 {
		return nil, helper.FieldError("amount", "must not be negative")
	}
	now := dbtime.Now()
	number, err := NextInvoiceNumber(ctx, tx, model.PrefixFor(in.FeeType), now.Year())
	if err != nil {
		return nil, err
	}
	inv := model.FeeInvoiceModel{
		FeeInvoiceNumber:        number,
		FeeInvoiceSchoolID:      in.SchoolID,
		FeeInvoiceStudentID:     in.StudentID,
		FeeInvoiceDecisionID:    in.DecisionID,
		FeeInvoiceAllocationID:  in.AllocationID,
		FeeInvoiceFeeType:       in.FeeType,
		FeeInvoiceAmount:        in.Amount,
		FeeInvoiceDueDate:       in.DueDate,
		FeeInvoiceAcademicYear:  model.AcademicYear(now),
		FeeInvoiceStatus:        model.InvoicePending,
		FeeInvoiceDescription:   optional(in.Description),
		FeeInvoiceCustomerName:  optional(in.CustomerName),
		FeeInvoiceCustomerEmail: optional(strings.ToLower(in.CustomerEmail)),
	}
	if err := tx.WithContext(ctx).Create(&inv).Error; err != nil {
		if helper.IsUniqueViolation(err, "uq_fee_invoice_number") {
			return nil, helper.Conflict("INVOICE_NUMBER_TAKEN", "invoice number collision, retry")
		}
		return nil, err
	}
	return &inv, nil
}

/* ===============================
   Status changes
=================================*/

// LockWithOwner locks the owning decision or allocation, then the invoice.
// Writers that touch both always take them in that order.
func LockWithOwner(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.FeeInvoiceModel, error) {
	var inv model.FeeInvoiceModel
	if err := tx.WithContext(ctx).Where("fee_invoice_id = ?", id).Take(&inv).Error; err != nil {
		return nil, helper.NotFoundOr(err, "INVOICE_NOT_FOUND", "invoice not found")
	}
	switch {
	case inv.FeeInvoiceDecisionID != nil:
		if err := tx.WithContext(ctx).Exec(
			`SELECT 1 FROM admission_decisions WHERE decision_id = ? FOR UPDATE`, *inv.FeeInvoiceDecisionID).Error; err != nil {
			return nil, err
		}
	case inv.FeeInvoiceAllocationID != nil:
		if err := tx.WithContext(ctx).Exec(
			`SELECT 1 FROM hostel_allocations WHERE hostel_allocation_id = ? FOR UPDATE`, *inv.FeeInvoiceAllocationID).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("fee_invoice_id = ?", id).
		Take(&inv).Error; err != nil {
		return nil, helper.NotFoundOr(err, "INVOICE_NOT_FOUND", "invoice not found")
	}
	return &inv, nil
}

// MarkPaid settles a pending or overdue invoice and runs the paid hook for its
// fee type. A paid invoice is left untouched and changed is false.
func (s *Service) MarkPaid(ctx context.Context, tx *gorm.DB, id uuid.UUID, reference string) (changed bool, out *model.FeeInvoiceModel, err error) {
	inv, err := LockWithOwner(ctx, tx, id)
	if err != nil {
		return false, nil, err
	}
	if inv.FeeInvoiceStatus == model.InvoicePaid {
		return false, inv, nil
	}
	if !inv.Payable() {
		return false, nil, helper.StateErr("INVOICE_NOT_PAYABLE", "invoice is "+string(inv.FeeInvoiceStatus))
	}
	now := dbtime.Now()
	if err := tx.WithContext(ctx).Model(inv).Updates(map[string]any{
		"fee_invoice_status":            model.InvoicePaid,
		"fee_invoice_paid_at":           now,
		"fee_invoice_payment_reference": optional(reference),
	}).Error; err != nil {
		return false, nil, err
	}
	inv.FeeInvoiceStatus = model.InvoicePaid
	inv.FeeInvoicePaidAt = &now
	inv.FeeInvoicePaymentReference = optional(reference)

	if h := s.paid[inv.FeeInvoiceFeeType]; h != nil {
		if err := h(ctx, tx, inv); err != nil {
			return false, nil, err
		}
	}
	return true, inv, nil
}

// MarkFailed keeps the invoice payable and notifies the fee type's hook.
func (s *Service) MarkFailed(ctx context.Context, tx *gorm.DB, inv *model.FeeInvoiceModel) error {
	if inv == nil || !inv.Payable() {
		return nil
	}
	if h := s.failed[inv.FeeInvoiceFeeType]; h != nil {
		return h(ctx, tx, inv)
	}
	return nil
}

// SettleManually is the staff path for cash or bank transfer receipts.
func (s *Service) SettleManually(ctx context.Context, id uuid.UUID, reference string) (*model.FeeInvoiceModel, error) {
	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	changed, inv, err := s.MarkPaid(ctx, tx, id, reference)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, helper.Conflict("INVOICE_ALREADY_PAID", "invoice is already paid")
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	zap.L().Info("[INVOICE] marked paid",
		zap.String("invoice_number", inv.FeeInvoiceNumber),
		zap.String("fee_type", inv.FeeInvoiceFeeType))
	return inv, nil
}

// CancelForAllocation cancels the unpaid invoices raised for a hostel allocation.
func CancelForAllocation(ctx context.Context, tx *gorm.DB, allocationID uuid.UUID) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&model.FeeInvoiceModel{}).
		Where("fee_invoice_allocation_id = ? AND fee_invoice_status IN ?", allocationID,
			[]model.InvoiceStatus{model.InvoicePending, model.InvoiceOverdue}).
		Update("fee_invoice_status", model.InvoiceCancelled)
	return res.RowsAffected, res.Error
}

// MarkOverdue flags pending invoices whose due date is before today.
func MarkOverdue(ctx context.Context, db *gorm.DB, today time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&model.FeeInvoiceModel{}).
		Where("fee_invoice_status = ? AND fee_invoice_due_date < ?", model.InvoicePending, today).
		Update("fee_invoice_status", model.InvoiceOverdue)
	return res.RowsAffected, res.Error
}

/* ===============================
   Reads
=================================*/

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.FeeInvoiceModel, error) {
	var inv model.FeeInvoiceModel
	if err := s.DB.WithContext(ctx).Where("fee_invoice_id = ?", id).Take(&inv).Error; err != nil {
		return nil, helper.NotFoundOr(err, "INVOICE_NOT_FOUND", "invoice not found")
	}
	return &inv, nil
}

func FindByOrderID(ctx context.Context, tx *gorm.DB, orderID string) (*model.FeeInvoiceModel, error) {
	var inv model.FeeInvoiceModel
	err := tx.WithContext(ctx).
		Where("fee_invoice_gateway_order_id = ?", orderID).
		Take(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Service) List(ctx context.Context, q dto.ListInvoicesQuery, p helper.Paging) ([]model.FeeInvoiceModel, int64, error) {
	db := s.DB.WithContext(ctx).Model(&model.FeeInvoiceModel{})
	if q.Status != "" {
		db = db.Where("fee_invoice_status = ?", q.Status)
	}
	if q.FeeType != "" {
		db = db.Where("fee_invoice_fee_type = ?", q.FeeType)
	}
	if q.SchoolID != nil {
		db = db.Where("fee_invoice_school_id = ?", *q.SchoolID)
	}
	if q.StudentID != nil {
		db = db.Where("fee_invoice_student_id = ?", *q.StudentID)
	}
	if term := strings.TrimSpace(q.Q); term != "" {
		db = db.Where("fee_invoice_number ILIKE ?", "%"+term+"%")
	}

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.FeeInvoiceModel
	err := db.Order("fee_invoice_created_at DESC, fee_invoice_id").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error
	return rows, total, err
}

// ForStudent lists a student's invoices, newest first.
func (s *Service) ForStudent(ctx context.Context, studentID uuid.UUID) ([]model.FeeInvoiceModel, error) {
	var rows []model.FeeInvoiceModel
	err := s.DB.WithContext(ctx).
		Where("fee_invoice_student_id = ?", studentID).
		Order("fee_invoice_created_at DESC").
		Find(&rows).Error
	return rows, err
}
