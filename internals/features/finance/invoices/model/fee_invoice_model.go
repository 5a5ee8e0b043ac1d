// file: internals/features/finance/invoices/model/fee_invoice_model.go
package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

const (
	FeeTypeAdmission = "admission"
	FeeTypeHostel    = "hostel"
	FeeTypeTuition   = "tuition"
	FeeTypeOther     = "other"
)

// Number prefixes per fee type.
const (
	PrefixHostel    = "HST"
	PrefixAdmission = "ADF"
	PrefixTuition   = "TUI"
	PrefixOther     = "INV"
)

type FeeInvoiceModel struct {
	FeeInvoiceID           uuid.UUID     `gorm:"column:fee_invoice_id;type:uuid;default:gen_random_uuid();primaryKey" json:"fee_invoice_id"`
	FeeInvoiceNumber       string        `gorm:"column:fee_invoice_number;size:20;not null" json:"fee_invoice_number"`
	FeeInvoiceSchoolID     uuid.UUID     `gorm:"column:fee_invoice_school_id;type:uuid;not null" json:"fee_invoice_school_id"`
	FeeInvoiceStudentID    *uuid.UUID    `gorm:"column:fee_invoice_student_id;type:uuid" json:"fee_invoice_student_id,omitempty"`
	FeeInvoiceDecisionID   *uuid.UUID    `gorm:"column:fee_invoice_decision_id;type:uuid" json:"fee_invoice_decision_id,omitempty"`
	FeeInvoiceAllocationID *uuid.UUID    `gorm:"column:fee_invoice_allocation_id;type:uuid" json:"fee_invoice_allocation_id,omitempty"`
	FeeInvoiceFeeType      string        `gorm:"column:fee_invoice_fee_type;size:20;not null" json:"fee_invoice_fee_type"`
	FeeInvoiceAmount       int64         `gorm:"column:fee_invoice_amount;not null" json:"fee_invoice_amount"`
	FeeInvoiceDueDate      time.Time     `gorm:"column:fee_invoice_due_date;type:date;not null" json:"fee_invoice_due_date"`
	FeeInvoiceAcademicYear string        `gorm:"column:fee_invoice_academic_year;size:9;not null" json:"fee_invoice_academic_year"`
	FeeInvoiceStatus       InvoiceStatus `gorm:"column:fee_invoice_status;size:10;not null;default:pending" json:"fee_invoice_status"`
	FeeInvoiceDescription  *string       `gorm:"column:fee_invoice_description" json:"fee_invoice_description,omitempty"`

	FeeInvoiceCustomerName  *string `gorm:"column:fee_invoice_customer_name;size:200" json:"fee_invoice_customer_name,omitempty"`
	FeeInvoiceCustomerEmail *string `gorm:"column:fee_invoice_customer_email;size:200" json:"fee_invoice_customer_email,omitempty"`

	// Midtrans
	FeeInvoiceGatewayOrderID   *string `gorm:"column:fee_invoice_gateway_order_id;size:64" json:"fee_invoice_gateway_order_id,omitempty"`
	FeeInvoiceSnapToken        *string `gorm:"column:fee_invoice_snap_token;size:100" json:"fee_invoice_snap_token,omitempty"`
	FeeInvoiceCheckoutURL      *string `gorm:"column:fee_invoice_checkout_url" json:"fee_invoice_checkout_url,omitempty"`
	FeeInvoicePaymentReference *string `gorm:"column:fee_invoice_payment_reference;size:100" json:"fee_invoice_payment_reference,omitempty"`

	FeeInvoicePaidAt    *time.Time `gorm:"column:fee_invoice_paid_at" json:"fee_invoice_paid_at,omitempty"`
	FeeInvoiceCreatedAt time.Time  `gorm:"column:fee_invoice_created_at;autoCreateTime" json:"fee_invoice_created_at"`
	FeeInvoiceUpdatedAt time.Time  `gorm:"column:fee_invoice_updated_at;autoUpdateTime" json:"fee_invoice_updated_at"`
}

func (FeeInvoiceModel) TableName() string { return "fee_invoices" }

// Payable reports whether the invoice can still be settled.
func (m *FeeInvoiceModel) Payable() bool {
	return m.FeeInvoiceStatus == InvoicePending || m.FeeInvoiceStatus == InvoiceOverdue
}

func PrefixFor(feeType string) string {
	switch feeType {
	case FeeTypeHostel:
		return PrefixHostel
	case FeeTypeAdmission:
		return PrefixAdmission
	case FeeTypeTuition:
		return PrefixTuition
	default:
		return PrefixOther
	}
}

// AcademicYear labels invoices with the calendar year they were raised in.
func AcademicYear(t time.Time) string { return strconv.Itoa(t.Year()) }
