package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentModel is one gateway transaction against an invoice.
type PaymentModel struct {
	PaymentID                   uuid.UUID     `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`
	PaymentInvoiceID            uuid.UUID     `gorm:"column:payment_invoice_id;type:uuid;not null" json:"payment_invoice_id"`
	PaymentAmount               int64         `gorm:"column:payment_amount;not null" json:"payment_amount"`
	PaymentMethod               string        `gorm:"column:payment_method;size:30;not null;default:gateway" json:"payment_method"`
	PaymentStatus               PaymentStatus `gorm:"column:payment_status;size:20;not null;default:pending" json:"payment_status"`
	PaymentGatewayTransactionID *string       `gorm:"column:payment_gateway_transaction_id;size:100" json:"payment_gateway_transaction_id,omitempty"`
	PaymentGatewayOrderID       *string       `gorm:"column:payment_gateway_order_id;size:64" json:"payment_gateway_order_id,omitempty"`
	PaymentType                 *string       `gorm:"column:payment_type;size:50" json:"payment_type,omitempty"`

	PaymentPaidAt     *time.Time `gorm:"column:payment_paid_at" json:"payment_paid_at,omitempty"`
	PaymentFailedAt   *time.Time `gorm:"column:payment_failed_at" json:"payment_failed_at,omitempty"`
	PaymentCanceledAt *time.Time `gorm:"column:payment_canceled_at" json:"payment_canceled_at,omitempty"`
	PaymentRefundedAt *time.Time `gorm:"column:payment_refunded_at" json:"payment_refunded_at,omitempty"`

	PaymentCreatedAt time.Time `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	PaymentUpdatedAt time.Time `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
}

func (PaymentModel) TableName() string { return "payments" }
