package dto

import (
	"time"

	"github.com/google/uuid"

	model "schoolerp_backend/internals/features/finance/invoices/model"
)

type ListInvoicesQuery struct {
	Status    string     `query:"status" validate:"omitempty,oneof=pending paid overdue cancelled"`
	FeeType   string     `query:"fee_type" validate:"omitempty,oneof=admission hostel tuition other"`
	SchoolID  *uuid.UUID `query:"-"`
	StudentID *uuid.UUID `query:"-"`
	Q         string     `query:"q"`
}

type MarkPaidRequest struct {
	Reference string `json:"reference" validate:"required,max=100"`
}

type CheckoutRequest struct {
	Phone string `json:"phone" validate:"omitempty,max=20"`
}

type PaymentInitRequest struct {
	ReferenceID string `json:"reference_id" validate:"required"`
	Phone       string `json:"phone" validate:"omitempty,max=20"`
}

type CheckoutResponse struct {
	InvoiceID     uuid.UUID           `json:"invoice_id"`
	InvoiceNumber string              `json:"invoice_number"`
	Amount        int64               `json:"amount"`
	DueDate       time.Time           `json:"due_date"`
	Status        model.InvoiceStatus `json:"status"`
	OrderID       string              `json:"order_id"`
	SnapToken     string              `json:"snap_token"`
	CheckoutURL   string              `json:"checkout_url"`
}

func NewCheckoutResponse(inv *model.FeeInvoiceModel) CheckoutResponse {
	out := CheckoutResponse{
		InvoiceID:     inv.FeeInvoiceID,
		InvoiceNumber: inv.FeeInvoiceNumber,
		Amount:        inv.FeeInvoiceAmount,
		DueDate:       inv.FeeInvoiceDueDate,
		Status:        inv.FeeInvoiceStatus,
	}
	if inv.FeeInvoiceGatewayOrderID != nil {
		out.OrderID = *inv.FeeInvoiceGatewayOrderID
	}
	if inv.FeeInvoiceSnapToken != nil {
		out.SnapToken = *inv.FeeInvoiceSnapToken
	}
	if inv.FeeInvoiceCheckoutURL != nil {
		out.CheckoutURL = *inv.FeeInvoiceCheckoutURL
	}
	return out
}
