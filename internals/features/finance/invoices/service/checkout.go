package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	dto "schoolerp_backend/internals/features/finance/invoices/dto"
	model "schoolerp_backend/internals/features/finance/invoices/model"
	helper "schoolerp_backend/internals/helpers"
)

type Customer struct {
	Name  string
	Email string
	Phone string
}

type CheckoutRequest struct {
	OrderID     string
	Amount      int64
	ItemName    string
	Category    string
	Description string
	Customer    Customer
}

type CheckoutResult struct {
	Token       string
	RedirectURL string
}

// Gateway opens a hosted checkout with the payment provider.
type Gateway interface {
	CreateCheckout(req CheckoutRequest) (*CheckoutResult, error)
}

func describe(inv *model.FeeInvoiceModel) string {
	if inv.FeeInvoiceDescription != nil && *inv.FeeInvoiceDescription != "" {
		return *inv.FeeInvoiceDescription
	}
	return strings.ToUpper(inv.FeeInvoiceFeeType[:1]) + inv.FeeInvoiceFeeType[1:] + " fee " + inv.FeeInvoiceAcademicYear
}

// CreateCheckout opens (or reuses) the gateway checkout of a payable invoice.
// The invoice number doubles as the gateway order id.
func (s *Service) CreateCheckout(ctx context.Context, id uuid.UUID, owner *uuid.UUID, cust Customer) (*dto.CheckoutResponse, error) {
	if s.Gateway == nil {
		return nil, helper.External("GATEWAY_DISABLED", "online payment is not configured", nil)
	}
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner != nil && (inv.FeeInvoiceStudentID == nil || *inv.FeeInvoiceStudentID != *owner) {
		return nil, helper.NotFound("INVOICE_NOT_FOUND", "invoice not found")
	}
	return s.checkout(ctx, inv, cust)
}

func (s *Service) checkout(ctx context.Context, inv *model.FeeInvoiceModel, cust Customer) (*dto.CheckoutResponse, error) {
	if !inv.Payable() {
		return nil, helper.StateErr("INVOICE_NOT_PAYABLE", "invoice is "+string(inv.FeeInvoiceStatus))
	}
	if inv.FeeInvoiceSnapToken != nil && *inv.FeeInvoiceSnapToken != "" {
		out := dto.NewCheckoutResponse(inv)
		return &out, nil
	}
	if cust.Name == "" && inv.FeeInvoiceCustomerName != nil {
		cust.Name = *inv.FeeInvoiceCustomerName
	}
	if cust.Email == "" && inv.FeeInvoiceCustomerEmail != nil {
		cust.Email = *inv.FeeInvoiceCustomerEmail
	}

	res, err := s.Gateway.CreateCheckout(CheckoutRequest{
		OrderID:     inv.FeeInvoiceNumber,
		Amount:      inv.FeeInvoiceAmount,
		ItemName:    describe(inv),
		Category:    inv.FeeInvoiceFeeType,
		Description: describe(inv),
		Customer:    cust,
	})
	if err != nil {
		zap.L().Warn("[INVOICE] checkout failed",
			zap.String("invoice_number", inv.FeeInvoiceNumber), zap.Error(err))
		return nil, helper.External("GATEWAY_ERROR", "could not open the payment page, try again", err)
	}

	order := inv.FeeInvoiceNumber
	if err := s.DB.WithContext(ctx).Model(inv).Updates(map[string]any{
		"fee_invoice_gateway_order_id": order,
		"fee_invoice_snap_token":       res.Token,
		"fee_invoice_checkout_url":     res.RedirectURL,
	}).Error; err != nil {
		return nil, err
	}
	inv.FeeInvoiceGatewayOrderID = &order
	inv.FeeInvoiceSnapToken = &res.Token
	inv.FeeInvoiceCheckoutURL = &res.RedirectURL

	out := dto.NewCheckoutResponse(inv)
	return &out, nil
}

// openInvoice returns the newest payable invoice matching the filter.
func openInvoice(ctx context.Context, db *gorm.DB, column string, id uuid.UUID) (*model.FeeInvoiceModel, error) {
	var rows []model.FeeInvoiceModel
	if err := db.WithContext(ctx).
		Where(column+" = ? AND fee_invoice_status IN ?", id,
			[]model.InvoiceStatus{model.InvoicePending, model.InvoiceOverdue}).
		Order("fee_invoice_created_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
