package service

import (
	"errors"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	invoiceService "schoolerp_backend/internals/features/finance/invoices/service"
)

/* =========================================================
   Midtrans Snap gateway
========================================================= */

type SnapGateway struct {
	client snap.Client
}

// InitMidtrans is called once at bootstrap. Returns nil without a server key,
// which disables online checkout.
func InitMidtrans(serverKey string, useProduction bool) *SnapGateway {
	if strings.TrimSpace(serverKey) == "" {
		return nil
	}
	g := &SnapGateway{}
	if useProduction {
		g.client.New(serverKey, midtrans.Production)
	} else {
		g.client.New(serverKey, midtrans.Sandbox)
	}
	return g
}

func (g *SnapGateway) CreateCheckout(in invoiceService.CheckoutRequest) (*invoiceService.CheckoutResult, error) {
	if in.Amount <= 0 {
		return nil, errors.New("invalid amount")
	}
	if in.OrderID == "" {
		return nil, errors.New("order id is required")
	}
	req := BuildSnapRequest(in)
	resp, merr := g.client.CreateTransaction(req)
	if merr != nil {
		return nil, merr
	}
	return &invoiceService.CheckoutResult{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// BuildSnapRequest maps an invoice checkout onto a Snap transaction.
func BuildSnapRequest(in invoiceService.CheckoutRequest) *snap.Request {
	first, last := splitName(in.Customer.Name)
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  in.OrderID,
			GrossAmt: in.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: first,
			LName: last,
			Email: in.Customer.Email,
			Phone: in.Customer.Phone,
			BillAddr: &midtrans.CustomerAddress{
				FName:       first,
				LName:       last,
				Phone:       in.Customer.Phone,
				CountryCode: "IND",
			},
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       safe(in.OrderID),
				Price:    in.Amount,
				Qty:      1,
				Name:     truncate(defaultString(in.ItemName, "School fee"), 50),
				Category: in.Category,
			},
		},
	}
	if in.Description != "" {
		req.CustomField1 = truncate(in.Description, 40)
	}
	return req
}

/* =========================================================
   Utils
========================================================= */

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func defaultString(s string, def string) string {
	if s == "" {
		return def
	}
	return s
}

func safe(s string) string {
	if s == "" {
		return "item-1"
	}
	return s
}
