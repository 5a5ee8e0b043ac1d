package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoiceService "schoolerp_backend/internals/features/finance/invoices/service"
	"schoolerp_backend/internals/features/finance/payments/model"
)

func TestMapMidtransStatus(t *testing.T) {
	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		status, fraud string
		want   model.PaymentStatus
		paid   bool
		failed bool
	}{
		{"capture", "accept", model.PaymentStatusPaid, true, false},
		{"capture", "", model.PaymentStatusPaid, true, false},
		{"capture", "challenge", model.PaymentStatusAwaitingCallback, false, false},
		{"capture", "deny", model.PaymentStatusFailed, false, true},
		{"settlement", "", model.PaymentStatusPaid, true, false},
		{"SETTLEMENT", "", model.PaymentStatusPaid, true, false},
		{"pending", "", model.PaymentStatusPending, false, false},
		{"deny", "", model.PaymentStatusFailed, false, true},
		{"failure", "", model.PaymentStatusFailed, false, true},
		{"expire", "", model.PaymentStatusExpired, false, true},
		{"cancel", "", model.PaymentStatusCanceled, false, false},
		{"refund", "", model.PaymentStatusRefunded, false, false},
		{"partial_refund", "", model.PaymentStatusPartiallyRefunded, false, false},
		{"authorize", "", model.PaymentStatusAwaitingCallback, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.status+"/"+tt.fraud, func(t *testing.T) {
			got, f := MapMidtransStatus(model.PaymentStatusAwaitingCallback, tt.status, tt.fraud, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.paid, f.PaidAt != nil)
			assert.Equal(t, tt.failed, f.FailedAt != nil)
		})
	}
}

func TestPaymentStatusFailed(t *testing.T) {
	assert.True(t, model.PaymentStatusExpired.Failed())
	assert.True(t, model.PaymentStatusCanceled.Failed())
	assert.False(t, model.PaymentStatusPaid.Failed())
	assert.False(t, model.PaymentStatusPending.Failed())
}

func TestVerifySignature(t *testing.T) {
	const key = "SB-Mid-server-test"
	n := Notification{OrderID: "ADM2026000001", StatusCode: "200", GrossAmount: "15000.00"}
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, key)

	assert.Len(t, n.SignatureKey, 128)
	assert.True(t, VerifySignature(n, key))

	upper := n
	upper.SignatureKey = strings.ToUpper(n.SignatureKey)
	assert.True(t, VerifySignature(upper, key), "hex case is ignored")

	tampered := n
	tampered.GrossAmount = "1.00"
	assert.False(t, VerifySignature(tampered, key))

	assert.False(t, VerifySignature(n, ""), "no server key")

	unsigned := n
	unsigned.SignatureKey = ""
	assert.False(t, VerifySignature(unsigned, key))
}

func TestParseGross(t *testing.T) {
	v, ok := parseGross("15000.00")
	assert.True(t, ok)
	assert.EqualValues(t, 15000, v)

	v, ok = parseGross(" 999.5 ")
	assert.True(t, ok)
	assert.EqualValues(t, 1000, v)

	_, ok = parseGross("fifteen")
	assert.False(t, ok)
}

func TestBuildSnapRequest(t *testing.T) {
	req := BuildSnapRequest(invoiceService.CheckoutRequest{
		OrderID:     "HST2026000042",
		Amount:      48000,
		Category:    "hostel",
		Description: strings.Repeat("room fee ", 10),
		Customer:    invoiceService.Customer{Name: "Priya Kumari Sharma", Email: "priya@example.com", Phone: "9000000001"},
	})

	assert.Equal(t, "HST2026000042", req.TransactionDetails.OrderID)
	assert.EqualValues(t, 48000, req.TransactionDetails.GrossAmt)

	require.NotNil(t, req.CustomerDetail)
	assert.Equal(t, "Priya", req.CustomerDetail.FName)
	assert.Equal(t, "Kumari Sharma", req.CustomerDetail.LName)
	assert.Equal(t, "IND", req.CustomerDetail.BillAddr.CountryCode)

	require.NotNil(t, req.Items)
	items := *req.Items
	require.Len(t, items, 1)
	assert.Equal(t, "School fee", items[0].Name)
	assert.EqualValues(t, 48000, items[0].Price)
	assert.Len(t, req.CustomField1, 40)
}

func TestInitMidtransWithoutKey(t *testing.T) {
	assert.Nil(t, InitMidtrans("  ", false))
	assert.NotNil(t, InitMidtrans("SB-Mid-server-test", false))
}

func TestSplitName(t *testing.T) {
	first, last := splitName("  ")
	assert.Empty(t, first)
	assert.Empty(t, last)

	first, last = splitName("Arjun")
	assert.Equal(t, "Arjun", first)
	assert.Empty(t, last)
}
