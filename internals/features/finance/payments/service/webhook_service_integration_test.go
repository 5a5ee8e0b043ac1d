//go:build testutil
// +build testutil

package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	decisionModel "schoolerp_backend/internals/features/admissions/decisions/model"
	decisionService "schoolerp_backend/internals/features/admissions/decisions/service"
	invoiceModel "schoolerp_backend/internals/features/finance/invoices/model"
	invoiceService "schoolerp_backend/internals/features/finance/invoices/service"
	"schoolerp_backend/internals/features/finance/payments/model"
	"schoolerp_backend/internals/features/notifications/email"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
	"schoolerp_backend/internals/testutil/fixtures"
	"schoolerp_backend/internals/testutil/testdb"
)

var h *testdb.DBHandle

func TestMain(m *testing.M) { testdb.Main(m, &h) }

const testKey = "SB-Mid-server-test"

type stubGateway struct{}

func (stubGateway) CreateCheckout(req invoiceService.CheckoutRequest) (*invoiceService.CheckoutResult, error) {
	return &invoiceService.CheckoutResult{Token: "snap-" + req.OrderID, RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/" + req.OrderID}, nil
}

type admission struct {
	invoices  *invoiceService.Service
	decisions *decisionService.Service
	webhook   *WebhookService
	mail      *email.ConsoleSender
}

func newAdmission(t *testing.T) admission {
	t.Helper()
	h.Reset(t)
	mail := email.NewRecordingSender()
	inv := invoiceService.New(h.Gorm, stubGateway{})
	inv.RegisterAdmissionHooks()
	return admission{
		invoices:  inv,
		decisions: decisionService.New(h.Gorm, mail, ""),
		webhook:   NewWebhookService(h.Gorm, inv, testKey),
		mail:      mail,
	}
}

func signed(orderID, status, gross, txID string) Notification {
	n := Notification{
		TransactionStatus: status,
		StatusCode:        "200",
		OrderID:           orderID,
		GrossAmount:       gross,
		PaymentType:       "qris",
		TransactionID:     txID,
	}
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, testKey)
	return n
}

func decision(t *testing.T, id uuid.UUID) decisionModel.DecisionModel {
	t.Helper()
	var d decisionModel.DecisionModel
	require.NoError(t, h.Gorm.Where("decision_id = ?", id).Take(&d).Error)
	return d
}

func TestAdmissionPaymentEndToEnd(t *testing.T) {
	a := newAdmission(t)
	ctx := context.Background()
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	app, ds := fixtures.Application(t, h.Gorm, school.SchoolID)
	id := ds[0].DecisionID

	_, err := a.invoices.InitAdmissionPayment(ctx, id, app.ApplicationReferenceID, "9000000001")
	assert.Equal(t, "NOT_ENROLLED", helper.CodeOf(err), "payment opens after enrollment")

	_, err = a.decisions.Enroll(ctx, id, decisionService.EnrollInput{})
	require.NoError(t, err)

	_, err = a.invoices.InitAdmissionPayment(ctx, id, "ADM-2026-OTHER1", "9000000001")
	assert.True(t, helper.IsKind(err, helper.KindNotFound), "the reference id must own the decision")

	co, err := a.invoices.InitAdmissionPayment(ctx, id, app.ApplicationReferenceID, "9000000001")
	require.NoError(t, err)
	again, err := a.invoices.InitAdmissionPayment(ctx, id, app.ApplicationReferenceID, "9000000001")
	require.NoError(t, err)
	assert.Equal(t, co.InvoiceNumber, again.InvoiceNumber, "an open invoice is reused")

	var inv invoiceModel.FeeInvoiceModel
	require.NoError(t, h.Gorm.Where("fee_invoice_number = ?", co.InvoiceNumber).Take(&inv).Error)
	assert.EqualValues(t, 15000, inv.FeeInvoiceAmount, "class 9 general without a fee row")
	assert.Equal(t, invoiceModel.FeeTypeAdmission, inv.FeeInvoiceFeeType)

	res, err := a.webhook.Handle(ctx, signed(co.InvoiceNumber, "settlement", "15000.00", "tx-77"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.GatewayEventProcessed, res.Status)

	d := decision(t, id)
	assert.Equal(t, decisionModel.PaymentCompleted, d.DecisionPaymentStatus)
	require.NotNil(t, d.DecisionPaymentReference)
	assert.Equal(t, "tx-77", *d.DecisionPaymentReference)
	assert.False(t, d.DecisionPaymentFinalized, "finalizing stays a staff step")

	_, err = a.invoices.InitAdmissionPayment(ctx, id, app.ApplicationReferenceID, "")
	assert.Equal(t, "PAYMENT_ALREADY_COMPLETED", helper.CodeOf(err))

	ok, _, err := a.decisions.FinalizePayment(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	alloc, err := a.decisions.AllocateAccount(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, "10001", alloc.Credentials.AdmissionNumber)

	st, err := a.decisions.EnrollmentStatus(ctx, app.ApplicationReferenceID)
	require.NoError(t, err)
	assert.True(t, st.Enrolled)
	assert.True(t, st.PaymentFinalized)
	assert.True(t, st.AccountAllocated)
	require.NotNil(t, st.AdmissionNumber)
	assert.Equal(t, "10001", *st.AdmissionNumber)
}

func TestAdmissionPaymentExpired(t *testing.T) {
	a := newAdmission(t)
	ctx := context.Background()
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	app, ds := fixtures.Application(t, h.Gorm, school.SchoolID)
	id := ds[0].DecisionID

	_, err := a.decisions.Enroll(ctx, id, decisionService.EnrollInput{})
	require.NoError(t, err)
	co, err := a.invoices.InitAdmissionPayment(ctx, id, app.ApplicationReferenceID, "")
	require.NoError(t, err)

	res, err := a.webhook.Handle(ctx, signed(co.InvoiceNumber, "expire", "15000.00", "tx-1"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusExpired, res.PaymentStatus)
	assert.Equal(t, decisionModel.PaymentFailed, decision(t, id).DecisionPaymentStatus)

	var inv invoiceModel.FeeInvoiceModel
	require.NoError(t, h.Gorm.Where("fee_invoice_number = ?", co.InvoiceNumber).Take(&inv).Error)
	assert.Equal(t, invoiceModel.InvoicePending, inv.FeeInvoiceStatus, "the invoice stays payable")

	retry, err := a.invoices.InitAdmissionPayment(ctx, id, app.ApplicationReferenceID, "")
	require.NoError(t, err)
	assert.Equal(t, co.InvoiceNumber, retry.InvoiceNumber)
	assert.Equal(t, decisionModel.PaymentPending, decision(t, id).DecisionPaymentStatus)

	_, err = a.webhook.Handle(ctx, signed(co.InvoiceNumber, "capture", "15000.00", "tx-2"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, decisionModel.PaymentCompleted, decision(t, id).DecisionPaymentStatus)

	var payments int64
	require.NoError(t, h.Gorm.Model(&model.PaymentModel{}).
		Where("payment_invoice_id = ?", inv.FeeInvoiceID).Count(&payments).Error)
	assert.EqualValues(t, 2, payments)
}

func TestPaidAfterWithdrawNeedsRefund(t *testing.T) {
	a := newAdmission(t)
	ctx := context.Background()
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	app, ds := fixtures.Application(t, h.Gorm, school.SchoolID)
	id := ds[0].DecisionID

	_, err := a.decisions.Enroll(ctx, id, decisionService.EnrollInput{})
	require.NoError(t, err)
	co, err := a.invoices.InitAdmissionPayment(ctx, id, app.ApplicationReferenceID, "9000000001")
	require.NoError(t, err)

	_, err = a.decisions.Withdraw(ctx, id, "joined another school", false)
	require.NoError(t, err)
	var inv invoiceModel.FeeInvoiceModel
	require.NoError(t, h.Gorm.Where("fee_invoice_number = ?", co.InvoiceNumber).Take(&inv).Error)
	assert.Equal(t, invoiceModel.InvoiceCancelled, inv.FeeInvoiceStatus, "withdrawing closes the open invoice")

	paid := signed(co.InvoiceNumber, "settlement", "15000.00", "tx-late")
	res, err := a.webhook.Handle(ctx, paid, nil, nil)
	require.NoError(t, err, "a late settlement is acknowledged")
	assert.Equal(t, model.GatewayEventNeedsRefund, res.Status)

	d := decision(t, id)
	assert.Equal(t, decisionModel.Withdrawn, d.DecisionEnrollmentStatus)
	assert.NotEqual(t, decisionModel.PaymentCompleted, d.DecisionPaymentStatus)

	var p model.PaymentModel
	require.NoError(t, h.Gorm.Where("payment_invoice_id = ?", inv.FeeInvoiceID).Take(&p).Error)
	assert.Equal(t, model.PaymentStatusPaid, p.PaymentStatus, "the captured charge is kept")

	var flagged int64
	require.NoError(t, h.Gorm.Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_status = ?", model.GatewayEventNeedsRefund).Count(&flagged).Error)
	assert.EqualValues(t, 1, flagged)

	res, err = a.webhook.Handle(ctx, paid, nil, nil)
	require.NoError(t, err, "retries are acknowledged too")
	assert.Equal(t, model.GatewayEventNeedsRefund, res.Status)
}

func TestMarkOverdue(t *testing.T) {
	h.Reset(t)
	ctx := context.Background()
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	today := dbtime.Today()

	tx := h.Gorm.Begin()
	past, err := invoiceService.Create(ctx, tx, invoiceService.NewInvoice{
		SchoolID: school.SchoolID, FeeType: invoiceModel.FeeTypeHostel, Amount: 100, DueDate: today.AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	future, err := invoiceService.Create(ctx, tx, invoiceService.NewInvoice{
		SchoolID: school.SchoolID, FeeType: invoiceModel.FeeTypeHostel, Amount: 100, DueDate: today.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)
	assert.NotEqual(t, past.FeeInvoiceNumber, future.FeeInvoiceNumber)

	n, err := invoiceService.MarkOverdue(ctx, h.Gorm, today)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var got invoiceModel.FeeInvoiceModel
	require.NoError(t, h.Gorm.Where("fee_invoice_id = ?", past.FeeInvoiceID).Take(&got).Error)
	assert.Equal(t, invoiceModel.InvoiceOverdue, got.FeeInvoiceStatus)
	assert.True(t, got.Payable())
}
