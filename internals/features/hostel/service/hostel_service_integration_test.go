//go:build testutil
// +build testutil

package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoiceModel "schoolerp_backend/internals/features/finance/invoices/model"
	invoiceService "schoolerp_backend/internals/features/finance/invoices/service"
	paymentModel "schoolerp_backend/internals/features/finance/payments/model"
	paymentService "schoolerp_backend/internals/features/finance/payments/service"
	model "schoolerp_backend/internals/features/hostel/model"
	"schoolerp_backend/internals/features/notifications/email"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/testutil/fixtures"
	"schoolerp_backend/internals/testutil/testdb"
)

var h *testdb.DBHandle

func TestMain(m *testing.M) { testdb.Main(m, &h) }

const serverKey = "SB-Mid-server-test"

type fakeGateway struct{ orders []string }

func (g *fakeGateway) CreateCheckout(req invoiceService.CheckoutRequest) (*invoiceService.CheckoutResult, error) {
	g.orders = append(g.orders, req.OrderID)
	return &invoiceService.CheckoutResult{Token: "snap-" + req.OrderID, RedirectURL: "https://app.sandbox.midtrans.com/snap/" + req.OrderID}, nil
}

type env struct {
	hostel   *Service
	invoices *invoiceService.Service
	webhook  *paymentService.WebhookService
	mail     *email.ConsoleSender
}

func setup(t *testing.T) env {
	t.Helper()
	h.Reset(t)
	mail := email.NewRecordingSender()
	hs := New(h.Gorm, mail)
	inv := invoiceService.New(h.Gorm, &fakeGateway{})
	hs.RegisterInvoiceHooks(inv)
	return env{hostel: hs, invoices: inv, webhook: paymentService.NewWebhookService(h.Gorm, inv, serverKey), mail: mail}
}

// room creates a room of the type with its beds generated.
func (e env) room(t *testing.T, schoolID uuid.UUID, roomType string, fee int64) model.HostelRoomModel {
	t.Helper()
	r := fixtures.Room(t, h.Gorm, schoolID, roomType, fee)
	out, err := e.hostel.GenerateBeds(context.Background(), r.HostelRoomID, model.RoomCapacity[roomType])
	require.NoError(t, err)
	return *out
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, helper.CodeOf(err), err.Error())
}

func allocation(t *testing.T, id uuid.UUID) model.HostelAllocationModel {
	t.Helper()
	var a model.HostelAllocationModel
	require.NoError(t, h.Gorm.Where("hostel_allocation_id = ?", id).Take(&a).Error)
	return a
}

func room(t *testing.T, id uuid.UUID) model.HostelRoomModel {
	t.Helper()
	var r model.HostelRoomModel
	require.NoError(t, h.Gorm.Where("hostel_room_id = ?", id).Take(&r).Error)
	return r
}

func TestBookCreatesPendingAllocationAndInvoice(t *testing.T) {
	e := setup(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	st := fixtures.Student(t, h.Gorm, school.SchoolID)
	r := e.room(t, school.SchoolID, model.RoomDouble, 24000)

	out, err := e.hostel.Book(context.Background(), st.StudentID, r.HostelRoomID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.AllocationPending, out.Allocation.HostelAllocationStatus)
	assert.Equal(t, "B01", out.BedNumber)
	assert.EqualValues(t, 24000, out.Invoice.Amount)
	assert.Equal(t, string(invoiceModel.InvoicePending), out.Invoice.Status)
	assert.Regexp(t, `^HST\d{4}\d{6}$`, out.Invoice.InvoiceNumber)

	got := room(t, r.HostelRoomID)
	assert.Equal(t, 1, got.HostelRoomOccupancy)
	assert.True(t, got.HostelRoomIsAvailable)

	_, err = e.hostel.Book(context.Background(), st.StudentID, r.HostelRoomID, nil)
	requireCode(t, err, "ALLOCATION_EXISTS")

	m, ok := e.mail.Last(userEmail(t, st.StudentUserID))
	require.True(t, ok)
	assert.Equal(t, "hostel_booking", m.TemplateName)
}

func userEmail(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	var addr string
	require.NoError(t, h.Gorm.Table("users").Where("user_id = ?", userID).Pluck("user_email", &addr).Error)
	return addr
}

func TestBookOtherSchoolsRoomIsHidden(t *testing.T) {
	e := setup(t)
	mine := fixtures.School(t, h.Gorm, "GSS Jaipur")
	other := fixtures.School(t, h.Gorm, "GSS Ajmer")
	st := fixtures.Student(t, h.Gorm, mine.SchoolID)
	r := e.room(t, other.SchoolID, model.RoomSingle, 30000)

	_, err := e.hostel.Book(context.Background(), st.StudentID, r.HostelRoomID, nil)
	requireCode(t, err, "ROOM_NOT_FOUND")

	_, err = e.hostel.Book(context.Background(), st.StudentID, uuid.New(), nil)
	assert.True(t, helper.IsKind(err, helper.KindNotFound))
}

func TestConcurrentBookingOfLastBed(t *testing.T) {
	e := setup(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	r := e.room(t, school.SchoolID, model.RoomSingle, 30000)

	const n = 5
	students := make([]uuid.UUID, n)
	for i := range students {
		students[i] = fixtures.Student(t, h.Gorm, school.SchoolID).StudentID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range students {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.hostel.Book(context.Background(), students[i], r.HostelRoomID, nil)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, "NO_BEDS_AVAILABLE", helper.CodeOf(err))
	}
	assert.Equal(t, 1, ok)

	got := room(t, r.HostelRoomID)
	assert.Equal(t, 1, got.HostelRoomOccupancy)
	assert.False(t, got.HostelRoomIsAvailable)

	var invoices int64
	require.NoError(t, h.Gorm.Model(&invoiceModel.FeeInvoiceModel{}).Count(&invoices).Error)
	assert.EqualValues(t, 1, invoices)
}

func TestConcurrentBookingOfDoubleRoom(t *testing.T) {
	e := setup(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	r := e.room(t, school.SchoolID, model.RoomDouble, 24000)

	const n = 3
	students := make([]uuid.UUID, n)
	for i := range students {
		students[i] = fixtures.Student(t, h.Gorm, school.SchoolID).StudentID
	}

	var wg sync.WaitGroup
	outs := make([]error, n)
	for i := range students {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, outs[i] = e.hostel.Book(context.Background(), students[i], r.HostelRoomID, nil)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range outs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, "NO_BEDS_AVAILABLE", helper.CodeOf(err))
	}
	assert.Equal(t, 2, ok)

	var pending int64
	require.NoError(t, h.Gorm.Model(&model.HostelAllocationModel{}).
		Where("hostel_allocation_room_id = ? AND hostel_allocation_status = ?", r.HostelRoomID, model.AllocationPending).
		Count(&pending).Error)
	assert.EqualValues(t, 2, pending)

	got := room(t, r.HostelRoomID)
	assert.Equal(t, 2, got.HostelRoomOccupancy)
	assert.False(t, got.HostelRoomIsAvailable)
}

func TestBookStopsAtCapacityWithSpareBeds(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	r := fixtures.Room(t, h.Gorm, school.SchoolID, model.RoomSingle, 30000)
	for _, num := range []string{"B01", "B02"} {
		require.NoError(t, h.Gorm.Create(&model.HostelBedModel{
			HostelBedRoomID:            r.HostelRoomID,
			HostelBedNumber:            num,
			HostelBedIsAvailable:       true,
			HostelBedMaintenanceStatus: model.BedOK,
		}).Error)
	}

	first := fixtures.Student(t, h.Gorm, school.SchoolID)
	second := fixtures.Student(t, h.Gorm, school.SchoolID)
	_, err := e.hostel.Book(ctx, first.StudentID, r.HostelRoomID, nil)
	require.NoError(t, err)

	_, err = e.hostel.Book(ctx, second.StudentID, r.HostelRoomID, nil)
	requireCode(t, err, "NO_BEDS_AVAILABLE")
	assert.Equal(t, 1, room(t, r.HostelRoomID).HostelRoomOccupancy)
}

func TestAssignNamedBed(t *testing.T) {
	e := setup(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	a := fixtures.Student(t, h.Gorm, school.SchoolID)
	b := fixtures.Student(t, h.Gorm, school.SchoolID)
	r := e.room(t, school.SchoolID, model.RoomDouble, 24000)

	var bed model.HostelBedModel
	require.NoError(t, h.Gorm.Where("hostel_bed_room_id = ? AND hostel_bed_number = ?", r.HostelRoomID, "B02").Take(&bed).Error)

	actor := uuid.New()
	out, err := e.hostel.Assign(context.Background(), a.StudentID, bed.HostelBedID, &actor, "near the window")
	require.NoError(t, err)
	assert.Equal(t, "B02", out.BedNumber)

	_, err = e.hostel.Assign(context.Background(), b.StudentID, bed.HostelBedID, &actor, "")
	requireCode(t, err, "BED_UNAVAILABLE")

	booked, err := e.hostel.Book(context.Background(), b.StudentID, r.HostelRoomID, nil)
	require.NoError(t, err)
	assert.Equal(t, "B01", booked.BedNumber)
}

func TestMaintenanceBedIsSkipped(t *testing.T) {
	e := setup(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	st := fixtures.Student(t, h.Gorm, school.SchoolID)
	r := e.room(t, school.SchoolID, model.RoomDouble, 24000)
	require.NoError(t, h.Gorm.Model(&model.HostelBedModel{}).
		Where("hostel_bed_room_id = ? AND hostel_bed_number = ?", r.HostelRoomID, "B01").
		Update("hostel_bed_maintenance_status", model.BedUnderMaintenance).Error)

	out, err := e.hostel.Book(context.Background(), st.StudentID, r.HostelRoomID, nil)
	require.NoError(t, err)
	assert.Equal(t, "B02", out.BedNumber)
}

func notify(t *testing.T, orderID, status, gross, txID string) paymentService.Notification {
	t.Helper()
	n := paymentService.Notification{
		TransactionStatus: status,
		StatusCode:        "200",
		OrderID:           orderID,
		GrossAmount:       gross,
		PaymentType:       "bank_transfer",
		TransactionID:     txID,
	}
	n.SignatureKey = paymentService.Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return n
}

func raw(t *testing.T, n paymentService.Notification) []byte {
	t.Helper()
	b, err := json.Marshal(n)
	require.NoError(t, err)
	return b
}

func TestPaidWebhookActivatesAllocation(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	st := fixtures.Student(t, h.Gorm, school.SchoolID)
	r := e.room(t, school.SchoolID, model.RoomTriple, 18000)

	booked, err := e.hostel.Book(ctx, st.StudentID, r.HostelRoomID, nil)
	require.NoError(t, err)
	_, err = e.invoices.CreateCheckout(ctx, booked.Invoice.InvoiceID, &st.StudentID, invoiceService.Customer{})
	require.NoError(t, err)
	order := booked.Invoice.InvoiceNumber

	pending := notify(t, order, "pending", "18000.00", "tx-1")
	res, err := e.webhook.Handle(ctx, pending, nil, raw(t, pending))
	require.NoError(t, err)
	assert.Equal(t, paymentModel.PaymentStatusPending, res.PaymentStatus)
	assert.Equal(t, model.AllocationPending, allocation(t, booked.Allocation.HostelAllocationID).HostelAllocationStatus)

	paid := notify(t, order, "settlement", "18000.00", "tx-1")
	res, err = e.webhook.Handle(ctx, paid, map[string]string{"User-Agent": "Veritrans"}, raw(t, paid))
	require.NoError(t, err)
	assert.Equal(t, paymentModel.GatewayEventProcessed, res.Status)
	assert.Equal(t, paymentModel.PaymentStatusPaid, res.PaymentStatus)
	assert.Equal(t, model.AllocationActive, allocation(t, booked.Allocation.HostelAllocationID).HostelAllocationStatus)

	var inv invoiceModel.FeeInvoiceModel
	require.NoError(t, h.Gorm.Where("fee_invoice_id = ?", booked.Invoice.InvoiceID).Take(&inv).Error)
	assert.Equal(t, invoiceModel.InvoicePaid, inv.FeeInvoiceStatus)

	res, err = e.webhook.Handle(ctx, paid, nil, raw(t, paid))
	require.NoError(t, err)
	assert.Equal(t, "invoice already paid", res.Reason)

	var payments int64
	require.NoError(t, h.Gorm.Model(&paymentModel.PaymentModel{}).Count(&payments).Error)
	assert.EqualValues(t, 1, payments, "one row per gateway transaction")
}

func TestWebhookRejections(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	st := fixtures.Student(t, h.Gorm, school.SchoolID)
	r := e.room(t, school.SchoolID, model.RoomSingle, 30000)
	booked, err := e.hostel.Book(ctx, st.StudentID, r.HostelRoomID, nil)
	require.NoError(t, err)
	_, err = e.invoices.CreateCheckout(ctx, booked.Invoice.InvoiceID, nil, invoiceService.Customer{})
	require.NoError(t, err)
	order := booked.Invoice.InvoiceNumber

	t.Run("bad signature", func(t *testing.T) {
		n := notify(t, order, "settlement", "30000.00", "tx-9")
		n.SignatureKey = "00"
		_, err := e.webhook.Handle(ctx, n, nil, nil)
		assert.ErrorIs(t, err, paymentService.ErrInvalidSignature)
	})
	t.Run("unknown order", func(t *testing.T) {
		n := notify(t, "HST2026999999", "settlement", "30000.00", "tx-9")
		res, err := e.webhook.Handle(ctx, n, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, paymentModel.GatewayEventIgnored, res.Status)
	})
	t.Run("amount mismatch", func(t *testing.T) {
		n := notify(t, order, "settlement", "100.00", "tx-9")
		res, err := e.webhook.Handle(ctx, n, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, paymentModel.GatewayEventFailed, res.Status)
		assert.Equal(t, model.AllocationPending, allocation(t, booked.Allocation.HostelAllocationID).HostelAllocationStatus)
	})

	var events int64
	require.NoError(t, h.Gorm.Model(&paymentModel.PaymentGatewayEventModel{}).Count(&events).Error)
	assert.EqualValues(t, 3, events, "every notification is logged")
}

func TestSuspendReinstateEnd(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	st := fixtures.Student(t, h.Gorm, school.SchoolID)
	other := fixtures.Student(t, h.Gorm, school.SchoolID)
	r := e.room(t, school.SchoolID, model.RoomSingle, 30000)

	booked, err := e.hostel.Book(ctx, st.StudentID, r.HostelRoomID, nil)
	require.NoError(t, err)
	id := booked.Allocation.HostelAllocationID

	_, err = e.hostel.Suspend(ctx, id)
	requireCode(t, err, "ALLOCATION_NOT_ACTIVE")

	_, err = e.invoices.SettleManually(ctx, booked.Invoice.InvoiceID, "CASH-17")
	require.NoError(t, err)
	assert.Equal(t, model.AllocationActive, allocation(t, id).HostelAllocationStatus)

	s, err := e.hostel.Suspend(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.AllocationSuspended, s.HostelAllocationStatus)

	_, err = e.hostel.Book(ctx, other.StudentID, r.HostelRoomID, nil)
	requireCode(t, err, "NO_BEDS_AVAILABLE")

	a, err := e.hostel.Reinstate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.AllocationActive, a.HostelAllocationStatus)

	ended, err := e.hostel.End(ctx, id, nil, nil, "moved out")
	require.NoError(t, err)
	assert.Equal(t, model.AllocationVacated, ended.HostelAllocationStatus)
	require.NotNil(t, ended.HostelAllocationVacatedOn)

	_, err = e.hostel.End(ctx, id, nil, nil, "")
	require.Error(t, err)

	got := room(t, r.HostelRoomID)
	assert.Equal(t, 0, got.HostelRoomOccupancy)
	assert.True(t, got.HostelRoomIsAvailable)

	_, err = e.hostel.Book(ctx, other.StudentID, r.HostelRoomID, nil)
	assert.NoError(t, err, "the bed is free again")
}

func TestEndCancelsUnpaidInvoice(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	st := fixtures.Student(t, h.Gorm, school.SchoolID)
	r := e.room(t, school.SchoolID, model.RoomSingle, 30000)

	booked, err := e.hostel.Book(ctx, st.StudentID, r.HostelRoomID, nil)
	require.NoError(t, err)
	_, err = e.hostel.End(ctx, booked.Allocation.HostelAllocationID, nil, nil, "")
	require.NoError(t, err)

	var inv invoiceModel.FeeInvoiceModel
	require.NoError(t, h.Gorm.Where("fee_invoice_id = ?", booked.Invoice.InvoiceID).Take(&inv).Error)
	assert.Equal(t, invoiceModel.InvoiceCancelled, inv.FeeInvoiceStatus)

	again, err := e.hostel.Book(ctx, st.StudentID, r.HostelRoomID, nil)
	require.NoError(t, err, "a vacated allocation does not block a new booking")
	assert.NotEqual(t, booked.Invoice.InvoiceNumber, again.Invoice.InvoiceNumber)
}

func TestPaidAfterEndNeedsRefund(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	st := fixtures.Student(t, h.Gorm, school.SchoolID)
	r := e.room(t, school.SchoolID, model.RoomSingle, 30000)

	booked, err := e.hostel.Book(ctx, st.StudentID, r.HostelRoomID, nil)
	require.NoError(t, err)
	_, err = e.invoices.CreateCheckout(ctx, booked.Invoice.InvoiceID, &st.StudentID, invoiceService.Customer{})
	require.NoError(t, err)
	id := booked.Allocation.HostelAllocationID
	_, err = e.hostel.End(ctx, id, nil, nil, "left before paying")
	require.NoError(t, err)

	paid := notify(t, booked.Invoice.InvoiceNumber, "settlement", "30000.00", "tx-late")
	res, err := e.webhook.Handle(ctx, paid, nil, raw(t, paid))
	require.NoError(t, err, "a late settlement is acknowledged")
	assert.Equal(t, paymentModel.GatewayEventNeedsRefund, res.Status)

	assert.Equal(t, model.AllocationVacated, allocation(t, id).HostelAllocationStatus)
	var inv invoiceModel.FeeInvoiceModel
	require.NoError(t, h.Gorm.Where("fee_invoice_id = ?", booked.Invoice.InvoiceID).Take(&inv).Error)
	assert.Equal(t, invoiceModel.InvoiceCancelled, inv.FeeInvoiceStatus)

	var p paymentModel.PaymentModel
	require.NoError(t, h.Gorm.Where("payment_invoice_id = ?", inv.FeeInvoiceID).Take(&p).Error)
	assert.Equal(t, paymentModel.PaymentStatusPaid, p.PaymentStatus, "the captured charge is kept")

	var flagged int64
	require.NoError(t, h.Gorm.Model(&paymentModel.PaymentGatewayEventModel{}).
		Where("gateway_event_status = ?", paymentModel.GatewayEventNeedsRefund).Count(&flagged).Error)
	assert.EqualValues(t, 1, flagged)

	res, err = e.webhook.Handle(ctx, paid, nil, raw(t, paid))
	require.NoError(t, err, "a retry is acknowledged too")
	assert.Equal(t, paymentModel.GatewayEventNeedsRefund, res.Status)
	assert.Equal(t, 0, room(t, r.HostelRoomID).HostelRoomOccupancy)
}

func TestGenerateBeds(t *testing.T) {
	e := setup(t)
	school := fixtures.School(t, h.Gorm, "GSS Jaipur")
	r := e.room(t, school.SchoolID, model.RoomDouble, 24000)

	out, err := e.hostel.GenerateBeds(context.Background(), r.HostelRoomID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, out.HostelRoomCapacity)

	var numbers []string
	require.NoError(t, h.Gorm.Model(&model.HostelBedModel{}).
		Where("hostel_bed_room_id = ?", r.HostelRoomID).
		Order("hostel_bed_number").
		Pluck("hostel_bed_number", &numbers).Error)
	assert.Equal(t, []string{"B01", "B02", "B03"}, numbers)

	_, err = e.hostel.GenerateBeds(context.Background(), r.HostelRoomID, 1)
	assert.True(t, helper.IsKind(err, helper.KindValidation))
}
