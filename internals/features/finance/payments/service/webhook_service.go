// file: internals/features/finance/payments/service/webhook_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	invoiceModel "schoolerp_backend/internals/features/finance/invoices/model"
	invoiceService "schoolerp_backend/internals/features/finance/invoices/service"
	"schoolerp_backend/internals/features/finance/payments/model"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
	"schoolerp_backend/internals/observability"
)

// Notification is the Midtrans HTTP notification body. Other fields are ignored.
type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	SettlementTime    string `json:"settlement_time"`
}

var ErrInvalidSignature = errors.New("invalid signature")

type WebhookResult struct {
	Status        model.GatewayEventStatus `json:"status"`
	Reason        string                   `json:"reason,omitempty"`
	InvoiceNumber string                   `json:"invoice_number,omitempty"`
	PaymentStatus model.PaymentStatus      `json:"payment_status,omitempty"`
}

type WebhookService struct {
	DB        *gorm.DB
	Invoices  *invoiceService.Service
	ServerKey string
}

func NewWebhookService(db *gorm.DB, invoices *invoiceService.Service, serverKey string) *WebhookService {
	return &WebhookService{DB: db, Invoices: invoices, ServerKey: serverKey}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Handle verifies and applies one notification. Every call leaves a
// payment_gateway_events row. Unknown order ids are logged and ignored so the
// gateway stops retrying; processing errors are returned so it retries.
func (s *WebhookService) Handle(ctx context.Context, n Notification, headers map[string]string, raw []byte) (res *WebhookResult, err error) {
	ev := &model.PaymentGatewayEventModel{
		GatewayEventProvider:    model.ProviderMidtrans,
		GatewayEventType:        strPtr(n.TransactionStatus),
		GatewayEventOrderID:     strPtr(n.OrderID),
		GatewayEventExternalRef: strPtr(n.TransactionID),
		GatewayEventSignature:   strPtr(n.SignatureKey),
		GatewayEventStatus:      model.GatewayEventReceived,
		GatewayEventReceivedAt:  dbtime.Now(),
	}
	if b, err := json.Marshal(headers); err == nil {
		ev.GatewayEventHeaders = datatypes.JSON(b)
	}
	if json.Valid(raw) {
		ev.GatewayEventPayload = datatypes.JSON(raw)
	}
	defer func() {
		status := string(model.GatewayEventFailed)
		if res != nil {
			status = string(res.Status)
		}
		observability.WebhookEvents.WithLabelValues(status).Inc()
	}()

	if !VerifySignature(n, s.ServerKey) {
		s.logEvent(ctx, ev, model.GatewayEventFailed, ErrInvalidSignature.Error())
		return nil, ErrInvalidSignature
	}

	res, err = s.apply(ctx, n, ev)
	if err != nil {
		s.logEvent(ctx, ev, model.GatewayEventFailed, err.Error())
		zap.L().Error("[MIDTRANS] webhook failed", zap.String("order_id", n.OrderID), zap.Error(err))
		return nil, err
	}
	if res.Status != model.GatewayEventProcessed {
		s.logEvent(ctx, ev, res.Status, res.Reason)
	}
	return res, nil
}

// logEvent writes the event outside the failed transaction.
func (s *WebhookService) logEvent(ctx context.Context, ev *model.PaymentGatewayEventModel, status model.GatewayEventStatus, msg string) {
	ev.GatewayEventStatus = status
	ev.GatewayEventError = strPtr(msg)
	now := dbtime.Now()
	ev.GatewayEventProcessedAt = &now
	if err := s.DB.WithContext(ctx).Create(ev).Error; err != nil {
		zap.L().Warn("[MIDTRANS] event log failed", zap.Error(err))
	}
}

func parseGross(s string) (int64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(f)), true
}

func (s *WebhookService) apply(ctx context.Context, n Notification, ev *model.PaymentGatewayEventModel) (*WebhookResult, error) {
	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	var invoiceIDs []uuid.UUID
	if err := tx.Model(&invoiceModel.FeeInvoiceModel{}).
		Where("fee_invoice_gateway_order_id = ?", n.OrderID).
		Pluck("fee_invoice_id", &invoiceIDs).Error; err != nil {
		return nil, err
	}
	if len(invoiceIDs) == 0 {
		return &WebhookResult{Status: model.GatewayEventIgnored, Reason: "no invoice for order_id " + n.OrderID}, nil
	}
	locked, err := invoiceService.LockWithOwner(ctx, tx, invoiceIDs[0])
	if err != nil {
		return nil, err
	}
	inv := *locked
	ev.GatewayEventInvoiceID = &inv.FeeInvoiceID

	// one payments row per gateway transaction id
	var p model.PaymentModel
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("payment_invoice_id = ?", inv.FeeInvoiceID)
	if n.TransactionID != "" {
		q = q.Where("payment_gateway_transaction_id = ?", n.TransactionID)
	} else {
		q = q.Where("payment_gateway_transaction_id IS NULL")
	}
	err = q.Order("payment_created_at DESC").Take(&p).Error
	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !isNew {
		return nil, err
	}
	if isNew {
		p = model.PaymentModel{
			PaymentInvoiceID:            inv.FeeInvoiceID,
			PaymentMethod:               model.PaymentMethodGateway,
			PaymentStatus:               model.PaymentStatusPending,
			PaymentGatewayTransactionID: strPtr(n.TransactionID),
			PaymentGatewayOrderID:       strPtr(n.OrderID),
		}
	}

	now := dbtime.Now()
	status, set := MapMidtransStatus(p.PaymentStatus, n.TransactionStatus, n.FraudStatus, now)
	p.PaymentStatus = status
	p.PaymentType = strPtr(n.PaymentType)
	if amt, ok := parseGross(n.GrossAmount); ok {
		p.PaymentAmount = amt
	}
	if set.PaidAt != nil {
		p.PaymentPaidAt = set.PaidAt
	}
	if set.FailedAt != nil {
		p.PaymentFailedAt = set.FailedAt
	}
	if set.CanceledAt != nil {
		p.PaymentCanceledAt = set.CanceledAt
	}
	if set.RefundedAt != nil {
		p.PaymentRefundedAt = set.RefundedAt
	}
	if isNew {
		err = tx.Create(&p).Error
	} else {
		err = tx.Save(&p).Error
	}
	if err != nil {
		return nil, err
	}

	out := &WebhookResult{
		Status:        model.GatewayEventProcessed,
		InvoiceNumber: inv.FeeInvoiceNumber,
		PaymentStatus: status,
	}
	switch {
	case status == model.PaymentStatusPaid:
		if p.PaymentAmount != inv.FeeInvoiceAmount {
			zap.L().Warn("[MIDTRANS] amount mismatch",
				zap.String("invoice_number", inv.FeeInvoiceNumber),
				zap.Int64("expected", inv.FeeInvoiceAmount),
				zap.Int64("got", p.PaymentAmount))
			out.Status = model.GatewayEventFailed
			out.Reason = "gross amount does not match the invoice"
			break
		}
		if err := tx.SavePoint("settle").Error; err != nil {
			return nil, err
		}
		changed, _, err := s.Invoices.MarkPaid(ctx, tx, inv.FeeInvoiceID, n.TransactionID)
		if helper.IsKind(err, helper.KindState) {
			// captured money that can no longer settle the invoice (cancelled
			// invoice, withdrawn enrollment, vacated allocation)
			if rerr := tx.RollbackTo("settle").Error; rerr != nil {
				return nil, rerr
			}
			zap.L().Warn("[MIDTRANS] payment needs refund",
				zap.String("invoice_number", inv.FeeInvoiceNumber),
				zap.String("transaction_id", n.TransactionID),
				zap.String("code", helper.CodeOf(err)))
			out.Status = model.GatewayEventNeedsRefund
			out.Reason = err.Error()
			break
		}
		if err != nil {
			return nil, err
		}
		if !changed {
			out.Reason = "invoice already paid"
		}
	case status.Failed():
		if err := s.Invoices.MarkFailed(ctx, tx, &inv); err != nil {
			return nil, err
		}
	}

	ev.GatewayEventStatus = out.Status
	ev.GatewayEventError = strPtr(out.Reason)
	ev.GatewayEventProcessedAt = &now
	if out.Status == model.GatewayEventProcessed {
		if err := tx.Create(ev).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	zap.L().Info("[MIDTRANS] notification applied",
		zap.String("invoice_number", inv.FeeInvoiceNumber),
		zap.String("transaction_status", n.TransactionStatus),
		zap.String("payment_status", string(status)))
	return out, nil
}
