package service

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"schoolerp_backend/internals/features/finance/payments/model"
)

// MappedFields holds the timestamps a status change sets.
type MappedFields struct {
	PaidAt     *time.Time
	CanceledAt *time.Time
	FailedAt   *time.Time
	RefundedAt *time.Time
}

// MapMidtransStatus converts a Midtrans transaction status to ours. Unknown
// statuses keep the current one.
func MapMidtransStatus(current model.PaymentStatus, transactionStatus, fraudStatus string, now time.Time) (model.PaymentStatus, MappedFields) {
	ts := strings.ToLower(transactionStatus)
	fraud := strings.ToLower(fraudStatus)

	switch ts {
	case "capture":
		if fraud == "" || fraud == "accept" {
			return model.PaymentStatusPaid, MappedFields{PaidAt: &now}
		}
		if fraud == "challenge" {
			return model.PaymentStatusAwaitingCallback, MappedFields{}
		}
		return model.PaymentStatusFailed, MappedFields{FailedAt: &now}

	case "settlement":
		return model.PaymentStatusPaid, MappedFields{PaidAt: &now}

	case "pending":
		return model.PaymentStatusPending, MappedFields{}

	case "deny", "failure":
		return model.PaymentStatusFailed, MappedFields{FailedAt: &now}

	case "cancel":
		return model.PaymentStatusCanceled, MappedFields{CanceledAt: &now}

	case "expire":
		return model.PaymentStatusExpired, MappedFields{FailedAt: &now}

	case "refund":
		return model.PaymentStatusRefunded, MappedFields{RefundedAt: &now}

	case "partial_refund":
		return model.PaymentStatusPartiallyRefunded, MappedFields{RefundedAt: &now}
	}
	return current, MappedFields{}
}

// Signature is SHA512(order_id + status_code + gross_amount + server_key), hex.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

func VerifySignature(n Notification, serverKey string) bool {
	want := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if want == "" || serverKey == "" {
		return false
	}
	got := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
