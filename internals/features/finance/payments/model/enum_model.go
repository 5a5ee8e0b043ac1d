package model

type PaymentStatus string
type GatewayEventStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusAwaitingCallback  PaymentStatus = "awaiting_callback"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusCanceled          PaymentStatus = "canceled"
	PaymentStatusExpired           PaymentStatus = "expired"
)

// Failed reports the statuses after which the charge will not settle.
func (s PaymentStatus) Failed() bool {
	return s == PaymentStatusFailed || s == PaymentStatusCanceled || s == PaymentStatusExpired
}

const (
	PaymentMethodGateway = "gateway"
	ProviderMidtrans     = "midtrans"
)

const (
	GatewayEventReceived  GatewayEventStatus = "received"
	GatewayEventProcessed GatewayEventStatus = "processed"
	GatewayEventIgnored   GatewayEventStatus = "ignored"
	GatewayEventFailed    GatewayEventStatus = "failed"

	// the charge was captured but its invoice or owner can no longer take it
	GatewayEventNeedsRefund GatewayEventStatus = "needs_refund"
)
