// file: internals/features/finance/payments/model/payment_gateway_events_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/*
  payment_gateway_events = raw log of every gateway callback.
  Several rows per invoice; kept for replay and audits.
*/

type PaymentGatewayEventModel struct {
	GatewayEventID        uuid.UUID  `gorm:"column:gateway_event_id;type:uuid;default:gen_random_uuid();primaryKey" json:"gateway_event_id"`
	GatewayEventInvoiceID *uuid.UUID `gorm:"column:gateway_event_invoice_id;type:uuid" json:"gateway_event_invoice_id"`

	GatewayEventProvider    string  `gorm:"column:gateway_event_provider;size:20;not null;default:midtrans" json:"gateway_event_provider"`
	GatewayEventType        *string `gorm:"column:gateway_event_type" json:"gateway_event_type"`
	GatewayEventOrderID     *string `gorm:"column:gateway_event_order_id" json:"gateway_event_order_id"`
	GatewayEventExternalRef *string `gorm:"column:gateway_event_external_ref" json:"gateway_event_external_ref"`

	GatewayEventHeaders   datatypes.JSON `gorm:"column:gateway_event_headers;type:jsonb" json:"gateway_event_headers"`
	GatewayEventPayload   datatypes.JSON `gorm:"column:gateway_event_payload;type:jsonb" json:"gateway_event_payload"`
	GatewayEventSignature *string        `gorm:"column:gateway_event_signature" json:"gateway_event_signature"`

	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;size:20;not null;default:received" json:"gateway_event_status"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error" json:"gateway_event_error"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null;default:now()" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at"`
}

func (PaymentGatewayEventModel) TableName() string {
	return "payment_gateway_events"
}
