package details

import (
	"gorm.io/gorm"

	documentService "schoolerp_backend/internals/features/admissions/documents/service"
	reportService "schoolerp_backend/internals/features/admissions/reports/service"
	invoiceService "schoolerp_backend/internals/features/finance/invoices/service"
	paymentService "schoolerp_backend/internals/features/finance/payments/service"
	hostelService "schoolerp_backend/internals/features/hostel/service"
	"schoolerp_backend/internals/features/notifications/email"
	otpService "schoolerp_backend/internals/features/users/otp/service"
	sessionService "schoolerp_backend/internals/features/users/parent_sessions/service"
)

// Deps holds the services shared across route groups.
type Deps struct {
	DB        *gorm.DB
	Mail      email.Sender
	Invoices  *invoiceService.Service
	Webhook   *paymentService.WebhookService
	Hostel    *hostelService.Service
	Documents *documentService.Service
	Reports   *reportService.Service
	OTP       *otpService.Service
	Sessions  *sessionService.Service
}
