package details

import (
	"github.com/gofiber/fiber/v2"

	InvoiceRoute "schoolerp_backend/internals/features/finance/invoices/route"
	PaymentRoute "schoolerp_backend/internals/features/finance/payments/route"
)

// Base: /api/public/finance
func FinancePublicRoutes(r fiber.Router, d Deps) {
	PaymentRoute.PaymentPublicRoutes(r, d.Webhook)
}

// Base: /api/s/finance
func FinanceStudentRoutes(r fiber.Router, d Deps) {
	InvoiceRoute.InvoiceStudentRoutes(r, d.Invoices)
}

// Base: /api/a/finance
func FinanceAdminRoutes(r fiber.Router, d Deps) {
	InvoiceRoute.InvoiceAdminRoutes(r, d.Invoices)
}
