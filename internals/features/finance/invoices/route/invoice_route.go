package route

import (
	"github.com/gofiber/fiber/v2"

	ctrl "schoolerp_backend/internals/features/finance/invoices/controller"
	svc "schoolerp_backend/internals/features/finance/invoices/service"
)

// Base path: /api/public/admissions
func InvoicePublicRoutes(r fiber.Router, s *svc.Service) {
	h := ctrl.NewInvoiceController(s)
	r.Post("/decisions/:id/payment-init", h.PaymentInit)
}

// Base path: /api/s/finance
func InvoiceStudentRoutes(r fiber.Router, s *svc.Service) {
	h := ctrl.NewInvoiceController(s)

	g := r.Group("/invoices")
	g.Get("/", h.Mine)
	g.Post("/:id/checkout", h.Checkout)
}

// Base path: /api/a/finance
func InvoiceAdminRoutes(r fiber.Router, s *svc.Service) {
	h := ctrl.NewInvoiceController(s)

	g := r.Group("/invoices")
	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	g.Post("/:id/mark-paid", h.MarkPaid)
}
