package route

import (
	"github.com/gofiber/fiber/v2"

	ctrl "schoolerp_backend/internals/features/finance/payments/controller"
	svc "schoolerp_backend/internals/features/finance/payments/service"
)

// Base path: /api/public/finance
func PaymentPublicRoutes(r fiber.Router, w *svc.WebhookService) {
	h := ctrl.NewPaymentController(w)
	r.Post("/midtrans/webhook", h.MidtransWebhook)
}
