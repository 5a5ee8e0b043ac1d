package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	svc "schoolerp_backend/internals/features/finance/payments/service"
	helper "schoolerp_backend/internals/helpers"
)

type PaymentController struct {
	Webhook *svc.WebhookService
}

func NewPaymentController(w *svc.WebhookService) *PaymentController {
	return &PaymentController{Webhook: w}
}

/* =======================================================================
   Webhook Midtrans
======================================================================= */

// POST /api/public/finance/midtrans/webhook
func (h *PaymentController) MidtransWebhook(c *fiber.Ctx) error {
	var n svc.Notification
	if err := c.BodyParser(&n); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload: "+err.Error())
	}

	headers := map[string]string{}
	for k, v := range c.GetReqHeaders() {
		headers[k] = strings.Join(v, ",")
	}

	res, err := h.Webhook.Handle(c.UserContext(), n, headers, c.Body())
	if errors.Is(err, svc.ErrInvalidSignature) {
		return helper.JsonError(c, fiber.StatusUnauthorized, "invalid signature")
	}
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", res)
}
