package controller

import (
	"github.com/gofiber/fiber/v2"

	dto "schoolerp_backend/internals/features/users/otp/dto"
	model "schoolerp_backend/internals/features/users/otp/model"
	svc "schoolerp_backend/internals/features/users/otp/service"
	helper "schoolerp_backend/internals/helpers"
)

type OTPController struct {
	Svc *svc.Service
}

func NewOTPController(s *svc.Service) *OTPController {
	return &OTPController{Svc: s}
}

// POST /api/public/admissions/email-verification/request
func (h *OTPController) RequestEmailVerification(c *fiber.Ctx) error {
	var req dto.RequestOTPRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := h.Svc.Request(c.UserContext(), model.PurposeEmailVerification, req.Email)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Verification code sent", out)
}

// POST /api/public/admissions/email-verification/verify
func (h *OTPController) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := h.Svc.Verify(c.UserContext(), model.PurposeEmailVerification, req.Email, req.Code)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Email verified", out)
}
