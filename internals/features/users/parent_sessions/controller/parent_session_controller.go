package controller

import (
	"github.com/gofiber/fiber/v2"

	dto "schoolerp_backend/internals/features/users/parent_sessions/dto"
	svc "schoolerp_backend/internals/features/users/parent_sessions/service"
	helper "schoolerp_backend/internals/helpers"
	helperAuth "schoolerp_backend/internals/helpers/auth"
	authMw "schoolerp_backend/internals/middlewares/auth"
)

type ParentSessionController struct {
	Svc *svc.Service
}

func NewParentSessionController(s *svc.Service) *ParentSessionController {
	return &ParentSessionController{Svc: s}
}

// POST /api/public/parents/otp/request
func (h *ParentSessionController) RequestOTP(c *fiber.Ctx) error {
	var req dto.ParentOTPRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := h.Svc.RequestLogin(c.UserContext(), req.Email)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Login code sent", out)
}

// POST /api/public/parents/otp/verify
func (h *ParentSessionController) VerifyOTP(c *fiber.Ctx) error {
	var req dto.ParentOTPVerify
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := h.Svc.VerifyLogin(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Signed in", out)
}

// GET /api/p/me
func (h *ParentSessionController) Me(c *fiber.Ctx) error {
	parentID, err := helperAuth.GetParentID(c)
	if err != nil {
		return err
	}
	studentID, _ := helperAuth.GetParentStudentID(c)
	out, err := h.Svc.Me(c.UserContext(), parentID, studentID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", out)
}

// POST /api/p/logout
func (h *ParentSessionController) Logout(c *fiber.Ctx) error {
	if err := h.Svc.Revoke(c.UserContext(), authMw.ParentToken(c)); err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Signed out", nil)
}
