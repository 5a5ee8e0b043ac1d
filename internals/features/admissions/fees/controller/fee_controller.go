package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "schoolerp_backend/internals/features/admissions/fees/dto"
	svc "schoolerp_backend/internals/features/admissions/fees/service"
	helper "schoolerp_backend/internals/helpers"
	helperAuth "schoolerp_backend/internals/helpers/auth"
)

type FeeController struct {
	DB *gorm.DB
}

func NewFeeController(db *gorm.DB) *FeeController {
	return &FeeController{DB: db}
}

// POST /api/public/admissions/fees/calculate
func (h *FeeController) Calculate(c *fiber.Ctx) error {
	var req dto.CalculateFeeRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := svc.Calculate(c.UserContext(), h.DB, req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", out)
}

// GET /api/a/fees/summary?school_id=
func (h *FeeController) Summary(c *fiber.Ctx) error {
	var schoolID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("school_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonFromError(c, helper.FieldError("school_id", "must be a valid uuid"))
		}
		schoolID = &id
	} else if helperAuth.GetRole(c) != helperAuth.RoleAdmin {
		if id, ok := helperAuth.GetSchoolIDFromToken(c); ok {
			schoolID = &id
		}
	}
	out, err := svc.Summary(c.UserContext(), h.DB, schoolID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", out)
}
