package controller

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	appDto "schoolerp_backend/internals/features/admissions/applications/dto"
	svc "schoolerp_backend/internals/features/admissions/reports/service"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
)

type ExportController struct {
	Svc *svc.Service
}

func NewExportController(s *svc.Service) *ExportController {
	return &ExportController{Svc: s}
}

// GET /api/a/applications/export?status=&school_id=&category=&q=
func (h *ExportController) Applications(c *fiber.Ctx) error {
	var q appDto.ListApplicationsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonFromError(c, helper.FieldError("query", err.Error()))
	}
	if fields := helper.ValidateStruct(&q); fields != nil {
		return helper.JsonValidationError(c, fields)
	}
	data, n, err := h.Svc.ExportApplicationsXLSX(c.UserContext(), q)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	zap.L().Info("[REPORT] applications exported", zap.Int("rows", n))

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+svc.FileName(dbtime.Now())+`"`)
	return c.Send(data)
}
