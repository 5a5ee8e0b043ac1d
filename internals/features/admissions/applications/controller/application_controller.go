// file: internals/features/admissions/applications/controller/application_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	dto "schoolerp_backend/internals/features/admissions/applications/dto"
	model "schoolerp_backend/internals/features/admissions/applications/model"
	svc "schoolerp_backend/internals/features/admissions/applications/service"
	helper "schoolerp_backend/internals/helpers"
	helperAuth "schoolerp_backend/internals/helpers/auth"
)

type ApplicationController struct {
	Svc *svc.Service
}

func NewApplicationController(s *svc.Service) *ApplicationController {
	return &ApplicationController{Svc: s}
}

// POST /api/public/admissions/applications
func (h *ApplicationController) Submit(c *fiber.Ctx) error {
	var req dto.SubmitApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonFromError(c, helper.FieldError("body", "invalid json: "+err.Error()))
	}
	out, err := h.Svc.Submit(c.UserContext(), &req)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Application submitted", out)
}

// GET /api/public/admissions/track?reference_id=
func (h *ApplicationController) Track(c *fiber.Ctx) error {
	out, err := h.Svc.Track(c.UserContext(), c.Query("reference_id"))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", out)
}

// GET /api/a/applications
func (h *ApplicationController) List(c *fiber.Ctx) error {
	var q dto.ListApplicationsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonFromError(c, helper.FieldError("query", err.Error()))
	}
	if fields := helper.ValidateStruct(&q); fields != nil {
		return helper.JsonValidationError(c, fields)
	}
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := h.Svc.List(c.UserContext(), q, p)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonList(c, "", rows, helper.BuildPagination(total, p.Page, p.PerPage))
}

// GET /api/a/applications/:id
func (h *ApplicationController) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonFromError(c, helper.FieldError("id", "must be a valid uuid"))
	}
	out, err := h.Svc.GetByID(c.UserContext(), id)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", out)
}

// PATCH /api/a/applications/:id/review
func (h *ApplicationController) Review(c *fiber.Ctx) error {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonFromError(c, helper.FieldError("id", "must be a valid uuid"))
	}
	var req dto.ReviewApplicationRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := h.Svc.ReviewApplication(c.UserContext(), id, svc.ReviewInput{
		Status:     model.ApplicationStatus(req.Status),
		Comments:   req.Comments,
		ReviewerID: helperAuth.GetOptionalUserID(c),
	})
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Application reviewed", out)
}
