// file: internals/features/admissions/decisions/controller/decision_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	dto "schoolerp_backend/internals/features/admissions/decisions/dto"
	model "schoolerp_backend/internals/features/admissions/decisions/model"
	svc "schoolerp_backend/internals/features/admissions/decisions/service"
	helper "schoolerp_backend/internals/helpers"
	helperAuth "schoolerp_backend/internals/helpers/auth"
)

type DecisionController struct {
	Svc *svc.Service
}

func NewDecisionController(s *svc.Service) *DecisionController {
	return &DecisionController{Svc: s}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, helper.FieldError("id", "must be a valid uuid")
	}
	return id, nil
}

/* ===============================
   Applicant (public)
=================================*/

// POST /api/public/admissions/decisions/:id/enroll
func (h *DecisionController) Enroll(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.EnrollRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	if err := h.Svc.CheckReference(c.UserContext(), id, req.ReferenceID); err != nil {
		return helper.JsonFromError(c, err)
	}
	d, err := h.Svc.Enroll(c.UserContext(), id, svc.EnrollInput{
		PaymentReference: req.PaymentReference,
		Finalize:         req.Finalize,
	})
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Enrolled", d)
}

// POST /api/public/admissions/decisions/:id/withdraw
func (h *DecisionController) Withdraw(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.WithdrawRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	if req.ReferenceID == "" {
		return helper.JsonFromError(c, helper.FieldError("reference_id", "this field is required"))
	}
	if err := h.Svc.CheckReference(c.UserContext(), id, req.ReferenceID); err != nil {
		return helper.JsonFromError(c, err)
	}
	// applicants cannot override a finalized payment
	d, err := h.Svc.Withdraw(c.UserContext(), id, req.Reason, false)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Enrollment withdrawn", d)
}

// POST /api/public/admissions/decisions/:id/finalize-payment
func (h *DecisionController) FinalizePayment(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.ApplicantRef
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	if err := h.Svc.CheckReference(c.UserContext(), id, req.ReferenceID); err != nil {
		return helper.JsonFromError(c, err)
	}
	ok, d, err := h.Svc.FinalizePayment(c.UserContext(), id)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	msg := "Payment finalized"
	if !ok {
		msg = "Payment was already finalized"
	}
	return helper.JsonOK(c, msg, dto.FinalizeResponse{Finalized: ok, Decision: d})
}

// POST /api/public/admissions/decisions/:id/choose
func (h *DecisionController) Choose(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.ApplicantRef
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	if err := h.Svc.CheckReference(c.UserContext(), id, req.ReferenceID); err != nil {
		return helper.JsonFromError(c, err)
	}
	d, err := h.Svc.ChooseSchool(c.UserContext(), id)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "School chosen", d)
}

// GET /api/public/admissions/enrollment-status?reference_id=
func (h *DecisionController) EnrollmentStatus(c *fiber.Ctx) error {
	ref := strings.TrimSpace(c.Query("reference_id"))
	if ref == "" {
		return helper.JsonFromError(c, helper.FieldError("reference_id", "this field is required"))
	}
	out, err := h.Svc.EnrollmentStatus(c.UserContext(), ref)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", out)
}

/* ===============================
   Staff
=================================*/

// PATCH /api/a/decisions/:id/review
func (h *DecisionController) Review(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.ReviewDecisionRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	d, err := h.Svc.Review(c.UserContext(), id, svc.ReviewInput{
		Outcome:    model.Outcome(req.Outcome),
		Comments:   req.Comments,
		ReviewerID: helperAuth.GetOptionalUserID(c),
	})
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Decision updated", d)
}

// POST /api/a/decisions/:id/withdraw
func (h *DecisionController) AdminWithdraw(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.WithdrawRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	if req.Force && helperAuth.GetRole(c) != helperAuth.RoleAdmin {
		return helper.JsonError(c, fiber.StatusForbidden, "only an administrator can force a withdrawal")
	}
	d, err := h.Svc.Withdraw(c.UserContext(), id, req.Reason, req.Force)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Enrollment withdrawn", d)
}

// POST /api/a/decisions/:id/allocate-account
func (h *DecisionController) AllocateAccount(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	res, err := h.Svc.AllocateAccount(c.UserContext(), id, helperAuth.GetOptionalUserID(c))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Student account created", res)
}

// GET /api/a/decisions?school_id=&outcome=&enrollment=&q=
func (h *DecisionController) ListForSchool(c *fiber.Ctx) error {
	schoolID, ok := helperAuth.GetSchoolIDFromToken(c)
	if raw := strings.TrimSpace(c.Query("school_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonFromError(c, helper.FieldError("school_id", "must be a valid uuid"))
		}
		if ok && id != schoolID && helperAuth.GetRole(c) != helperAuth.RoleAdmin {
			return helper.JsonError(c, fiber.StatusForbidden, "school is outside your scope")
		}
		schoolID, ok = id, true
	}
	if !ok {
		return helper.JsonFromError(c, helper.FieldError("school_id", "this field is required"))
	}

	var q dto.ListDecisionsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonFromError(c, helper.FieldError("query", err.Error()))
	}
	if fields := helper.ValidateStruct(&q); fields != nil {
		return helper.JsonValidationError(c, fields)
	}

	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := h.Svc.ListForSchool(c.UserContext(), schoolID, q, p)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonList(c, "", rows, helper.BuildPagination(total, p.Page, p.PerPage))
}

// GET /api/a/decisions/:id
func (h *DecisionController) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	d, err := h.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", d)
}
