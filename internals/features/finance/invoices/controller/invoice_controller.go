// file: internals/features/finance/invoices/controller/invoice_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	dto "schoolerp_backend/internals/features/finance/invoices/dto"
	svc "schoolerp_backend/internals/features/finance/invoices/service"
	helper "schoolerp_backend/internals/helpers"
	helperAuth "schoolerp_backend/internals/helpers/auth"
)

type InvoiceController struct {
	Svc *svc.Service
}

func NewInvoiceController(s *svc.Service) *InvoiceController {
	return &InvoiceController{Svc: s}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, helper.FieldError("id", "must be a valid uuid")
	}
	return id, nil
}

// GET /api/a/finance/invoices?status=&fee_type=&school_id=&student_id=&q=
func (h *InvoiceController) List(c *fiber.Ctx) error {
	var q dto.ListInvoicesQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonFromError(c, helper.FieldError("query", err.Error()))
	}
	if fields := helper.ValidateStruct(&q); fields != nil {
		return helper.JsonValidationError(c, fields)
	}
	for key, dst := range map[string]**uuid.UUID{"school_id": &q.SchoolID, "student_id": &q.StudentID} {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonFromError(c, helper.FieldError(key, "must be a valid uuid"))
		}
		*dst = &id
	}
	if q.SchoolID == nil && helperAuth.GetRole(c) != helperAuth.RoleAdmin {
		if id, ok := helperAuth.GetSchoolIDFromToken(c); ok {
			q.SchoolID = &id
		}
	}

	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := h.Svc.List(c.UserContext(), q, p)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonList(c, "", rows, helper.BuildPagination(total, p.Page, p.PerPage))
}

// GET /api/a/finance/invoices/:id
func (h *InvoiceController) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	inv, err := h.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", inv)
}

// POST /api/a/finance/invoices/:id/mark-paid
func (h *InvoiceController) MarkPaid(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.MarkPaidRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	inv, err := h.Svc.SettleManually(c.UserContext(), id, req.Reference)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Invoice marked as paid", inv)
}

/* ===============================
   Student
=================================*/

// GET /api/s/finance/invoices
func (h *InvoiceController) Mine(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	rows, err := h.Svc.ForStudent(c.UserContext(), studentID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", rows)
}

// POST /api/s/finance/invoices/:id/checkout
func (h *InvoiceController) Checkout(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	studentID, err := helperAuth.GetStudentIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.CheckoutRequest
	if len(c.Body()) > 0 {
		if err := helper.BindAndValidate(c, &req); err != nil {
			return helper.JsonFromError(c, err)
		}
	}
	out, err := h.Svc.CreateCheckout(c.UserContext(), id, &studentID, svc.Customer{Phone: req.Phone})
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Checkout ready", out)
}

/* ===============================
   Applicant (public)
=================================*/

// POST /api/public/admissions/decisions/:id/payment-init
func (h *InvoiceController) PaymentInit(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.PaymentInitRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := h.Svc.InitAdmissionPayment(c.UserContext(), id, req.ReferenceID, req.Phone)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Checkout ready", out)
}
