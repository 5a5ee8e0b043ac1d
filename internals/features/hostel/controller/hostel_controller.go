// file: internals/features/hostel/controller/hostel_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	dto "schoolerp_backend/internals/features/hostel/dto"
	svc "schoolerp_backend/internals/features/hostel/service"
	helper "schoolerp_backend/internals/helpers"
	helperAuth "schoolerp_backend/internals/helpers/auth"
	"schoolerp_backend/internals/helpers/dbtime"
)

type HostelController struct {
	Svc *svc.Service
}

func NewHostelController(s *svc.Service) *HostelController {
	return &HostelController{Svc: s}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, helper.FieldError("id", "must be a valid uuid")
	}
	return id, nil
}

// schoolScope resolves ?school_id=, falling back to the token's school.
func schoolScope(c *fiber.Ctx) (*uuid.UUID, error) {
	if raw := strings.TrimSpace(c.Query("school_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, helper.FieldError("school_id", "must be a valid uuid")
		}
		if own, ok := helperAuth.GetSchoolIDFromToken(c); ok && own != id && helperAuth.GetRole(c) != helperAuth.RoleAdmin {
			return nil, fiber.NewError(fiber.StatusForbidden, "school is outside your scope")
		}
		return &id, nil
	}
	if id, ok := helperAuth.GetSchoolIDFromToken(c); ok {
		return &id, nil
	}
	return nil, nil
}

/* ===============================
   Student
=================================*/

// GET /api/s/hostel/rooms?available=true
func (h *HostelController) StudentRooms(c *fiber.Ctx) error {
	schoolID, ok := helperAuth.GetSchoolIDFromToken(c)
	if !ok {
		return helper.JsonError(c, fiber.StatusForbidden, "school missing from token")
	}
	rows, err := h.Svc.ListRooms(c.UserContext(), schoolID, c.QueryBool("available", true))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", rows)
}

// POST /api/s/hostel/book
func (h *HostelController) Book(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.BookRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := h.Svc.Book(c.UserContext(), studentID, uuid.MustParse(req.RoomID), helperAuth.GetOptionalUserID(c))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Room booked, complete the payment to confirm the allocation", out)
}

// GET /api/s/hostel/allocation
func (h *HostelController) MyAllocation(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := h.Svc.CurrentAllocation(c.UserContext(), studentID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", out)
}

/* ===============================
   Parent
=================================*/

// GET /api/p/hostel/allocation
func (h *HostelController) ChildAllocation(c *fiber.Ctx) error {
	studentID, ok := helperAuth.GetParentStudentID(c)
	if !ok {
		return helper.JsonError(c, fiber.StatusUnauthorized, "parent session missing")
	}
	out, err := h.Svc.CurrentAllocation(c.UserContext(), studentID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", out)
}

/* ===============================
   Staff
=================================*/

// GET /api/a/hostel/rooms?school_id=&available=
func (h *HostelController) Rooms(c *fiber.Ctx) error {
	schoolID, err := schoolScope(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if schoolID == nil {
		return helper.JsonFromError(c, helper.FieldError("school_id", "this field is required"))
	}
	rows, err := h.Svc.ListRooms(c.UserContext(), *schoolID, c.QueryBool("available", false))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", rows)
}

// POST /api/a/hostel/rooms/:id/beds
func (h *HostelController) GenerateBeds(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.GenerateBedsRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	room, err := h.Svc.GenerateBeds(c.UserContext(), id, req.Count)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Beds generated", room)
}

// GET /api/a/hostel/allocations?status=&room_id=
func (h *HostelController) Allocations(c *fiber.Ctx) error {
	schoolID, err := schoolScope(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var q dto.ListAllocationsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonFromError(c, helper.FieldError("query", err.Error()))
	}
	if fields := helper.ValidateStruct(&q); fields != nil {
		return helper.JsonValidationError(c, fields)
	}
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := h.Svc.ListAllocations(c.UserContext(), schoolID, q, p)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonList(c, "", rows, helper.BuildPagination(total, p.Page, p.PerPage))
}

// POST /api/a/hostel/allocations
func (h *HostelController) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := h.Svc.Assign(c.UserContext(),
		uuid.MustParse(req.StudentID), uuid.MustParse(req.BedID),
		helperAuth.GetOptionalUserID(c), strings.TrimSpace(req.Notes))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Bed assigned", out)
}

// POST /api/a/hostel/allocations/:id/end
func (h *HostelController) End(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var req dto.EndRequest
	if len(c.Body()) > 0 {
		if err := helper.BindAndValidate(c, &req); err != nil {
			return helper.JsonFromError(c, err)
		}
	}
	var vacatedOn = dbtime.Today()
	if req.VacatedOn != "" {
		if vacatedOn, err = dbtime.ParseDate(req.VacatedOn); err != nil {
			return helper.JsonFromError(c, helper.FieldError("vacated_on", "must be a date in YYYY-MM-DD format"))
		}
	}
	a, err := h.Svc.End(c.UserContext(), id, helperAuth.GetOptionalUserID(c), &vacatedOn, strings.TrimSpace(req.Notes))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Allocation ended", a)
}

// POST /api/a/hostel/allocations/:id/suspend
func (h *HostelController) Suspend(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	a, err := h.Svc.Suspend(c.UserContext(), id)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Allocation suspended", a)
}

// POST /api/a/hostel/allocations/:id/reinstate
func (h *HostelController) Reinstate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	a, err := h.Svc.Reinstate(c.UserContext(), id)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Allocation reinstated", a)
}
