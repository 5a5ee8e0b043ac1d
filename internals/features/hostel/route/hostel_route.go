package route

import (
	"github.com/gofiber/fiber/v2"

	ctrl "schoolerp_backend/internals/features/hostel/controller"
	svc "schoolerp_backend/internals/features/hostel/service"
)

// Base path: /api/s/hostel
func HostelStudentRoutes(r fiber.Router, s *svc.Service) {
	h := ctrl.NewHostelController(s)

	r.Get("/rooms", h.StudentRooms)
	r.Post("/book", h.Book)
	r.Get("/allocation", h.MyAllocation)
}

// Base path: /api/p/hostel
func HostelParentRoutes(r fiber.Router, s *svc.Service) {
	h := ctrl.NewHostelController(s)
	r.Get("/allocation", h.ChildAllocation)
}

// Base path: /api/a/hostel
func HostelAdminRoutes(r fiber.Router, s *svc.Service) {
	h := ctrl.NewHostelController(s)

	rooms := r.Group("/rooms")
	rooms.Get("/", h.Rooms)
	rooms.Post("/:id/beds", h.GenerateBeds)

	alloc := r.Group("/allocations")
	alloc.Get("/", h.Allocations)
	alloc.Post("/", h.Assign)
	alloc.Post("/:id/end", h.End)
	alloc.Post("/:id/suspend", h.Suspend)
	alloc.Post("/:id/reinstate", h.Reinstate)
}
