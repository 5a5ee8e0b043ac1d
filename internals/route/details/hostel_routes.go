package details

import (
	"github.com/gofiber/fiber/v2"

	HostelRoute "schoolerp_backend/internals/features/hostel/route"
)

func HostelStudentRoutes(r fiber.Router, d Deps) { HostelRoute.HostelStudentRoutes(r, d.Hostel) }

func HostelParentRoutes(r fiber.Router, d Deps) { HostelRoute.HostelParentRoutes(r, d.Hostel) }

func HostelAdminRoutes(r fiber.Router, d Deps) { HostelRoute.HostelAdminRoutes(r, d.Hostel) }
