package route

import (
	"github.com/gofiber/fiber/v2"

	ctrl "schoolerp_backend/internals/features/admissions/reports/controller"
	svc "schoolerp_backend/internals/features/admissions/reports/service"
)

// Base path: /api/a. Register before the applications group so the
// literal path wins over /applications/:id.
func ReportAdminRoutes(r fiber.Router, s *svc.Service) {
	h := ctrl.NewExportController(s)

	r.Get("/applications/export", h.Applications)
}
