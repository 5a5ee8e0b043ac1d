package route

import (
	"github.com/gofiber/fiber/v2"

	ctrl "schoolerp_backend/internals/features/admissions/documents/controller"
	svc "schoolerp_backend/internals/features/admissions/documents/service"
	"schoolerp_backend/internals/middlewares"
)

// Base path: /api/public/admissions
func DocumentPublicRoutes(r fiber.Router, s *svc.Service) {
	h := ctrl.NewDocumentController(s)

	r.Post("/applications/:id/documents", middlewares.SubmissionRateLimiter(), h.Upload)
	r.Get("/applications/:id/documents", h.List)
}
