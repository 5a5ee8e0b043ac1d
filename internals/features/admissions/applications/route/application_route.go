// file: internals/features/admissions/applications/route/application_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolerp_backend/internals/configs"
	ctrl "schoolerp_backend/internals/features/admissions/applications/controller"
	svc "schoolerp_backend/internals/features/admissions/applications/service"
	"schoolerp_backend/internals/features/notifications/email"
	"schoolerp_backend/internals/middlewares"
)

func newController(db *gorm.DB, mail email.Sender) *ctrl.ApplicationController {
	return ctrl.NewApplicationController(svc.New(db, mail, configs.App.RequireEmailVerification))
}

// Base path: /api/public/admissions
func ApplicationPublicRoutes(r fiber.Router, db *gorm.DB, mail email.Sender) {
	h := newController(db, mail)

	r.Post("/applications", middlewares.SubmissionRateLimiter(), h.Submit)
	r.Get("/track", h.Track)
}

// Base path: /api/a
func ApplicationAdminRoutes(r fiber.Router, db *gorm.DB, mail email.Sender) {
	h := newController(db, mail)

	g := r.Group("/applications")
	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	g.Patch("/:id/review", h.Review)
}
