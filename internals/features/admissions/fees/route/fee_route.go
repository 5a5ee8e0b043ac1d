package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	ctrl "schoolerp_backend/internals/features/admissions/fees/controller"
)

// Base path: /api/public/admissions
func FeePublicRoutes(r fiber.Router, db *gorm.DB) {
	h := ctrl.NewFeeController(db)
	r.Post("/fees/calculate", h.Calculate)
}

// Base path: /api/a
func FeeAdminRoutes(r fiber.Router, db *gorm.DB) {
	h := ctrl.NewFeeController(db)
	r.Get("/fees/summary", h.Summary)
}
