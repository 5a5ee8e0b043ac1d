package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolerp_backend/internals/configs"
	ctrl "schoolerp_backend/internals/features/users/accounts/controller"
	"schoolerp_backend/internals/middlewares"
)

func newController(db *gorm.DB) *ctrl.AccountController {
	return ctrl.NewAccountController(db, configs.App.JWTSecret, configs.App.JWTAccessTTL)
}

// Base path: /api/public/auth
func AuthPublicRoutes(r fiber.Router, db *gorm.DB) {
	h := newController(db)

	r.Post("/login", middlewares.LoginRateLimiter(), h.Login)
}

// Base path: /api/s or /api/a (JWT already applied)
func AccountRoutes(r fiber.Router, db *gorm.DB) {
	h := newController(db)

	r.Get("/me", h.Me)
	r.Post("/change-password", h.ChangePassword)
}
