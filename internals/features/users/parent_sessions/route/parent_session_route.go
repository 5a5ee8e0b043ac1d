package route

import (
	"github.com/gofiber/fiber/v2"

	ctrl "schoolerp_backend/internals/features/users/parent_sessions/controller"
	svc "schoolerp_backend/internals/features/users/parent_sessions/service"
	"schoolerp_backend/internals/middlewares"
)

// Base path: /api/public/parents
func ParentLoginRoutes(r fiber.Router, s *svc.Service) {
	h := ctrl.NewParentSessionController(s)

	g := r.Group("/otp", middlewares.OTPRateLimiter())
	g.Post("/request", h.RequestOTP)
	g.Post("/verify", h.VerifyOTP)
}

// Base path: /api/p (already behind the parent session middleware)
func ParentPortalRoutes(r fiber.Router, s *svc.Service) {
	h := ctrl.NewParentSessionController(s)

	r.Get("/me", h.Me)
	r.Post("/logout", h.Logout)
}
