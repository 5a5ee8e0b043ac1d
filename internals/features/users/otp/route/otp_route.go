package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolerp_backend/internals/features/notifications/email"
	ctrl "schoolerp_backend/internals/features/users/otp/controller"
	svc "schoolerp_backend/internals/features/users/otp/service"
	"schoolerp_backend/internals/middlewares"
)

// Base path: /api/public/admissions
func EmailVerificationRoutes(r fiber.Router, db *gorm.DB, mail email.Sender) {
	h := ctrl.NewOTPController(svc.New(db, mail))

	g := r.Group("/email-verification", middlewares.OTPRateLimiter())
	g.Post("/request", h.RequestEmailVerification)
	g.Post("/verify", h.VerifyEmail)
}
