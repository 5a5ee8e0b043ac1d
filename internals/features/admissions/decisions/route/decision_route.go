// file: internals/features/admissions/decisions/route/decision_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolerp_backend/internals/configs"
	ctrl "schoolerp_backend/internals/features/admissions/decisions/controller"
	svc "schoolerp_backend/internals/features/admissions/decisions/service"
	"schoolerp_backend/internals/features/notifications/email"
)

func newController(db *gorm.DB, mail email.Sender) *ctrl.DecisionController {
	return ctrl.NewDecisionController(svc.New(db, mail, configs.App.StudentEmailDomain))
}

// Base path: /api/public/admissions
func DecisionPublicRoutes(r fiber.Router, db *gorm.DB, mail email.Sender) {
	h := newController(db, mail)

	r.Get("/enrollment-status", h.EnrollmentStatus)

	g := r.Group("/decisions")
	g.Post("/:id/choose", h.Choose)
	g.Post("/:id/enroll", h.Enroll)
	g.Post("/:id/withdraw", h.Withdraw)
	g.Post("/:id/finalize-payment", h.FinalizePayment)
}

// Base path: /api/a
func DecisionAdminRoutes(r fiber.Router, db *gorm.DB, mail email.Sender) {
	h := newController(db, mail)

	g := r.Group("/decisions")
	g.Get("/", h.ListForSchool)
	g.Get("/:id", h.Get)
	g.Patch("/:id/review", h.Review)
	g.Post("/:id/withdraw", h.AdminWithdraw)
	g.Post("/:id/allocate-account", h.AllocateAccount)
}
