// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolerp_backend/internals/configs"
	documentService "schoolerp_backend/internals/features/admissions/documents/service"
	reportService "schoolerp_backend/internals/features/admissions/reports/service"
	invoiceService "schoolerp_backend/internals/features/finance/invoices/service"
	paymentService "schoolerp_backend/internals/features/finance/payments/service"
	hostelService "schoolerp_backend/internals/features/hostel/service"
	"schoolerp_backend/internals/features/notifications/email"
	accountService "schoolerp_backend/internals/features/users/accounts/service"
	otpService "schoolerp_backend/internals/features/users/otp/service"
	sessionService "schoolerp_backend/internals/features/users/parent_sessions/service"
	helperAuth "schoolerp_backend/internals/helpers/auth"
	storage "schoolerp_backend/internals/helpers/oss"
	authMw "schoolerp_backend/internals/middlewares/auth"
	routeDetails "schoolerp_backend/internals/route/details"
)

var startTime time.Time

// BuildDeps wires the shared services. Invoice hooks are registered here so
// paid invoices settle admission decisions and activate hostel allocations.
func BuildDeps(db *gorm.DB, cfg configs.Config, mail email.Sender, store storage.Store) routeDetails.Deps {
	var gw invoiceService.Gateway
	if snap := paymentService.InitMidtrans(cfg.MidtransServerKey, cfg.MidtransUseProd); snap != nil {
		gw = snap
	} else {
		zap.L().Warn("[MIDTRANS] MIDTRANS_SERVER_KEY not set, online checkout disabled")
	}

	invoices := invoiceService.New(db, gw)
	invoices.RegisterAdmissionHooks()

	hostel := hostelService.New(db, mail)
	hostel.RegisterInvoiceHooks(invoices)

	otp := otpService.New(db, mail)

	return routeDetails.Deps{
		DB:       db,
		Mail:     mail,
		Invoices: invoices,
		Webhook:  paymentService.NewWebhookService(db, invoices, cfg.MidtransServerKey),
		Hostel:   hostel,
		Documents: documentService.New(db, store, storage.WebPOptions{
			MaxW: cfg.ImageMaxW,
			MaxH: cfg.ImageMaxH,
		}),
		Reports:  reportService.New(db),
		OTP:      otp,
		Sessions: sessionService.New(db, otp, cfg.SessionSecret, cfg.ParentSessionTTL),
	}
}

func SetupRoutes(app *fiber.App, d routeDetails.Deps, cfg configs.Config) {
	startTime = time.Now()
	log := zap.L().Named("routes")

	BaseRoutes(app, d.DB)

	jwt := authMw.AuthJWT(authMw.AuthJWTOpts{
		Secret: cfg.JWTSecret,
		UserActive: func(c *fiber.Ctx, userID uuid.UUID) (bool, error) {
			return accountService.UserActive(c.UserContext(), d.DB, userID)
		},
	})

	// ===================== PUBLIC =====================
	log.Info("[INFO] Mounting PUBLIC group")
	public := app.Group("/api/public")
	routeDetails.AdmissionPublicRoutes(public.Group("/admissions"), d)
	routeDetails.FinancePublicRoutes(public.Group("/finance"), d)
	routeDetails.UserPublicRoutes(public, d)

	// ===================== PARENT (session token) =====================
	log.Info("[INFO] Mounting PARENT group")
	parent := app.Group("/api/p", authMw.ParentSession(d.Sessions.Resolver()))
	routeDetails.ParentPortalRoutes(parent, d)
	routeDetails.HostelParentRoutes(parent.Group("/hostel"), d)

	// ===================== STUDENT =====================
	log.Info("[INFO] Mounting STUDENT group")
	student := app.Group("/api/s", jwt,
		authMw.OnlyRoles("student access only", helperAuth.RoleStudent))
	routeDetails.AccountRoutes(student, d)
	routeDetails.HostelStudentRoutes(student.Group("/hostel"), d)
	routeDetails.FinanceStudentRoutes(student.Group("/finance"), d)

	// ===================== ADMIN / STAFF / WARDEN =====================
	log.Info("[INFO] Mounting ADMIN group")
	admin := app.Group("/api/a", jwt,
		authMw.OnlyRoles("staff access only", helperAuth.RoleAdmin, helperAuth.RoleStaff, helperAuth.RoleWarden),
		authMw.ConfineRole(helperAuth.RoleWarden, "/api/a/hostel", "/api/a/me", "/api/a/change-password"))
	routeDetails.AccountRoutes(admin, d)
	routeDetails.AdmissionAdminRoutes(admin, d)
	routeDetails.HostelAdminRoutes(admin.Group("/hostel"), d)
	routeDetails.FinanceAdminRoutes(admin.Group("/finance"), d)
}
