package details

import (
	"github.com/gofiber/fiber/v2"

	ApplicationRoute "schoolerp_backend/internals/features/admissions/applications/route"
	DecisionRoute "schoolerp_backend/internals/features/admissions/decisions/route"
	DocumentRoute "schoolerp_backend/internals/features/admissions/documents/route"
	FeeRoute "schoolerp_backend/internals/features/admissions/fees/route"
	ReportRoute "schoolerp_backend/internals/features/admissions/reports/route"
	InvoiceRoute "schoolerp_backend/internals/features/finance/invoices/route"
	OTPRoute "schoolerp_backend/internals/features/users/otp/route"
)

// Base: /api/public/admissions
func AdmissionPublicRoutes(r fiber.Router, d Deps) {
	OTPRoute.EmailVerificationRoutes(r, d.DB, d.Mail)
	ApplicationRoute.ApplicationPublicRoutes(r, d.DB, d.Mail)
	DocumentRoute.DocumentPublicRoutes(r, d.Documents)
	DecisionRoute.DecisionPublicRoutes(r, d.DB, d.Mail)
	InvoiceRoute.InvoicePublicRoutes(r, d.Invoices)
	FeeRoute.FeePublicRoutes(r, d.DB)
}

// Base: /api/a
func AdmissionAdminRoutes(r fiber.Router, d Deps) {
	// export first so it is not captured by /applications/:id
	ReportRoute.ReportAdminRoutes(r, d.Reports)
	ApplicationRoute.ApplicationAdminRoutes(r, d.DB, d.Mail)
	DecisionRoute.DecisionAdminRoutes(r, d.DB, d.Mail)
	FeeRoute.FeeAdminRoutes(r, d.DB)
}
