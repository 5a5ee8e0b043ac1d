package details

import (
	"github.com/gofiber/fiber/v2"

	AccountRoute "schoolerp_backend/internals/features/users/accounts/route"
	ParentRoute "schoolerp_backend/internals/features/users/parent_sessions/route"
)

// Base: /api/public
func UserPublicRoutes(public fiber.Router, d Deps) {
	AccountRoute.AuthPublicRoutes(public.Group("/auth"), d.DB)
	ParentRoute.ParentLoginRoutes(public.Group("/parents"), d.Sessions)
}

// Base: /api/s or /api/a
func AccountRoutes(r fiber.Router, d Deps) {
	AccountRoute.AccountRoutes(r, d.DB)
}

// Base: /api/p
func ParentPortalRoutes(r fiber.Router, d Deps) {
	ParentRoute.ParentPortalRoutes(r, d.Sessions)
}
