package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	helperAuth "schoolerp_backend/internals/helpers/auth"
)

// RoleMiddlewareWithCustomError rejects requests whose token role is not listed.
func RoleMiddlewareWithCustomError(allowedRoles []string, customForbiddenMessage string) fiber.Handler {
	if customForbiddenMessage == "" {
		customForbiddenMessage = "forbidden: you are not authorized to access this resource"
	}
	return func(c *fiber.Ctx) error {
		role := helperAuth.GetRole(c)
		if role == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized: missing role")
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		zap.L().Debug("[AUTH] role rejected", zap.String("role", role), zap.String("path", c.Path()))
		return fiber.NewError(fiber.StatusForbidden, customForbiddenMessage)
	}
}

func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}

// ConfineRole lets the given role through only under one of the path prefixes.
// Other roles pass untouched.
func ConfineRole(role string, prefixes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if helperAuth.GetRole(c) != role {
			return c.Next()
		}
		for _, p := range prefixes {
			if strings.HasPrefix(c.Path(), p) {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "forbidden: "+role+" access is limited")
	}
}
