package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	helperAuth "schoolerp_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool
	// UserActive, when set, rejects tokens of deactivated accounts.
	UserActive func(c *fiber.Ctx, userID uuid.UUID) (bool, error)
}

// AuthJWT verifies an HS256 access token and hydrates the request locals.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: secret is required")
	}

	return func(c *fiber.Ctx) error {
		raw, err := extractBearerToken(c, o.AllowCookieFallback)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized: "+err.Error())
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token claims")
		}

		userID, err := uuid.Parse(strClaim(claims, "sub"))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid subject")
		}
		if o.UserActive != nil {
			active, err := o.UserActive(c, userID)
			if err != nil {
				return err
			}
			if !active {
				return fiber.NewError(fiber.StatusUnauthorized, "account is disabled")
			}
		}

		c.Locals("jwt_claims", claims)
		c.Locals(helperAuth.LocUserID, userID)
		c.Locals(helperAuth.LocRole, strClaim(claims, "role"))
		if sid := strClaim(claims, "school_id"); sid != "" {
			c.Locals(helperAuth.LocSchoolID, sid)
		}
		if sid := strClaim(claims, "student_id"); sid != "" {
			c.Locals(helperAuth.LocStudentID, sid)
		}
		return c.Next()
	}
}
