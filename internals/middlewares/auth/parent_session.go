package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	helperAuth "schoolerp_backend/internals/helpers/auth"
)

const HeaderParentSession = "X-Parent-Session"

type ParentIdentity struct {
	ParentID  uuid.UUID
	StudentID uuid.UUID
	Email     string
}

// ParentResolver looks up a live parent session by its raw token.
type ParentResolver func(ctx context.Context, rawToken string) (*ParentIdentity, error)

// ParentSession authenticates parent portal requests. The token comes from
// X-Parent-Session or "Authorization: Parent <token>".
func ParentSession(resolve ParentResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := ParentToken(c)
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "parent session token required")
		}
		id, err := resolve(c.UserContext(), raw)
		if err != nil {
			return err
		}
		c.Locals(helperAuth.LocParentID, id.ParentID)
		c.Locals(helperAuth.LocParentStudent, id.StudentID)
		c.Locals(helperAuth.LocParentEmail, id.Email)
		return c.Next()
	}
}

func ParentToken(c *fiber.Ctx) string {
	if v := strings.TrimSpace(c.Get(HeaderParentSession)); v != "" {
		return v
	}
	fields := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(fields) == 2 && strings.EqualFold(fields[0], "Parent") {
		return fields[1]
	}
	return ""
}
