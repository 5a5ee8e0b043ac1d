package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helperAuth "schoolerp_backend/internals/helpers/auth"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func protectedApp(opts AuthJWTOpts, roles ...string) *fiber.App {
	app := fiber.New()
	chain := []fiber.Handler{AuthJWT(opts)}
	if len(roles) > 0 {
		chain = append(chain, OnlyRoles("", roles...))
	}
	chain = append(chain, func(c *fiber.Ctx) error {
		id, err := helperAuth.GetUserIDFromToken(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String() + "|" + helperAuth.GetRole(c))
	})
	app.Get("/", chain...)
	return app
}

func call(t *testing.T, app *fiber.App, header, value string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthJWT(t *testing.T) {
	userID := uuid.New()
	valid := jwt.MapClaims{"sub": userID.String(), "role": "staff", "exp": time.Now().Add(time.Hour).Unix()}
	expired := jwt.MapClaims{"sub": userID.String(), "role": "staff", "exp": time.Now().Add(-time.Hour).Unix()}

	app := protectedApp(AuthJWTOpts{Secret: secret})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + sign(t, valid, secret), 200},
		{"missing", "", 401},
		{"wrong scheme", "Token " + sign(t, valid, secret), 401},
		{"wrong key", "Bearer " + sign(t, valid, "other"), 401},
		{"expired", "Bearer " + sign(t, expired, secret), 401},
		{"bad subject", "Bearer " + sign(t, jwt.MapClaims{"sub": "nope"}, secret), 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ""
			if tt.header != "" {
				h = fiber.HeaderAuthorization
			}
			assert.Equal(t, tt.want, call(t, app, h, tt.header))
		})
	}
}

func TestAuthJWTRejectsDisabledAccounts(t *testing.T) {
	userID := uuid.New()
	tok := "Bearer " + sign(t, jwt.MapClaims{"sub": userID.String(), "role": "admin"}, secret)

	disabled := protectedApp(AuthJWTOpts{Secret: secret, UserActive: func(*fiber.Ctx, uuid.UUID) (bool, error) { return false, nil }})
	assert.Equal(t, 401, call(t, disabled, fiber.HeaderAuthorization, tok))

	active := protectedApp(AuthJWTOpts{Secret: secret, UserActive: func(_ *fiber.Ctx, id uuid.UUID) (bool, error) { return id == userID, nil }})
	assert.Equal(t, 200, call(t, active, fiber.HeaderAuthorization, tok))
}

func TestOnlyRoles(t *testing.T) {
	app := protectedApp(AuthJWTOpts{Secret: secret}, helperAuth.RoleAdmin, helperAuth.RoleStaff)
	staff := "Bearer " + sign(t, jwt.MapClaims{"sub": uuid.NewString(), "role": "staff"}, secret)
	student := "Bearer " + sign(t, jwt.MapClaims{"sub": uuid.NewString(), "role": "student"}, secret)
	noRole := "Bearer " + sign(t, jwt.MapClaims{"sub": uuid.NewString()}, secret)

	assert.Equal(t, 200, call(t, app, fiber.HeaderAuthorization, staff))
	assert.Equal(t, 403, call(t, app, fiber.HeaderAuthorization, student))
	assert.Equal(t, 401, call(t, app, fiber.HeaderAuthorization, noRole))
}

func TestConfineRole(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(helperAuth.LocRole, c.Get("X-Role"))
		return c.Next()
	}, ConfineRole(helperAuth.RoleWarden, "/api/a/hostel"))
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Get("/api/a/hostel/rooms", ok)
	app.Get("/api/a/applications", ok)

	tests := []struct {
		role, path string
		want       int
	}{
		{"warden", "/api/a/hostel/rooms", 200},
		{"warden", "/api/a/applications", 403},
		{"staff", "/api/a/applications", 200},
	}
	for _, tt := range tests {
		t.Run(tt.role+tt.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			req.Header.Set("X-Role", tt.role)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestParentSession(t *testing.T) {
	parentID, studentID := uuid.New(), uuid.New()
	resolve := func(_ context.Context, raw string) (*ParentIdentity, error) {
		if raw != "good-token" {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "parent session is invalid or expired")
		}
		return &ParentIdentity{ParentID: parentID, StudentID: studentID, Email: "p@example.com"}, nil
	}

	app := fiber.New()
	app.Get("/", ParentSession(resolve), func(c *fiber.Ctx) error {
		pid, err := helperAuth.GetParentID(c)
		if err != nil {
			return err
		}
		sid, ok := helperAuth.GetParentStudentID(c)
		if !ok {
			return errors.New("student missing")
		}
		return c.SendString(pid.String() + sid.String())
	})

	assert.Equal(t, 200, call(t, app, HeaderParentSession, "good-token"))
	assert.Equal(t, 200, call(t, app, fiber.HeaderAuthorization, "Parent good-token"))
	assert.Equal(t, 401, call(t, app, HeaderParentSession, "stale"))
	assert.Equal(t, 401, call(t, app, "", ""))
}
