package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Locals keys written by the auth middlewares.
const (
	LocUserID    = "user_id"
	LocRole      = "role"
	LocSchoolID  = "school_id"
	LocStudentID = "student_id"

	LocParentID      = "parent_id"
	LocParentEmail   = "parent_email"
	LocParentStudent = "parent_student_id"
)

const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleWarden  = "warden"
	RoleStudent = "student"
)

func localUUID(c *fiber.Ctx, key string) (uuid.UUID, bool) {
	switch v := c.Locals(key).(type) {
	case uuid.UUID:
		return v, v != uuid.Nil
	case string:
		id, err := uuid.Parse(strings.TrimSpace(v))
		return id, err == nil && id != uuid.Nil
	default:
		return uuid.Nil, false
	}
}

func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := localUUID(c, LocUserID); ok {
		return id, nil
	}
	return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user_id missing from token")
}

// GetOptionalUserID returns nil when the request is anonymous.
func GetOptionalUserID(c *fiber.Ctx) *uuid.UUID {
	if id, ok := localUUID(c, LocUserID); ok {
		return &id
	}
	return nil
}

func GetStudentIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := localUUID(c, LocStudentID); ok {
		return id, nil
	}
	return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "student profile missing from token")
}

func GetSchoolIDFromToken(c *fiber.Ctx) (uuid.UUID, bool) {
	return localUUID(c, LocSchoolID)
}

func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocRole).(string)
	return strings.ToLower(strings.TrimSpace(s))
}

func GetParentID(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := localUUID(c, LocParentID); ok {
		return id, nil
	}
	return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "parent session missing")
}

func GetParentStudentID(c *fiber.Ctx) (uuid.UUID, bool) {
	return localUUID(c, LocParentStudent)
}
