package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	dto "schoolerp_backend/internals/features/users/accounts/dto"
	svc "schoolerp_backend/internals/features/users/accounts/service"
	helper "schoolerp_backend/internals/helpers"
	helperAuth "schoolerp_backend/internals/helpers/auth"
)

type AccountController struct {
	DB        *gorm.DB
	Secret    string
	AccessTTL time.Duration
}

func NewAccountController(db *gorm.DB, secret string, ttl time.Duration) *AccountController {
	return &AccountController{DB: db, Secret: secret, AccessTTL: ttl}
}

// POST /api/public/auth/login
func (h *AccountController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	res, err := svc.Login(c.UserContext(), h.DB, req.Identifier, req.Password, h.Secret, h.AccessTTL)
	if err != nil {
		if helper.CodeOf(err) == "INVALID_CREDENTIALS" {
			return helper.JsonError(c, fiber.StatusUnauthorized, "identifier or password is incorrect")
		}
		return helper.JsonFromError(c, err)
	}
	zap.L().Info("[AUTH] login", zap.String("user_id", res.User.UserID.String()), zap.String("role", res.User.UserRole))
	return helper.JsonOK(c, "Login successful", res)
}

// GET /api/s/me, /api/a/me
func (h *AccountController) Me(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	out, err := svc.GetMe(c.UserContext(), h.DB, userID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "", out)
}

// POST /api/s/change-password, /api/a/change-password
func (h *AccountController) ChangePassword(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.JsonFromError(c, err)
	}
	if err := svc.ChangePassword(c.UserContext(), h.DB, userID, req.CurrentPassword, req.NewPassword); err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Password changed", nil)
}
