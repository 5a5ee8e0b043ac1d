package middlewares

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "schoolerp_backend/internals/helpers"
)

func limitReached(msg string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return helper.JsonError(c, fiber.StatusTooManyRequests, msg)
	}
}

// GlobalRateLimiter applies to every endpoint.
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: limitReached("too many requests, please try again later"),
	})
}

func LoginRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "login:" + c.IP()
		},
		LimitReached: limitReached("too many login attempts, try again in a minute"),
	})
}

// SubmissionRateLimiter guards the public application form.
func SubmissionRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "apply:" + c.IP()
		},
		LimitReached: limitReached("too many applications from this address, try again later"),
	})
}

// OTPRateLimiter is a coarse per-IP guard in front of the per-destination OTP throttle.
func OTPRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: 30 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "otp:" + c.IP() + ":" + strings.TrimPrefix(c.Path(), "/api/public")
		},
		LimitReached: limitReached("too many verification code requests, try again later"),
	})
}
