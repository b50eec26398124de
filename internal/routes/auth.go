package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jeezpay/jeezpay/internal/auth"
)

// RegisterAuthRoutes wires the OTP login endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, otpLimiter fiber.Handler) {
	r.Post("/auth/request-otp", otpLimiter, h.RequestOTP)
	r.Post("/auth/verify-otp", h.VerifyOTP)
}
