package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jeezpay/jeezpay/internal/identity"
)

// Handler exposes the OTP login endpoints.
type Handler struct {
	service *Service
	users   *identity.Service
}

// NewHandler constructs an auth handler.
func NewHandler(service *Service, users *identity.Service) *Handler {
	return &Handler{service: service, users: users}
}

type requestOTPRequest struct {
	Phone string `json:"phone"`
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// RequestOTP issues a one-time code for the phone.
func (h *Handler) RequestOTP(c *fiber.Ctx) error {
	var req requestOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.RequestOTP(c.UserContext(), req.Phone); err != nil {
		if errors.Is(err, identity.ErrPhoneRequired) {
			return fiber.NewError(http.StatusBadRequest, "phone required")
		}
		return fiber.NewError(http.StatusInternalServerError, "OTP request failed")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Enter the code sent to your phone"})
}

// VerifyOTP checks the code and returns an access token.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	session, err := h.service.VerifyOTP(c.UserContext(), req.Phone, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrPhoneRequired):
			return fiber.NewError(http.StatusBadRequest, "phone and otp required")
		case errors.Is(err, ErrInvalidOTP), errors.Is(err, ErrOTPExpired):
			return fiber.NewError(http.StatusUnauthorized, "Invalid OTP")
		default:
			return fiber.NewError(http.StatusInternalServerError, "login failed")
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":    "Authenticated",
		"token":      session.Token,
		"expires_in": session.ExpiresIn,
	})
}

// Me echoes the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := h.users.Find(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "user not found")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":    user.ID,
		"phone":      user.Phone,
		"role":       user.Role,
		"created_at": user.CreatedAt,
	})
}
