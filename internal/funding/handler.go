package funding

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jeezpay/jeezpay/internal/ledger"
	"github.com/jeezpay/jeezpay/internal/wallet"
)

// Handler exposes the privileged credit endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type creditRequest struct {
	UserID      string          `json:"user_id"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Credit injects funds into a user's wallet. Admin only.
func (h *Handler) Credit(c *fiber.Ctx) error {
	var req creditRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	res, err := h.service.Credit(c.UserContext(), CreditInput{
		AdminID:      uid,
		TargetUserID: req.UserID,
		Currency:     req.Currency,
		Amount:       req.Amount,
		Description:  req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAdmin):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrInvalidAmount),
			errors.Is(err, ErrTargetRequired),
			errors.Is(err, wallet.ErrCurrencyRequired),
			errors.Is(err, ledger.ErrNonPositiveAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrTargetNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ledger.ErrWalletNotFound):
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		default:
			return fiber.NewError(http.StatusInternalServerError, "credit failed")
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":     "Wallet credited",
		"currency":    res.Currency,
		"new_balance": res.NewBalance.String(),
	})
}
