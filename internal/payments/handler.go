package payments

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jeezpay/jeezpay/internal/ledger"
	"github.com/jeezpay/jeezpay/internal/wallet"
)

// Handler exposes the transfer endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	Phone       string          `json:"phone"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Transfer processes a wallet-to-wallet transfer for the authenticated user.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	res, err := h.service.Transfer(c.UserContext(), TransferInput{
		SenderID:      uid,
		ReceiverPhone: req.Phone,
		Currency:      req.Currency,
		Amount:        req.Amount,
		Description:   req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount),
			errors.Is(err, ErrReceiverRequired),
			errors.Is(err, wallet.ErrCurrencyRequired),
			errors.Is(err, ledger.ErrNonPositiveAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, "insufficient funds")
		case errors.Is(err, ErrReceiverNotFound):
			return fiber.NewError(http.StatusNotFound, "receiver not found")
		case errors.Is(err, ErrSelfTransfer):
			return fiber.NewError(http.StatusConflict, "SELF_TRANSFER")
		default:
			return fiber.NewError(http.StatusInternalServerError, "transfer failed")
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"currency":         res.Currency,
		"sender_balance":   res.SenderBalance.String(),
		"receiver_balance": res.ReceiverBalance.String(),
	})
}
