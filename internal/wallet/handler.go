package wallet

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jeezpay/jeezpay/internal/ledger"
)

// Handler exposes wallet read endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type balanceResponse struct {
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

type entryResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// Balance returns the authenticated user's balance for one currency.
func (h *Handler) Balance(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	w, err := h.service.Balance(c.UserContext(), uid, c.Query("currency"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(balanceResponse{Currency: w.Currency, Balance: w.Balance.String()})
}

// Balances returns balances across all of the user's currencies.
func (h *Handler) Balances(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	wallets, err := h.service.Balances(c.UserContext(), uid)
	if err != nil {
		return mapError(err)
	}
	out := make([]balanceResponse, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, balanceResponse{Currency: w.Currency, Balance: w.Balance.String()})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"balances": out})
}

// History returns the most recent ledger entries for one currency wallet.
func (h *Handler) History(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)

	limit := ledger.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return fiber.NewError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	entries, err := h.service.History(c.UserContext(), uid, c.Query("currency"), limit)
	if err != nil {
		return mapError(err)
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:          e.ID,
			Kind:        string(e.Kind),
			Amount:      e.Amount.String(),
			Description: e.Description,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrCurrencyRequired):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	default:
		return fiber.NewError(http.StatusInternalServerError, "wallet lookup failed")
	}
}
