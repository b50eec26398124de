package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jeezpay/jeezpay/internal/funding"
	"github.com/jeezpay/jeezpay/internal/payments"
	"github.com/jeezpay/jeezpay/internal/wallet"
)

// RegisterWalletRoutes wires wallet reads and both write paths (transfer and
// admin credit).
func RegisterWalletRoutes(r fiber.Router, w *wallet.Handler, p *payments.Handler, f *funding.Handler) {
	r.Get("/wallet/balance", w.Balance)
	r.Get("/wallet/balances", w.Balances)
	r.Get("/wallet/history", w.History)
	r.Post("/wallet/transfer", p.Transfer)
	r.Post("/wallet/credit", f.Credit)
}
