package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jeezpay/jeezpay/internal/config"
	"github.com/jeezpay/jeezpay/internal/identity"
	"github.com/jeezpay/jeezpay/internal/ledger"
	"github.com/jeezpay/jeezpay/internal/notification"
	"github.com/jeezpay/jeezpay/internal/wallet"
)

type captureNotifier struct {
	last notification.Message
}

func (n *captureNotifier) Send(_ context.Context, msg notification.Message) error {
	n.last = msg
	return nil
}

func (n *captureNotifier) code() string {
	parts := strings.Fields(n.last.Body)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func setupAuth(t *testing.T) (*Service, ledger.Store, *captureNotifier, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := config.Config{
		AppName:           "JeezPay",
		JWTSecret:         "test-secret",
		AccessTokenTTL:    time.Hour,
		OTPTTL:            5 * time.Minute,
		DefaultCurrencies: []string{"USDT", "SDG", "SSP", "EGP", "UGX"},
	}

	store := ledger.NewInMemory()
	users := identity.NewService(identity.NewMemoryRepository())
	wallets := wallet.NewService(store, cfg.DefaultCurrencies)
	notifier := &captureNotifier{}
	svc := NewService(cfg, cache, users, wallets, notifier)

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return svc, store, notifier, cleanup
}

func TestOTPLoginSeedsWallets(t *testing.T) {
	svc, store, notifier, cleanup := setupAuth(t)
	defer cleanup()
	ctx := context.Background()

	if err := svc.RequestOTP(ctx, "+249 912 000 001"); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if notifier.last.Kind != notification.KindOTP {
		t.Fatalf("expected OTP notification, got %+v", notifier.last)
	}

	session, err := svc.VerifyOTP(ctx, "+249912000001", notifier.code())
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if session.Token == "" {
		t.Fatalf("expected an access token")
	}
	if session.User.Phone != "+249912000001" {
		t.Fatalf("expected canonical phone, got %q", session.User.Phone)
	}

	claims, err := ParseAndVerifyHS256(session.Token, []byte("test-secret"))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if sub, _ := claims["sub"].(string); sub != session.User.ID {
		t.Fatalf("token subject mismatch: %v", claims["sub"])
	}

	wallets, err := store.WalletsByUser(ctx, session.User.ID)
	if err != nil {
		t.Fatalf("wallets: %v", err)
	}
	if len(wallets) != 5 {
		t.Fatalf("expected 5 seeded wallets, got %d", len(wallets))
	}
	for _, w := range wallets {
		if !w.Balance.IsZero() {
			t.Fatalf("seeded wallet %s not zero: %s", w.Currency, w.Balance)
		}
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	svc, _, notifier, cleanup := setupAuth(t)
	defer cleanup()
	ctx := context.Background()

	if err := svc.RequestOTP(ctx, "+249912000001"); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	wrong := "000000"
	if notifier.code() == wrong {
		wrong = "000001"
	}
	if _, err := svc.VerifyOTP(ctx, "+249912000001", wrong); err != ErrInvalidOTP {
		t.Fatalf("expected invalid OTP, got %v", err)
	}
}

func TestVerifyOTPWithoutRequest(t *testing.T) {
	svc, _, _, cleanup := setupAuth(t)
	defer cleanup()

	if _, err := svc.VerifyOTP(context.Background(), "+249912000001", "123456"); err != ErrOTPExpired {
		t.Fatalf("expected expired OTP, got %v", err)
	}
}

func TestOTPIsConsumedOnVerify(t *testing.T) {
	svc, _, notifier, cleanup := setupAuth(t)
	defer cleanup()
	ctx := context.Background()

	if err := svc.RequestOTP(ctx, "+249912000001"); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	code := notifier.code()

	if _, err := svc.VerifyOTP(ctx, "+249912000001", code); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := svc.VerifyOTP(ctx, "+249912000001", code); err != ErrOTPExpired {
		t.Fatalf("expected consumed OTP to be gone, got %v", err)
	}
}
