package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeezpay/jeezpay/internal/config"
	"github.com/jeezpay/jeezpay/internal/identity"
	"github.com/jeezpay/jeezpay/internal/notification"
	"github.com/jeezpay/jeezpay/internal/wallet"
)

const otpKeyPrefix = "otp:v1:"

var (
	// ErrInvalidOTP indicates a wrong or already consumed code.
	ErrInvalidOTP = errors.New("invalid OTP")
	// ErrOTPExpired indicates no live code exists for the phone.
	ErrOTPExpired = errors.New("OTP expired or not requested")
)

// Service runs the phone/OTP login flow. Codes are bcrypt-hashed at rest in
// Redis under a TTL and consumed on first successful verification. A
// successful first login creates the user and pre-seeds the default currency
// wallet set.
type Service struct {
	cfg      config.Config
	cache    *redis.Client
	users    *identity.Service
	wallets  *wallet.Service
	notifier notification.Notifier
}

// NewService constructs the auth service.
func NewService(cfg config.Config, cache *redis.Client, users *identity.Service, wallets *wallet.Service, notifier notification.Notifier) *Service {
	return &Service{cfg: cfg, cache: cache, users: users, wallets: wallets, notifier: notifier}
}

// Session is the outcome of a verified login.
type Session struct {
	User      identity.User
	Token     string
	ExpiresIn int64
}

// RequestOTP generates a one-time code for the phone and hands it to the
// notification collaborator for delivery.
func (s *Service) RequestOTP(ctx context.Context, phone string) error {
	canonical := identity.NormalizePhone(phone)
	if canonical == "" {
		return identity.ErrPhoneRequired
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, otpKeyPrefix+canonical, hash, s.cfg.OTPTTL).Err(); err != nil {
		return fmt.Errorf("store OTP: %w", err)
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindOTP,
			Destination: canonical,
			Body:        fmt.Sprintf("Your %s code is %s", s.cfg.AppName, code),
		})
	}
	return nil
}

// VerifyOTP checks the code, consumes it, registers the user on first login,
// seeds the default currency wallets and issues an access token.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (Session, error) {
	canonical := identity.NormalizePhone(phone)
	if canonical == "" {
		return Session{}, identity.ErrPhoneRequired
	}
	if code == "" {
		return Session{}, ErrInvalidOTP
	}

	key := otpKeyPrefix + canonical
	hash, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrOTPExpired
		}
		return Session{}, fmt.Errorf("load OTP: %w", err)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(code)) != nil {
		return Session{}, ErrInvalidOTP
	}
	// One-shot: a verified code is gone even if later steps fail.
	s.cache.Del(ctx, key)

	user, err := s.users.RegisterOrFetch(ctx, canonical)
	if err != nil {
		return Session{}, err
	}
	if err := s.wallets.Seed(ctx, user.ID); err != nil {
		return Session{}, err
	}

	now := time.Now()
	exp := now.Add(s.cfg.AccessTokenTTL)
	token, err := SignHS256(map[string]any{
		"sub":   user.ID,
		"phone": user.Phone,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}, []byte(s.cfg.JWTSecret))
	if err != nil {
		return Session{}, err
	}

	return Session{User: user, Token: token, ExpiresIn: int64(time.Until(exp).Seconds())}, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
