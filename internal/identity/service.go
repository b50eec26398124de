package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrPhoneRequired indicates an empty phone was supplied.
var ErrPhoneRequired = errors.New("phone is required")

// Service manages identity lifecycle and counterparty resolution.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterOrFetch returns the user registered under the phone, creating a
// fresh account on first login. Phones are canonicalized before any lookup or
// insert so repeated logins with differently formatted strings converge on
// one account.
func (s *Service) RegisterOrFetch(ctx context.Context, phone string) (User, error) {
	canonical := NormalizePhone(phone)
	if canonical == "" {
		return User{}, ErrPhoneRequired
	}

	user, err := s.repo.FindByPhone(ctx, canonical)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	user = User{
		ID:        uuid.NewString(),
		Phone:     canonical,
		Role:      RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// A concurrent first login may have won the insert; fall back to the
		// stored row before reporting failure.
		if existing, findErr := s.repo.FindByPhone(ctx, canonical); findErr == nil {
			return existing, nil
		}
		return User{}, err
	}
	return user, nil
}

// Find returns the user with the given identifier.
func (s *Service) Find(ctx context.Context, userID string) (User, error) {
	return s.repo.FindByID(ctx, userID)
}

// Resolve finds the user owning the given phone, canonicalizing first.
func (s *Service) Resolve(ctx context.Context, phone string) (User, error) {
	canonical := NormalizePhone(phone)
	if canonical == "" {
		return User{}, ErrPhoneRequired
	}
	return s.repo.FindByPhone(ctx, canonical)
}

// IsAdmin reports whether the given user holds the admin role. Unknown users
// are never admins.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin(), nil
}
