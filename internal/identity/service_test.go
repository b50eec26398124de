package identity

import (
	"context"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+249912000001", "+249912000001"},
		{"  +249 912-000-001 ", "+249912000001"},
		{"00249 (912) 000 001", "+249912000001"},
		{"0912 000 001", "0912000001"},
		{"+abc", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegisterOrFetchIsIdempotentAcrossFormats(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	first, err := svc.RegisterOrFetch(ctx, "+249 912 000 001")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.Role != RoleUser {
		t.Fatalf("expected default role %q, got %q", RoleUser, first.Role)
	}
	if first.Phone != "+249912000001" {
		t.Fatalf("expected canonical phone, got %q", first.Phone)
	}

	second, err := svc.RegisterOrFetch(ctx, "00249912000001")
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("same phone produced two users: %s and %s", first.ID, second.ID)
	}
}

func TestResolveUnknownPhone(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	if _, err := svc.Resolve(context.Background(), "+249912999999"); err != ErrUserNotFound {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestIsAdmin(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.RegisterOrFetch(ctx, "+249912000001")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	admin, err := svc.IsAdmin(ctx, user.ID)
	if err != nil || admin {
		t.Fatalf("fresh user must not be admin (admin=%v err=%v)", admin, err)
	}

	// Unknown callers are never admins.
	admin, err = svc.IsAdmin(ctx, "nope")
	if err != nil || admin {
		t.Fatalf("unknown user must not be admin (admin=%v err=%v)", admin, err)
	}
}
