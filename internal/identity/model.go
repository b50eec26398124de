package identity

import "time"

const (
	// RoleUser is the default role for self-registered wallet owners.
	RoleUser = "user"
	// RoleAdmin marks accounts permitted to inject funds via the credit endpoint.
	RoleAdmin = "admin"
)

// User represents a registered wallet owner. The ledger core only reads users
// to resolve transfer counterparties and to check the admin role.
type User struct {
	ID        string
	Phone     string
	Role      string
	CreatedAt time.Time
}

// IsAdmin reports whether the user may perform privileged balance injections.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
