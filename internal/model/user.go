package model

import "time"

// User roles.
const (
	RoleCustomer = "customer"
	RoleDriver   = "driver"
	RoleAdmin    = "admin"
	RoleOwner    = "owner"
)

// IsStaff reports whether the role manages orders on behalf of the
// business rather than owning them as a customer.
func IsStaff(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}

type User struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	PasswordHash []byte    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
