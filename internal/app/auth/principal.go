package auth

import "errors"

var ErrForbidden = errors.New("auth: caller is not allowed to act on this resource")

type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Principal is the caller identity resolved by upstream middleware.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) Is(userID string) bool {
	return p.UserID != "" && p.UserID == userID
}
