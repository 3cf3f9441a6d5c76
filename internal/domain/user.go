package domain

import "time"

type Role string

const (
	RoleClient        Role = "client"
	RoleBusinessOwner Role = "business_owner"
	RoleAdmin         Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleBusinessOwner, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	Phone        string
	Address      string
	IsApproved   bool
	CreatedAt    time.Time
}

// CanActAs reports whether the user passes a guard for role. Business owners
// only count once an admin approved them.
func (u User) CanActAs(role Role) bool {
	if u.Role != role {
		return false
	}
	if role == RoleBusinessOwner {
		return u.IsApproved
	}
	return true
}
