package auth

import (
	"time"

	"github.com/zippy-delivery/zippy-console/internal/identity"
)

// Account is a stored login: staff, customer or delivery partner.
type Account struct {
	ID           string
	Name         string
	Email        string
	Role         identity.Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor converts the account into the session identity.
func (a Account) Actor() identity.Actor {
	return identity.Actor{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}
