package models

import (
	"fmt"

	"github.com/dmitrijs2005/spendwise/internal/common"
	"github.com/google/uuid"
)

// StorageKey partitions record collections.
type StorageKey string

// GuestStorageKey is the partition used by every guest user.
const GuestStorageKey StorageKey = "guest"

// User is the current identity, guest or authenticated.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	IsGuest     bool   `json:"isGuest"`
	Avatar      []byte `json:"avatar,omitempty"`
}

// NewGuestUser returns a guest with a fresh id.
func NewGuestUser() User {
	return User{ID: uuid.NewString(), IsGuest: true}
}

// NewAuthenticatedUser returns a signed-in user for email.
func NewAuthenticatedUser(email, displayName string) User {
	return User{ID: uuid.NewString(), Email: email, DisplayName: displayName}
}

// Validate checks that a guest carries no email.
func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: user id is empty", common.ErrValidation)
	}
	if u.IsGuest && u.Email != "" {
		return fmt.Errorf("%w: guest user with email", common.ErrValidation)
	}
	return nil
}
