// Package identity loads and persists the current user and maps users to
// storage keys.
package identity

import (
	"context"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/logging"
)

// UserStore is the single global user slot.
type UserStore interface {
	LoadUser(ctx context.Context) *models.User
	SaveUser(ctx context.Context, u *models.User)
}

type Service struct {
	store  UserStore
	logger logging.Logger
}

func NewService(store UserStore, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{store: store, logger: logger.With("component", "identity")}
}

// LoadCurrentUser returns the persisted user, or creates and persists a new
// guest when none is stored or the stored one is invalid.
func (s *Service) LoadCurrentUser(ctx context.Context) models.User {
	if u := s.store.LoadUser(ctx); u != nil {
		err := u.Validate()
		if err == nil {
			return *u
		}
		s.logger.Warn(ctx, "discarding invalid stored user", "err", err)
	}

	g := models.NewGuestUser()
	s.store.SaveUser(ctx, &g)
	s.logger.Info(ctx, "created guest user", "id", g.ID)
	return g
}

// SaveCurrentUser persists u; nil clears the slot.
func (s *Service) SaveCurrentUser(ctx context.Context, u *models.User) {
	s.store.SaveUser(ctx, u)
}

// DeriveStorageKey maps a user to its partition. A non-guest without an
// email falls back to the guest partition.
func DeriveStorageKey(u models.User) models.StorageKey {
	if u.IsGuest || u.Email == "" {
		return models.GuestStorageKey
	}
	return models.StorageKey(u.Email)
}

// StorageKey is DeriveStorageKey with a warning for the fallback case.
func (s *Service) StorageKey(ctx context.Context, u models.User) models.StorageKey {
	if !u.IsGuest && u.Email == "" {
		s.logger.Warn(ctx, "authenticated user without email mapped to guest partition", "id", u.ID)
	}
	return DeriveStorageKey(u)
}
