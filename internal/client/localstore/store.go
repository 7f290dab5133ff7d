package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
	"github.com/dmitrijs2005/spendwise/internal/dbx"
	"github.com/dmitrijs2005/spendwise/internal/logging"
)

// ErrDataCorruption marks a slot whose content could not be decoded.
var ErrDataCorruption = errors.New("local data corrupted")

const (
	slotCurrentUser         = "currentUser"
	slotGuestCreatedAt      = "guestCreatedAt"
	slotLastSessionWasGuest = "lastSessionWasGuest"
	slotClearGuestOnLaunch  = "clearGuestOnLaunch"
)

// RecordsSlot names the slot holding kind's collection for key.
func RecordsSlot(kind models.RecordKind, key models.StorageKey) string {
	return string(kind) + "_" + string(key)
}

// Store gives typed, failure-tolerant access to the slots.
type Store struct {
	slots  SlotRepository
	locks  *dbx.KeyedMutex
	logger logging.Logger
}

func NewStore(slots SlotRepository, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{slots: slots, locks: dbx.NewKeyedMutex(), logger: logger.With("component", "localstore")}
}

// LoadRecords returns the stored collection, or an empty one when nothing
// is stored or the slot cannot be read.
func (s *Store) LoadRecords(ctx context.Context, kind models.RecordKind, key models.StorageKey) []models.Record {
	slot := RecordsSlot(kind, key)
	raw, err := s.slots.Get(ctx, slot)
	if err != nil {
		s.logger.Warn(ctx, "records read failed", "slot", slot, "err", err)
		return []models.Record{}
	}
	if raw == nil {
		return []models.Record{}
	}

	var records []models.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Error(ctx, "records slot unreadable", "slot", slot, "err", errors.Join(ErrDataCorruption, err))
		return []models.Record{}
	}
	if records == nil {
		records = []models.Record{}
	}
	return records
}

// SaveRecords overwrites the whole collection for key.
func (s *Store) SaveRecords(ctx context.Context, kind models.RecordKind, key models.StorageKey, records []models.Record) {
	slot := RecordsSlot(kind, key)
	if records == nil {
		records = []models.Record{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		s.logger.Error(ctx, "records encode failed", "slot", slot, "err", err)
		return
	}

	s.locks.WithLock(string(key), func() {
		if err := s.slots.Set(ctx, slot, raw); err != nil {
			s.logger.Error(ctx, "records write failed", "slot", slot, "err", err)
		}
	})
}

// ClearAll empties both collections for key.
func (s *Store) ClearAll(ctx context.Context, key models.StorageKey) {
	s.locks.WithLock(string(key), func() {
		err := s.slots.Delete(ctx, RecordsSlot(models.KindIncome, key), RecordsSlot(models.KindExpense, key))
		if err != nil {
			s.logger.Error(ctx, "clear failed", "key", key, "err", err)
		}
	})
}

// LoadUser returns the persisted user or nil.
func (s *Store) LoadUser(ctx context.Context) *models.User {
	raw, err := s.slots.Get(ctx, slotCurrentUser)
	if err != nil {
		s.logger.Warn(ctx, "user read failed", "err", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		s.logger.Error(ctx, "user slot unreadable", "err", errors.Join(ErrDataCorruption, err))
		return nil
	}
	return &u
}

// SaveUser persists u; nil clears the slot.
func (s *Store) SaveUser(ctx context.Context, u *models.User) {
	if u == nil {
		s.deleteSlots(ctx, slotCurrentUser)
		return
	}
	raw, err := json.Marshal(u)
	if err != nil {
		s.logger.Error(ctx, "user encode failed", "err", err)
		return
	}
	s.setSlot(ctx, slotCurrentUser, raw)
}

// LoadGuestMarker reads the guest marker; missing parts are zero values.
func (s *Store) LoadGuestMarker(ctx context.Context) models.GuestSessionMarker {
	var m models.GuestSessionMarker
	if v, ok := s.LoadPreference(ctx, slotGuestCreatedAt); ok {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			s.logger.Error(ctx, "guest marker unreadable", "err", errors.Join(ErrDataCorruption, err))
		} else {
			m.CreatedAt = t
		}
	}
	m.LastSessionWasGuest = s.loadBool(ctx, slotLastSessionWasGuest, false)
	m.ClearOnNextLaunch = s.loadBool(ctx, slotClearGuestOnLaunch, false)
	return m
}

// SaveGuestMarker writes every marker field.
func (s *Store) SaveGuestMarker(ctx context.Context, m models.GuestSessionMarker) {
	if m.CreatedAt.IsZero() {
		s.deleteSlots(ctx, slotGuestCreatedAt)
	} else {
		s.SavePreference(ctx, slotGuestCreatedAt, m.CreatedAt.UTC().Format(time.RFC3339Nano))
	}
	s.SavePreference(ctx, slotLastSessionWasGuest, strconv.FormatBool(m.LastSessionWasGuest))
	s.SavePreference(ctx, slotClearGuestOnLaunch, strconv.FormatBool(m.ClearOnNextLaunch))
}

// ClearGuestMarker removes the marker entirely.
func (s *Store) ClearGuestMarker(ctx context.Context) {
	s.deleteSlots(ctx, slotGuestCreatedAt, slotLastSessionWasGuest, slotClearGuestOnLaunch)
}

// LoadPreference returns a scalar slot and whether it was present.
func (s *Store) LoadPreference(ctx context.Context, name string) (string, bool) {
	raw, err := s.slots.Get(ctx, name)
	if err != nil {
		s.logger.Warn(ctx, "preference read failed", "name", name, "err", err)
		return "", false
	}
	if raw == nil {
		return "", false
	}
	return string(raw), true
}

// SavePreference writes a scalar slot.
func (s *Store) SavePreference(ctx context.Context, name, value string) {
	s.setSlot(ctx, name, []byte(value))
}

// DeletePreference removes a scalar slot.
func (s *Store) DeletePreference(ctx context.Context, name string) {
	s.deleteSlots(ctx, name)
}

func (s *Store) loadBool(ctx context.Context, name string, def bool) bool {
	v, ok := s.LoadPreference(ctx, name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		s.logger.Warn(ctx, "preference unreadable", "name", name, "err", errors.Join(ErrDataCorruption, err))
		return def
	}
	return b
}

func (s *Store) setSlot(ctx context.Context, name string, raw []byte) {
	if err := s.slots.Set(ctx, name, raw); err != nil {
		s.logger.Error(ctx, "slot write failed", "slot", name, "err", err)
	}
}

func (s *Store) deleteSlots(ctx context.Context, names ...string) {
	if err := s.slots.Delete(ctx, names...); err != nil {
		s.logger.Error(ctx, "slot delete failed", "slots", names, "err", err)
	}
}
