// Package localstore is the on-device persistence layer.
//
// # Overview
//
// Data lives in named slots holding serialized values. A SlotRepository
// stores raw slots (SQLite or in-memory); Store layers typed access on top:
//
//   - "incomes_<key>" and "expenses_<key>" hold the JSON record collection
//     for one StorageKey and are always overwritten as a whole;
//   - "currentUser" holds the current User;
//   - one slot per preference (see models.Pref*);
//   - "guestCreatedAt", "lastSessionWasGuest" and "clearGuestOnLaunch" hold
//     the guest session marker.
//
// # Failure semantics
//
// Store never returns errors. A failed or corrupt read yields an empty
// value and a failed write is a no-op; both are logged. Corrupt slots are
// reported as ErrDataCorruption in the log.
//
// # Concurrency
//
// Writes of record collections are serialized per StorageKey, so two saves
// for the same key never interleave while different keys proceed in
// parallel.
package localstore
