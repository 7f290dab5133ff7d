package models

import "time"

// GuestDataTTL is how long guest data may live after its first write.
const GuestDataTTL = 7 * 24 * time.Hour

// GuestSessionMarker tracks the lifetime of guest data.
type GuestSessionMarker struct {
	CreatedAt           time.Time
	LastSessionWasGuest bool
	ClearOnNextLaunch   bool
}

// Expired reports whether guest data created at CreatedAt is older than ttl.
// A zero CreatedAt never expires.
func (m GuestSessionMarker) Expired(now time.Time, ttl time.Duration) bool {
	return !m.CreatedAt.IsZero() && now.Sub(m.CreatedAt) > ttl
}
