package model

import "time"

// Session records one authenticated device/browser instance. Its lifetime
// is bounded by ExpiresAt or explicit revocation, independent of any token
// the device still holds.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	Device       string    `json:"device"`
	IPAddress    string    `json:"ip_address"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
