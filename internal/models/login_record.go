package models

import "time"

// GeoLocation holds resolved coordinates for a login attempt. Resolution
// happens upstream; the engine never talks to a geo-IP provider itself.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	City      string  `json:"city"`
}

// LoginAttempt is the write-side view of a login: what the caller knows
// before the authentication outcome is resolved.
type LoginAttempt struct {
	UserID      string
	Identity    string // username or email as typed; may not resolve to a user
	Timestamp   time.Time
	IPAddress   string
	Location    *GeoLocation // nil when resolution failed or was unavailable
	DeviceID    string
	UserAgent   string
	MFAEnrolled bool // standing MFA enrollment for this account
}

// LoginRecord is a committed login attempt. Records are write-once: history
// is only ever appended to, never mutated in place.
type LoginRecord struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	Timestamp time.Time    `db:"attempt_time"`
	IPAddress string       `db:"ip_address"`
	Location  *GeoLocation `db:"-"`
	DeviceID  string       `db:"device_id"`
	UserAgent string       `db:"user_agent"`
	Success   bool         `db:"success"`
}

// Record converts the attempt into a committed record with the resolved
// outcome attached.
func (a *LoginAttempt) Record(id string, success bool) *LoginRecord {
	return &LoginRecord{
		ID:        id,
		UserID:    a.UserID,
		Timestamp: a.Timestamp,
		IPAddress: a.IPAddress,
		Location:  a.Location,
		DeviceID:  a.DeviceID,
		UserAgent: a.UserAgent,
		Success:   success,
	}
}

// FailedAttemptStats describes the rolling failure window for an identity.
type FailedAttemptStats struct {
	Identity    string
	Count       int
	WindowStart time.Time
	LastFailure time.Time
}
