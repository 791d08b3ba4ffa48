package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound means no session row exists for the ID.
var ErrSessionNotFound = errors.New("session not found")

// Session is one authenticated browser/device session. The ID doubles as the
// opaque session cookie value. A terminated session (Active=false, LogoutTime
// set) is final: it is never reactivated, only eventually purged.
type Session struct {
	ID                string     `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Username          string     `json:"username"`
	LoginTime         time.Time  `json:"login_time"`
	LastActivity      time.Time  `json:"last_activity"`
	LogoutTime        *time.Time `json:"logout_time,omitempty"`
	Active            bool       `json:"active"`
	IPAddress         string     `json:"ip_address,omitempty"`
	UserAgent         string     `json:"user_agent,omitempty"`
	DeviceFingerprint string     `json:"device_fingerprint,omitempty"`
}

// Meta carries the request attributes recorded on session creation.
type Meta struct {
	IPAddress         string
	UserAgent         string
	DeviceFingerprint string
}
