package entity

import "time"

// SessionPurpose tells why the token of a session was issued.
type SessionPurpose string

const (
	PurposeVerification SessionPurpose = "verification"
	PurposeLogin        SessionPurpose = "login"
)

// Session is the single live token slot of an account.
// Only a digest of the token is kept; issuing a new token replaces the slot.
type Session struct {
	AccountID string
	TokenHash string
	Purpose   SessionPurpose
	IssuedAt  time.Time
}
