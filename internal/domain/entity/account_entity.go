package entity

import (
	"time"
)

// AccountStatus gates login eligibility.
type AccountStatus string

const (
	StatusPending AccountStatus = "pending"
	StatusActive  AccountStatus = "active"
)

// Avatar holds relative storage references of the three re-encoded variants.
type Avatar struct {
	Large  string `json:"large"`
	Medium string `json:"medium"`
	Small  string `json:"small"`
}

// Account is the aggregate root for the account domain
// Passwords are stored as bcrypt hashes in PasswordHash.
// Optional profile fields are nil until set.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         *string
	PhoneNumber  *string
	LinkedIn     *string
	GitHub       *string
	Avatar       *Avatar
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the account finished email verification.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// AccountView is the outward projection of an Account. It never carries the
// password hash, session token or timestamps.
type AccountView struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Name        *string       `json:"name"`
	PhoneNumber *string       `json:"phone_number"`
	LinkedIn    *string       `json:"linkedin"`
	GitHub      *string       `json:"github"`
	Avatar      *Avatar       `json:"avatar"`
	Status      AccountStatus `json:"status"`
}

func (a *Account) View() AccountView {
	v := AccountView{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.Name,
		PhoneNumber: a.PhoneNumber,
		LinkedIn:    a.LinkedIn,
		GitHub:      a.GitHub,
		Status:      a.Status,
	}
	if a.Avatar != nil {
		av := *a.Avatar
		v.Avatar = &av
	}
	return v
}
