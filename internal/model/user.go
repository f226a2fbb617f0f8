// Package model defines the data structures used throughout the application.
package model

import (
	"regexp"
	"time"
)

// Role controls authorization decisions. Registration only accepts
// RoleUser and RolePublisher; RoleAdmin is assigned out of band.
type Role string

const (
	RoleUser      Role = "user"
	RolePublisher Role = "publisher"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RolePublisher, RoleAdmin:
		return true
	}
	return false
}

// emailPattern is the basic email-shape check applied at registration and
// on detail updates. Same shape the stored records were validated against.
var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)+@\w+([.:]?\w+)+(\.[a-zA-Z0-9]{2,3})+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Location is the resolved form of the free-text address a user registers
// with. Populated by the geocoder; the raw address itself is not stored.
type Location struct {
	FormattedAddress string  `json:"formattedAddress,omitempty"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	ZipCode          string  `json:"zipCode,omitempty"`
	Country          string  `json:"country,omitempty"`
	Longitude        float64 `json:"longitude,omitempty"`
	Latitude         float64 `json:"latitude,omitempty"`
}

// User represents a registered account.
//
// PasswordHash and the reset-token fields are deliberately excluded from
// JSON output (`json:"-"`). The hash is a bcrypt digest — salted, one-way —
// and is replaced wholesale on every password change. ResetTokenHash holds
// the sha256 of an outstanding reset token; it and ResetExpiresAt are
// always set and cleared together.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Location     Location  `json:"location"`
	PasswordHash string    `json:"-"`
	// Both nil or both set — a reset is pending only while the pair exists.
	ResetTokenHash *string    `json:"-"`
	ResetExpiresAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ResetPending reports whether the user has an outstanding, unexpired
// password-reset token at the given instant.
func (u *User) ResetPending(now time.Time) bool {
	return u.ResetTokenHash != nil && u.ResetExpiresAt != nil && now.Before(*u.ResetExpiresAt)
}
