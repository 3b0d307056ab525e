// Package credentials validates logins against a class credential slot
// and computes slot updates. Pure logic; the class store owns reading
// and writing the slots themselves.
package credentials

import (
	"errors"
	"time"

	"github.com/classtally/classtally/internal/domain/models"
)

// Slot validity window applied on every password update.
const SlotValidity = 6 // months

// Denial reasons, in the exact priority order ValidateSlot checks them.
// A slot that is both revoked and expired reports ErrRevoked.
var (
	ErrNotConfigured = errors.New("password not configured for this role")
	ErrInvalid       = errors.New("invalid password")
	ErrRevoked       = errors.New("password has been revoked")
	ErrExpired       = errors.New("password has expired")
)

// ValidateSlot checks a supplied password against a credential slot.
// Returns nil when the login may proceed.
func ValidateSlot(slot models.CredentialSlot, supplied string, now time.Time) error {
	if slot.Password == "" {
		return ErrNotConfigured
	}
	if supplied != slot.Password {
		return ErrInvalid
	}
	if slot.Revoked {
		return ErrRevoked
	}
	if slot.Expires != nil && now.After(*slot.Expires) {
		return ErrExpired
	}
	return nil
}

// Refresh returns the slot state after a password update: the new
// password, a fresh expiry six calendar months out, and the revoked flag
// cleared regardless of the slot's prior state.
func Refresh(password string, now time.Time) models.CredentialSlot {
	expires := now.AddDate(0, SlotValidity, 0)
	return models.CredentialSlot{
		Password: password,
		Expires:  &expires,
		Revoked:  false,
	}
}

// Revoke returns the slot with only the revoked flag raised. Password
// and expiry are left untouched; revocation is one-way, cleared only by
// a full password update (Refresh).
func Revoke(slot models.CredentialSlot) models.CredentialSlot {
	slot.Revoked = true
	return slot
}
