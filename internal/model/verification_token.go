package model

import "time"

// VerificationTokenType separates the two one-time token purposes sharing
// the `verification_tokens` table. Lookups always match the type, so a
// password-reset token can never verify an email address.
type VerificationTokenType string

const (
	VerificationTokenEmail         VerificationTokenType = "email_verification"
	VerificationTokenPasswordReset VerificationTokenType = "password_reset"
)

// VerificationToken is a one-time, typed, expiring credential proving
// control of an email address or authorization to reset a password. A row
// is revoked after successful use and whenever a newer token of the same
// type is issued for the user.
type VerificationToken struct {
	ID        string                `json:"id"`
	Token     string                `json:"token"`
	Type      VerificationTokenType `json:"type"`
	ExpiresAt time.Time             `json:"expiresAt"`
	UserID    string                `json:"userId"`
	IsRevoked bool                  `json:"isRevoked"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}
