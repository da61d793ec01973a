package model

import "time"

// DocusignIntegration records whether a user has authorized the signing
// provider. At most one row exists per user; the OAuth callback payload is
// stored whole and replaced whole on re-authorization.
type DocusignIntegration struct {
	ID        string    `json:"id"`
	Metadata  JSON      `json:"metadata"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
