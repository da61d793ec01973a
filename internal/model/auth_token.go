package model

import "time"

// TokenType discriminates the two JWT flavours issued by the API. The value
// is embedded in the token claims and checked on every verification so an
// access token can never pass where a refresh token is expected.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// AuthToken models a row in the `auth_tokens` table. One row is created per
// login; a refresh reuses the row and only replaces the access token. Rows
// are revoked, never deleted, so the audit trail survives logout.
type AuthToken struct {
	ID                    string    `json:"id"`
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	UserID                string    `json:"userId"`
	IsRevoked             bool      `json:"isRevoked"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}
