package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/toshahriar/documenter/internal/model"
)

var (
	// ErrTokenExpired marks a structurally valid token past its expiry.
	// Kept separate from ErrTokenInvalid so clients can prompt a refresh,
	// though both resolve to the same HTTP outcome.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers garbled tokens and bad signatures.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrWrongTokenType is returned when a token's embedded type does not
	// match the expected use (access where refresh is required, or vice
	// versa).
	ErrWrongTokenType = errors.New("wrong token type")
)

// UserClaim is the minimal user projection embedded in every token.
type UserClaim struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
}

// TokenClaims is the full claim set carried by access and refresh tokens.
// Type discriminates the two; everything else is shared.
type TokenClaims struct {
	Type model.TokenType `json:"type"`
	User UserClaim       `json:"user"`
	jwt.RegisteredClaims
}

// TokenPair bundles a freshly minted access/refresh pair with expiries.
type TokenPair struct {
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// NewSignedToken builds and signs one HS256 JWT of the given type.
func NewSignedToken(secret string, u model.User, typ model.TokenType, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := TokenClaims{
		Type: typ,
		User: UserClaim{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Username:  u.Username,
			Email:     u.Email,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// NewTokenPair mints an access and a refresh token for the user. Both carry
// the same subject and user projection and differ only in type and TTL.
func NewTokenPair(secret string, u model.User, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	access, accessExp, err := NewSignedToken(secret, u, model.TokenTypeAccess, accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := NewSignedToken(secret, u, model.TokenTypeRefresh, refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

// VerifyToken parses raw, checks the HMAC signature and expiry, and rejects
// tokens whose type claim does not equal want. The type check is mandatory:
// without it a long-lived refresh token would double as an access token.
func VerifyToken(secret, raw string, want model.TokenType) (*TokenClaims, error) {
	claims := &TokenClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
