// Package docusign is the REST client for the signing provider: JWT-grant
// authentication with a Redis-cached shared token, consent URL generation
// and envelope dispatch.
package docusign

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/toshahriar/documenter/internal/config"
	"github.com/toshahriar/documenter/internal/model"
)

// tokenCacheKey is the fixed Redis key for the provider token. The token is
// a single shared credential, not per-user, so one key serves the process.
const tokenCacheKey = "docusign:auth"

// ErrNotConfigured is returned when dispatch is attempted without provider
// credentials in the environment.
var ErrNotConfigured = errors.New("docusign: credentials not configured")

// Client talks to the signing provider. The Redis client may be nil, in
// which case every call fetches a fresh token.
type Client struct {
	cfg   config.DocusignConfig
	http  *http.Client
	redis *redis.Client
}

func NewClient(cfg config.DocusignConfig, rdb *redis.Client) *Client {
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: 30 * time.Second},
		redis: rdb,
	}
}

// EnvelopeResult is the slice of the provider's create-envelope response
// merged into document metadata.
type EnvelopeResult struct {
	EnvelopeID     string `json:"envelopeId"`
	Status         string `json:"status"`
	StatusDateTime string `json:"statusDateTime"`
}

// AuthURL builds the consent redirect for the OAuth authorization code
// flow. state carries the initiating user's id and must round-trip through
// the callback.
func (c *Client) AuthURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("scope", "signature impersonation")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return c.oauthBase() + "/oauth/auth?" + q.Encode()
}

type cachedToken struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// Token returns the shared provider access token, from cache when present.
// Concurrent cold-cache callers may each fetch a token; the last write wins,
// which is harmless since every fetched token is valid.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.redis != nil {
		if raw, err := c.redis.Get(ctx, tokenCacheKey).Result(); err == nil {
			var t cachedToken
			if json.Unmarshal([]byte(raw), &t) == nil && t.AccessToken != "" {
				return t.AccessToken, nil
			}
		}
	}

	token, ttl, err := c.requestToken(ctx)
	if err != nil {
		return "", err
	}

	if c.redis != nil {
		b, _ := json.Marshal(cachedToken{
			AccessToken: token,
			ExpiresAt:   time.Now().Add(ttl).Unix(),
		})
		// TTL matches the token validity window so the cache never serves
		// an expired token.
		_ = c.redis.Set(ctx, tokenCacheKey, b, ttl).Err()
	}
	return token, nil
}

// InvalidateToken drops the cached provider token so the next call
// re-authenticates.
func (c *Client) InvalidateToken(ctx context.Context) {
	if c.redis != nil {
		_ = c.redis.Del(ctx, tokenCacheKey).Err()
	}
}

// requestToken performs the OAuth JWT grant: an RS256 assertion signed with
// the configured private key, exchanged at the provider token endpoint.
func (c *Client) requestToken(ctx context.Context) (string, time.Duration, error) {
	if c.cfg.ClientID == "" || c.cfg.PrivateKey == "" {
		return "", 0, ErrNotConfigured
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.cfg.PrivateKey))
	if err != nil {
		return "", 0, fmt.Errorf("docusign: parse private key: %w", err)
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":   c.cfg.ClientID,
		"sub":   c.cfg.ImpersonatedUser,
		"aud":   c.oauthHost(),
		"scope": "signature",
		"iat":   now.Unix(),
		"exp":   now.Add(c.cfg.TokenLifetime).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", 0, fmt.Errorf("docusign: sign assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.oauthBase()+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("docusign: token request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("docusign: token request failed: %s: %s", resp.Status, body)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", 0, fmt.Errorf("docusign: decode token response: %w", err)
	}
	ttl := time.Duration(out.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = c.cfg.TokenLifetime
	}
	return out.AccessToken, ttl, nil
}

// SendEnvelope dispatches the document to the provider. On any failure the
// cached token is invalidated and the error surfaces untouched; the caller
// must not have applied any document update beforehand.
func (c *Client) SendEnvelope(ctx context.Context, doc *model.Document, docBase64 string) (*EnvelopeResult, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(buildEnvelope(doc, docBase64))
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v2.1/accounts/%s/envelopes",
		strings.TrimRight(c.cfg.BasePath, "/"), c.cfg.AccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.InvalidateToken(ctx)
		return nil, fmt.Errorf("docusign: create envelope: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.InvalidateToken(ctx)
		return nil, fmt.Errorf("docusign: create envelope failed: %s: %s", resp.Status, body)
	}

	var result EnvelopeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("docusign: decode envelope response: %w", err)
	}
	return &result, nil
}

// oauthBase returns the OAuth endpoint base with a scheme. The config value
// is a bare host in production; tests may supply a full URL.
func (c *Client) oauthBase() string {
	if strings.HasPrefix(c.cfg.OAuthBasePath, "http://") || strings.HasPrefix(c.cfg.OAuthBasePath, "https://") {
		return strings.TrimRight(c.cfg.OAuthBasePath, "/")
	}
	return "https://" + c.cfg.OAuthBasePath
}

func (c *Client) oauthHost() string {
	return strings.TrimPrefix(strings.TrimPrefix(c.oauthBase(), "https://"), "http://")
}
