// Package identity implements the token exchanger against a
// Keycloak-style OpenID Connect provider.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// grantTokenExchange is the OAuth 2 token exchange grant type.
const grantTokenExchange = "urn:ietf:params:oauth:grant-type:token-exchange"

// Client exchanges subject tokens for workspace-scoped tokens.
type Client struct {
	tokenURL     string
	clientID     string
	clientSecret string
	http         *http.Client
	log          zerolog.Logger
}

// Config configures the identity provider connection.
type Config struct {
	BaseURL      string
	Realm        string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// New creates a token exchange client.
func New(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		tokenURL:     fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", strings.TrimSuffix(cfg.BaseURL, "/"), cfg.Realm),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		http:         &http.Client{Timeout: timeout},
		log:          logger,
	}
}

// Exchange swaps the subject token for an access token with the given
// scope.
func (c *Client) Exchange(ctx context.Context, subjectToken, scope string) (string, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {grantTokenExchange},
		"subject_token": {subjectToken},
	}
	if scope != "" {
		form.Set("scope", scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read exchange response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("token exchange rejected")
		return "", fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode exchange response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("exchange response missing access_token")
	}
	return payload.AccessToken, nil
}
