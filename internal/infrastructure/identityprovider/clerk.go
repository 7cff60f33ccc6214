// Package identityprovider resolves user profiles from Clerk.
package identityprovider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tierhub/backend/internal/domain/identity"
	"github.com/tierhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.clerk.com"
	maxProfileBody = 1 << 20
)

// ClerkConfig configures the Clerk backend API client
type ClerkConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// ClerkClient implements identity.ProfileProvider against the Clerk backend API
type ClerkClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClerkClient creates a new ClerkClient. A nil httpClient gets one bounded by cfg.Timeout.
func NewClerkClient(cfg ClerkConfig, httpClient *http.Client, logger *zap.Logger) (*ClerkClient, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("clerk: secret key is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("clerk: invalid base url %q: %w", cfg.BaseURL, err)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClerkClient{
		baseURL:    base,
		secretKey:  cfg.SecretKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// FetchProfile loads the email and display name of a Clerk user.
// The primary email address wins; otherwise the first one listed is used.
func (c *ClerkClient) FetchProfile(ctx context.Context, externalID string) (*identity.Profile, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, identity.ErrUserNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/users/"+url.PathEscape(externalID), nil)
	if err != nil {
		return nil, fmt.Errorf("clerk: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Clerk request failed", zap.String("clerk_id", externalID), zap.Error(err))
		return nil, shared.NewGatewayError("Identity provider is unavailable, please retry", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return nil, shared.NewGatewayError("Identity provider response could not be read", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, identity.ErrUserNotFound
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn("Clerk returned an error",
			zap.String("clerk_id", externalID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", gjson.GetBytes(body, "errors.0.message").String()))
		return nil, shared.NewGatewayError("Identity provider rejected the request",
			fmt.Errorf("clerk: unexpected status %d", resp.StatusCode))
	}

	if !gjson.ValidBytes(body) {
		return nil, shared.NewGatewayError("Identity provider returned malformed data", fmt.Errorf("clerk: invalid json"))
	}
	return parseProfile(body), nil
}

func parseProfile(body []byte) *identity.Profile {
	user := gjson.ParseBytes(body)

	email := ""
	primary := user.Get("primary_email_address_id").String()
	if primary != "" {
		email = user.Get(`email_addresses.#(id=="` + primary + `").email_address`).String()
	}
	if email == "" {
		email = user.Get("email_addresses.0.email_address").String()
	}

	name := strings.TrimSpace(user.Get("first_name").String() + " " + user.Get("last_name").String())
	return &identity.Profile{Email: email, Name: name}
}

var _ identity.ProfileProvider = (*ClerkClient)(nil)
