// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/epicea-im/epicea/lib/ref"
)

// IdentityClientConfig holds configuration for creating an IdentityClient.
type IdentityClientConfig struct {
	// IdentityServerURL is the base URL of the identity server
	// (e.g., "https://matrix.agent.gouv.fr").
	IdentityServerURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// IdentityClient talks to the deployment's identity server. It covers
// the two remote lookups the resolution core needs: mapping an email
// to an existing account, and discovering which homeserver serves an
// email's domain.
//
// Both operations distinguish "no match" (an absent result with a nil
// error) from transport failure (a non-nil error). Neither retries —
// retry policy, if any, belongs to the caller.
type IdentityClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewIdentityClient creates a new identity server client.
func NewIdentityClient(config IdentityClientConfig) (*IdentityClient, error) {
	if config.IdentityServerURL == "" {
		return nil, fmt.Errorf("messaging: IdentityServerURL is required")
	}
	if _, err := url.Parse(config.IdentityServerURL); err != nil {
		return nil, fmt.Errorf("messaging: invalid IdentityServerURL %q: %w", config.IdentityServerURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &IdentityClient{
		baseURL:    strings.TrimRight(config.IdentityServerURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Host returns the identity server's host name, as expected by the
// id_server field of a third-party invite.
func (c *IdentityClient) Host() string {
	parsed, err := url.Parse(c.baseURL)
	if err != nil || parsed.Host == "" {
		return c.baseURL
	}
	return parsed.Host
}

// lookupResponse is the identity API lookup result. The server returns
// an empty object when the address maps to no account.
type lookupResponse struct {
	Address string     `json:"address,omitempty"`
	Medium  string     `json:"medium,omitempty"`
	MXID    ref.UserID `json:"mxid,omitempty"`
}

// LookupAccountByEmail asks the identity server whether an account is
// bound to the given email. Returns (userID, true, nil) on a match,
// (zero, false, nil) when the address is known to no account, and a
// non-nil error on transport or server failure — "not found" is never
// conflated with "error".
func (c *IdentityClient) LookupAccountByEmail(ctx context.Context, email ref.Email) (ref.UserID, bool, error) {
	query := url.Values{}
	query.Set("medium", "email")
	query.Set("address", email.String())

	body, err := doServerRequest(ctx, c.httpClient, c.baseURL, http.MethodGet, "/_matrix/identity/api/v1/lookup", nil, nil, query)
	if err != nil {
		return ref.UserID{}, false, fmt.Errorf("messaging: identity lookup for %q failed: %w", email, err)
	}

	var response lookupResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.UserID{}, false, fmt.Errorf("messaging: failed to parse identity lookup response: %w", err)
	}

	if response.MXID.IsZero() {
		return ref.UserID{}, false, nil
	}
	// The server echoes the queried address; a response bound to a
	// different address is a server bug and treated as no match.
	if response.Address != "" && !strings.EqualFold(response.Address, email.String()) {
		c.logger.Warn("identity lookup returned mismatched address",
			"requested", email,
			"returned", response.Address,
		)
		return ref.UserID{}, false, nil
	}
	return response.MXID, true, nil
}

// platformResponse is the identity API info result. The hs field is
// empty when no homeserver claims the email's domain.
type platformResponse struct {
	Homeserver string `json:"hs"`
}

// DiscoverPlatform resolves the homeserver responsible for an email's
// domain. Returns (info, true, nil) when a homeserver claims the
// domain, (zero, false, nil) when none does — the legitimate "this
// email is not onboarded" case — and a non-nil error on transport or
// server failure.
func (c *IdentityClient) DiscoverPlatform(ctx context.Context, email ref.Email) (PlatformInfo, bool, error) {
	query := url.Values{}
	query.Set("medium", "email")
	query.Set("address", email.String())

	body, err := doServerRequest(ctx, c.httpClient, c.baseURL, http.MethodGet, "/_matrix/identity/api/v1/info", nil, nil, query)
	if err != nil {
		return PlatformInfo{}, false, fmt.Errorf("messaging: platform discovery for %q failed: %w", email, err)
	}

	var response platformResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return PlatformInfo{}, false, fmt.Errorf("messaging: failed to parse platform info response: %w", err)
	}

	if response.Homeserver == "" {
		return PlatformInfo{}, false, nil
	}
	homeserver, err := ref.ParseServerName(response.Homeserver)
	if err != nil {
		return PlatformInfo{}, false, fmt.Errorf("messaging: platform info reported invalid homeserver: %w", err)
	}
	return PlatformInfo{Homeserver: homeserver}, true, nil
}
