package fmc

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/netadapt/fmc-mcp/config"
)

const (
	generateTokenPath = "/api/fmc_platform/v1/auth/generatetoken"
	refreshTokenPath  = "/api/fmc_platform/v1/auth/refreshtoken"

	accessTokenHeader  = "X-auth-access-token"
	refreshTokenHeader = "X-auth-refresh-token"
	domainUUIDHeader   = "DOMAIN_UUID"

	// globalDomainUUID is the well-known UUID of the Global domain,
	// used when no domain is configured or discovered.
	globalDomainUUID = "e276abec-e0f2-11e3-8169-6d9ed49b625f"

	// maxRefreshes is how many consecutive token refreshes FMC allows
	// before a full re-authentication is required.
	maxRefreshes = 3

	defaultRetryAfter = 60
)

// Client is a client for the Cisco FMC REST API. It owns the HTTP
// session, the authentication state machine, and pagination, and runs
// every outbound request through a token-bucket rate limiter and a
// bounded-concurrency governor.
type Client struct {
	cfg    config.FMCConfig
	logger zerolog.Logger

	httpClient *http.Client
	limiter    *RateLimiter
	governor   *Governor
	pageSize   int
	baseURL    string

	// mu guards the session credentials below. The cooperative model the
	// API was designed around tolerates a duplicate refresh after
	// concurrent 401s; the mutex only makes the field replacement itself
	// well-defined, it does not serialize refreshes end to end.
	mu           sync.Mutex
	connected    bool
	accessToken  string
	refreshToken string
	refreshCount int
	domainUUID   string
}

// NewClient creates an FMC client from connection settings. No network
// activity happens until Connect.
func NewClient(cfg config.FMCConfig, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		logger:     logger,
		limiter:    NewRateLimiter(cfg.RateLimit, float64(cfg.RateLimit)/60, logger),
		governor:   NewGovernor(cfg.MaxConnections),
		pageSize:   defaultPageSize,
		baseURL:    fmt.Sprintf("https://%s", cfg.Host),
		domainUUID: cfg.DomainUUID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the FMC base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DomainUUID returns the session's domain UUID: the configured value if
// set, else the value discovered during authentication, else the Global
// domain default.
func (c *Client) DomainUUID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.domainUUID != "" {
		return c.domainUUID
	}
	return globalDomainUUID
}

// Connect establishes the HTTP session and authenticates. It is a no-op
// when already connected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: time.Duration(c.cfg.Timeout) * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !c.cfg.VerifySSL,
				},
				MaxConnsPerHost:     c.cfg.MaxConnections,
				MaxIdleConnsPerHost: 5,
			},
		}
	}
	c.connected = true
	c.mu.Unlock()

	if err := c.authenticate(ctx); err != nil {
		c.Close()
		return err
	}
	return nil
}

// Close tears down the session and clears all credential state. Safe to
// call repeatedly.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return
	}
	c.httpClient.CloseIdleConnections()
	c.connected = false
	c.accessToken = ""
	c.refreshToken = ""
	c.refreshCount = 0
	c.logger.Info().Msg("FMC client connection closed")
}

// authenticate performs the Basic-Auth token bootstrap.
func (c *Client) authenticate(ctx context.Context) error {
	httpClient, err := c.session()
	if err != nil {
		return err
	}

	credentials := fmt.Sprintf("%s:%s", c.cfg.Username, c.cfg.Password)
	encoded := base64.StdEncoding.EncodeToString([]byte(credentials))

	c.logger.Info().Str("host", c.cfg.Host).Msg("Authenticating with FMC")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL()+generateTokenPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+encoded)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error().Int("status", resp.StatusCode).Msg("Authentication failed")
		return &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	access := resp.Header.Get(accessTokenHeader)
	refresh := resp.Header.Get(refreshTokenHeader)
	if access == "" || refresh == "" {
		return ErrMissingTokens
	}

	c.mu.Lock()
	c.accessToken = access
	c.refreshToken = refresh
	c.refreshCount = 0
	if c.domainUUID == "" {
		if discovered := resp.Header.Get(domainUUIDHeader); discovered != "" {
			c.domainUUID = discovered
			c.logger.Info().Str("domain_uuid", discovered).Msg("Discovered domain UUID")
		}
	}
	c.mu.Unlock()

	c.logger.Info().Msg("Successfully authenticated with FMC")
	return nil
}

// refreshAuthToken refreshes the access token, falling back to a full
// re-authentication when the refresh fails or the refresh ceiling has
// been reached.
func (c *Client) refreshAuthToken(ctx context.Context) error {
	httpClient, err := c.session()
	if err != nil {
		return err
	}

	c.mu.Lock()
	access := c.accessToken
	refresh := c.refreshToken
	count := c.refreshCount
	c.mu.Unlock()

	if refresh == "" {
		return c.authenticate(ctx)
	}

	if count >= maxRefreshes {
		c.logger.Warn().
			Int("max_refreshes", maxRefreshes).
			Msg("Reached max token refreshes, performing full re-authentication")
		return c.authenticate(ctx)
	}

	c.logger.Info().
		Int("refresh", count+1).
		Int("max", maxRefreshes).
		Msg("Refreshing access token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL()+refreshTokenPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create refresh request: %w", err)
	}
	if access != "" {
		req.Header.Set(accessTokenHeader, access)
	}
	req.Header.Set(refreshTokenHeader, refresh)

	resp, err := httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("Token refresh error, re-authenticating")
		return c.authenticate(ctx)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("Token refresh failed, re-authenticating")
		return c.authenticate(ctx)
	}

	c.mu.Lock()
	c.accessToken = resp.Header.Get(accessTokenHeader)
	c.refreshToken = resp.Header.Get(refreshTokenHeader)
	c.refreshCount++
	c.mu.Unlock()

	c.logger.Info().Msg("Token refreshed successfully")
	return nil
}

// session returns the HTTP client, or ErrNotConnected before Connect.
func (c *Client) session() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.httpClient == nil {
		return nil, ErrNotConnected
	}
	return c.httpClient, nil
}

// Request is the single choke point for every outbound call. It acquires
// a rate-limiter token and a connection permit, attaches the current
// access token, and retries at most once per failure category: a 401
// triggers a token refresh and one retry, a 429 sleeps for Retry-After
// (default 60s) and retries once. A second 401 or 429 propagates in the
// returned response. Transport errors propagate unmodified.
//
// The caller owns the response body.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	httpClient, err := c.session()
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	if err := c.governor.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.governor.Release()

	do := func() (*http.Response, error) {
		requestURL := c.BaseURL() + path
		if len(query) > 0 {
			requestURL += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		c.mu.Lock()
		token := c.accessToken
		c.mu.Unlock()
		req.Header.Set(accessTokenHeader, token)
		req.Header.Set("Accept", "application/json")
		return httpClient.Do(req)
	}

	resp, err := do()
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Info().Str("path", path).Msg("Received 401, attempting token refresh")
		drain(resp)
		if err := c.refreshAuthToken(ctx); err != nil {
			return nil, err
		}
		resp, err = do()
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.logger.Warn().
			Str("path", path).
			Int("retry_after_s", retryAfter).
			Msg("Rate limited by FMC, backing off")
		drain(resp)

		timer := time.NewTimer(time.Duration(retryAfter) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		resp, err = do()
		if err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// Get makes a GET request and returns the raw response.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, path, query)
}

// GetJSON makes a GET request, requires a 2xx status, and parses the
// JSON body.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodGet,
			Path:       path,
			Body:       string(body),
		}
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return result, nil
}

// parseRetryAfter parses a Retry-After header value in seconds, falling
// back to 60 when absent or unparseable.
func parseRetryAfter(value string) int {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return seconds
}

// drain discards and closes a response body so the connection can be
// reused before a retry.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
