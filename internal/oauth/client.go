// Package oauth fetches and caches the bearer credential used for outbound
// calls. The token is cached in the shared store with a TTL derived from the
// provider's declared expiry minus a safety margin, so one fetch happens per
// cache miss and never speculatively.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dejobratic/catalog/internal/cache"
	"github.com/dejobratic/catalog/internal/metrics"
	"github.com/dejobratic/catalog/internal/retry"
)

const tokenCacheKey = "oauth2:access_token"

// ErrAuthFailed is returned when the credential fetch fails after the
// client's own retry wrapper. No outbound request can proceed without a
// token, so callers surface this as a hard failure.
var ErrAuthFailed = errors.New("oauth: authentication failed")

// Config holds the client-credentials grant parameters.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string

	// SafetyMargin is subtracted from the declared expiry when computing the
	// cache TTL, so a cached token is never served right at its expiry edge.
	SafetyMargin time.Duration

	// Timeout bounds a single token fetch.
	Timeout time.Duration

	// MaxAttempts and BaseDelay control the fetch retry policy.
	MaxAttempts int
	BaseDelay   time.Duration
}

// Client caches the access token in the shared store and refreshes it
// transparently on miss.
type Client struct {
	cfg      Config
	http     *http.Client
	store    cache.Store
	registry *metrics.Registry
	logger   *slog.Logger
}

// NewClient wires the credential cache.
func NewClient(cfg Config, store cache.Store, registry *metrics.Registry, logger *slog.Logger) *Client {
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		store:    store,
		registry: registry,
		logger:   logger,
	}
}

// Token returns the cached access token, fetching a fresh one on miss.
func (c *Client) Token(ctx context.Context) (string, error) {
	if cached, ok, _ := c.store.Get(ctx, tokenCacheKey); ok {
		c.registry.RecordTokenCacheHit()
		return string(cached), nil
	}

	c.registry.RecordTokenFetch()

	token, expiresIn, err := c.fetch(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "token fetch failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	if ttl := expiresIn - c.cfg.SafetyMargin; ttl > 0 {
		_ = c.store.Set(ctx, tokenCacheKey, []byte(token), ttl)
	}
	return token, nil
}

// Invalidate deletes the cached token unconditionally, forcing the next
// Token call to refetch.
func (c *Client) Invalidate(ctx context.Context) error {
	c.registry.RecordTokenRefresh()
	return c.store.Delete(ctx, tokenCacheKey)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (c *Client) fetch(ctx context.Context) (string, time.Duration, error) {
	cfg := retry.Config{
		MaxAttempts: c.cfg.MaxAttempts,
		BaseDelay:   c.cfg.BaseDelay,
		Jitter:      0.2,
		Retryable:   retryableFetchError,
		Logger:      c.logger,
	}

	resp, err := retry.Do(ctx, cfg, c.requestToken)
	if err != nil {
		return "", 0, err
	}
	return resp.AccessToken, time.Duration(resp.ExpiresIn) * time.Second, nil
}

func (c *Client) requestToken(ctx context.Context) (tokenResponse, error) {
	var zero tokenResponse

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return zero, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("post token request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return zero, &statusError{code: res.StatusCode}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return zero, fmt.Errorf("read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return zero, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return zero, errors.New("token response missing access_token")
	}
	return tr, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("identity provider returned status %d", e.code)
}

// retryableFetchError retries network-level failures and provider rate
// limiting; any other provider response is final.
func retryableFetchError(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests
	}
	return true
}
