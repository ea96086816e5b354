// Package feed calls the upstream product feed. Every call is wrapped in a
// retry policy for transient failures and gated by a shared circuit breaker;
// a circuit-open rejection fails fast and is never retried.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dejobratic/catalog/internal/breaker"
	"github.com/dejobratic/catalog/internal/metrics"
	"github.com/dejobratic/catalog/internal/oauth"
	"github.com/dejobratic/catalog/internal/retry"
)

// ErrCircuitOpen is returned when the breaker rejects a call before it
// reaches the upstream.
var ErrCircuitOpen = errors.New("feed: circuit open")

// Product is an entry from the upstream feed.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// TokenSource supplies the bearer credential for outbound calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config holds the upstream client parameters.
type Config struct {
	BaseURL string

	// CallTimeout bounds a single attempt; ClientTimeout bounds the whole
	// exchange at the transport level. CallTimeout is the tighter of the two.
	CallTimeout   time.Duration
	ClientTimeout time.Duration

	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Client is the retry- and breaker-protected feed client.
type Client struct {
	cfg      Config
	http     *http.Client
	tokens   TokenSource
	breaker  *breaker.Breaker
	registry *metrics.Registry
	logger   *slog.Logger
}

// NewClient wires the feed client. The breaker is shared state owned by the
// caller so its lifecycle outlives any single request.
func NewClient(cfg Config, tokens TokenSource, brk *breaker.Breaker, registry *metrics.Registry, logger *slog.Logger) *Client {
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.ClientTimeout},
		tokens:   tokens,
		breaker:  brk,
		registry: registry,
		logger:   logger,
	}
}

// FetchProducts retrieves the current feed. Retries happen inside a single
// breaker-gated attempt: the breaker sees one outcome for the whole sequence.
func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	start := time.Now()
	products, err := retry.Do(ctx, c.retryConfig(), func(ctx context.Context) ([]Product, error) {
		return c.fetchOnce(ctx)
	})
	c.registry.RecordUpstreamCall(time.Since(start), err != nil)

	if err != nil {
		c.breaker.OnFailure()
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	c.breaker.OnSuccess()
	return products, nil
}

// RegisterWebhook registers a callback URL with the upstream so it can push
// order events back into this service.
func (c *Client) RegisterWebhook(ctx context.Context, callbackURL string) error {
	if !c.breaker.Allow() {
		return ErrCircuitOpen
	}

	_, err := retry.Do(ctx, c.retryConfig(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.registerOnce(ctx, callbackURL)
	})
	if err != nil {
		c.breaker.OnFailure()
		return fmt.Errorf("register webhook: %w", err)
	}
	c.breaker.OnSuccess()

	c.logger.InfoContext(ctx, "webhook registered", "callback_url", callbackURL)
	return nil
}

func (c *Client) retryConfig() retry.Config {
	return retry.Config{
		MaxAttempts: c.cfg.MaxAttempts,
		BaseDelay:   c.cfg.BaseDelay,
		MaxDelay:    c.cfg.MaxDelay,
		Jitter:      0.2,
		Retryable:   retryableError,
		Logger:      c.logger,
	}
}

func (c *Client) fetchOnce(ctx context.Context) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	body, err := c.get(ctx, c.cfg.BaseURL+"/products")
	if err != nil {
		return nil, err
	}

	var products []Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}
	return products, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call feed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &statusError{code: res.StatusCode}
	}
	return io.ReadAll(res.Body)
}

func (c *Client) registerOnce(ctx context.Context, callbackURL string) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"callback_url": callbackURL,
		"events":       []string{"order.created", "order.updated"},
	})
	if err != nil {
		return fmt.Errorf("encode webhook registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/webhooks", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build registration request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call feed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &statusError{code: res.StatusCode}
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("feed returned status %d", e.code)
}

// retryableError retries network-level failures, timeouts, upstream rate
// limiting (429), and service unavailability (503). Credential failures and
// other upstream statuses are final.
func retryableError(err error) bool {
	if errors.Is(err, oauth.ErrAuthFailed) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code == http.StatusServiceUnavailable
	}
	return true
}
