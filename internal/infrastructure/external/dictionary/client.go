package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/pkg/circuitbreaker"
	"github.com/margo-hub/margo-learning-hub/pkg/retry"
)

// DefaultBaseURL is the Yandex Dictionary service endpoint.
const DefaultBaseURL = "https://dictionary.yandex.net/api/v1/dicservice.json"

// Translation directions supported by the lookup feature.
const (
	DirectionEnRu = "en-ru"
	DirectionRuEn = "ru-en"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the dictionary API client.
type ClientConfig struct {
	// BaseURL is the dictionary API base URL
	BaseURL string

	// APIKey is the dictionary service API key
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL:           DefaultBaseURL,
		APIKey:            apiKey,
		Timeout:           10 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Yandex Dictionary API client.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
}

// NewClient creates a new dictionary API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	logger := config.Logger
	breaker := circuitbreaker.DictionaryAPIBreaker(func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state change",
			slog.String("breaker", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		logger:      logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		breaker:     breaker,
		retrier:     retry.DictionaryRetrier(),
	}
}

// Lookup translates a word or short phrase in the given direction
// ("en-ru" or "ru-en").
func (c *Client) Lookup(ctx context.Context, text, direction string) (*LookupResponse, error) {
	if text == "" {
		return nil, shared.WrapError("dictionary", "Lookup", shared.ErrEmptyValue, "text cannot be empty", nil)
	}
	switch direction {
	case DirectionEnRu, DirectionRuEn:
	default:
		return nil, shared.WrapError("dictionary", "Lookup", shared.ErrInvalidInput, fmt.Sprintf("unsupported direction %q", direction), nil)
	}

	if err := c.rateLimiter.Allow(ctx); err != nil {
		return nil, shared.ErrDictionaryRateLimited
	}

	params := url.Values{}
	params.Set("key", c.config.APIKey)
	params.Set("lang", direction)
	params.Set("text", text)
	fullURL := c.config.BaseURL + "/lookup?" + params.Encode()

	start := time.Now()
	var result *LookupResponse

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			resp, err := c.doLookup(ctx, fullURL)
			if err != nil {
				return err
			}
			result = resp
			return nil
		})
	})
	if err != nil {
		c.logger.Error("dictionary lookup failed",
			slog.String("direction", direction),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		if shared.IsExternalService(err) || shared.IsValidation(err) {
			return nil, err
		}
		return nil, shared.WrapError("dictionary", "Lookup", shared.ErrServiceUnavailable, "dictionary API is unavailable", err)
	}

	c.logger.Debug("dictionary lookup",
		slog.String("direction", direction),
		slog.Int("definitions", len(result.Def)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (c *Client) doLookup(ctx context.Context, fullURL string) (*LookupResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapAPIError(resp.StatusCode, body)
	}

	return ParseLookupResponse(body)
}

// mapAPIError classifies non-200 responses. Quota errors feed back into the
// rate limiter; key errors are permanent and must not be retried.
func (c *Client) mapAPIError(status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	switch status {
	case http.StatusUnauthorized, http.StatusPaymentRequired:
		return retry.Permanent(shared.WrapError("dictionary", "Lookup", shared.ErrUnauthorized,
			fmt.Sprintf("invalid or blocked API key: %s", apiErr.Message), nil))
	case http.StatusForbidden, http.StatusTooManyRequests:
		c.rateLimiter.RecordRateLimitHit()
		return retry.Permanent(shared.ErrDictionaryRateLimited)
	case http.StatusRequestEntityTooLarge:
		return retry.Permanent(shared.WrapError("dictionary", "Lookup", shared.ErrInvalidInput, "text too long", nil))
	case http.StatusNotImplemented:
		return retry.Permanent(shared.WrapError("dictionary", "Lookup", shared.ErrInvalidInput, "language pair not supported", nil))
	default:
		return retry.Retryable(fmt.Errorf("dictionary API status %d: %s", status, apiErr.Message))
	}
}

// ParseLookupResponse decodes a raw lookup payload.
func ParseLookupResponse(body []byte) (*LookupResponse, error) {
	var resp LookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, retry.Permanent(shared.WrapError("dictionary", "Parse", shared.ErrInvalidInput, "invalid response from dictionary API", err))
	}
	return &resp, nil
}

// BreakerState exposes the circuit state for health reporting.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}
