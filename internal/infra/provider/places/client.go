// Package places implements the places photo API client.
//
// The API resolves opaque photo references to image bytes. Every download
// costs money and counts against a rate limit, so the client is guarded by a
// circuit breaker and callers are expected to dedupe through the two-tier
// cache before reaching it.
package places

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"photo-ingest-service/internal/domain"
	"photo-ingest-service/internal/infra/provider"
)

// Name is the provider identifier and the namespace segment of storage keys.
const Name = "places"

// photoEndpoint is the API path resolving a reference to image bytes.
const photoEndpoint = "/v1/photo"

// Client implements domain.PhotoSource for the places photo API.
type Client struct {
	client   *resty.Client
	cb       *gobreaker.CircuitBreaker[*resty.Response]
	apiKey   string
	maxWidth int
	logger   *zap.Logger
}

// Config holds places client settings beyond the shared HTTP config.
type Config struct {
	provider.ClientConfig
	APIKey   string
	MaxWidth int
}

// New creates a places photo client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 1600
	}

	return &Client{
		client:   provider.NewRestyClient(cfg.ClientConfig),
		cb:       provider.NewCircuitBreaker[*resty.Response](Name, cfg.CB, logger),
		apiKey:   cfg.APIKey,
		maxWidth: cfg.MaxWidth,
		logger:   logger,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return Name
}

// Configured reports whether the client holds an API credential. An
// unconfigured client is an infrastructure error for migration, checked once
// per invocation rather than failing every reference individually.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// PhotoURL builds the canonical download URL for a reference at the single
// fixed target resolution. One URL per reference; the cache layers above
// make sure it is fetched at most once per TTL window.
func (c *Client) PhotoURL(ref domain.PhotoReference) string {
	q := url.Values{}
	q.Set("ref", ref.ReferenceID)
	q.Set("maxwidth", strconv.Itoa(c.maxWidth))
	q.Set("key", c.apiKey)

	return c.client.BaseURL + photoEndpoint + "?" + q.Encode()
}

// Download fetches the full image body for a reference.
func (c *Client) Download(ctx context.Context, ref domain.PhotoReference) (*domain.PhotoPayload, error) {
	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		r, err := c.client.R().
			SetContext(ctx).
			SetQueryParam("ref", ref.ReferenceID).
			SetQueryParam("maxwidth", strconv.Itoa(c.maxWidth)).
			SetQueryParam("key", c.apiKey).
			Get(photoEndpoint)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("places returned status %d", r.StatusCode())
		}

		return r, nil
	})

	if err != nil {
		c.logger.Warn("places photo download failed",
			zap.String("reference_id", ref.ReferenceID),
			zap.String("state", c.cb.State().String()),
			zap.Error(err),
		)

		return nil, fmt.Errorf("downloading photo %s: %w", ref.ReferenceID, err)
	}

	body := resp.Body()
	c.logger.Debug("places photo downloaded",
		zap.String("reference_id", ref.ReferenceID),
		zap.Int("bytes", len(body)),
	)

	return &domain.PhotoPayload{
		Data:        body,
		ContentType: resp.Header().Get("Content-Type"),
	}, nil
}

// HealthCheck verifies the provider is accessible.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("health check returned status %d", resp.StatusCode())
	}

	return nil
}
