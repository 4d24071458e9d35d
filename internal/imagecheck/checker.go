// Package imagecheck validates candidate photo URLs with cheap metadata-only
// probes before they are shown, stored, or migrated.
package imagecheck

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"photo-ingest-service/internal/domain"
	"photo-ingest-service/pkg/semaphore"
)

// Config holds validation settings.
type Config struct {
	// Timeout applies per probe; sibling probes are unaffected.
	Timeout time.Duration
	// MaxConcurrency bounds ValidateMany fan-out.
	MaxConcurrency int64
}

// Checker probes candidate photo URLs and classifies the outcome.
// It holds its own HTTP client and semaphore; construct one per process and
// inject it where needed.
type Checker struct {
	client  *resty.Client
	sem     *semaphore.Semaphore
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Checker. Zero config fields fall back to 5s / 3 concurrent.
func New(cfg Config, logger *zap.Logger) *Checker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 3
	}

	// No retries: a probe is a point-in-time judgment, the caller decides
	// whether to try again later.
	client := resty.New()

	return &Checker{
		client:  client,
		sem:     semaphore.New(cfg.MaxConcurrency),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Validate probes a single URL with a HEAD request and classifies the result.
// No body is transferred. Never returns an error: every failure mode maps to
// an ErrorKind on the result.
func (c *Checker) Validate(ctx context.Context, rawURL string) domain.ValidationResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.R().SetContext(ctx).Head(rawURL)
	if err != nil {
		kind := classifyTransportError(err)
		c.logger.Debug("photo probe failed",
			zap.String("url", rawURL),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)

		return domain.Invalid(kind)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return domain.Invalid(domain.HTTPErrorKind(status))
	}

	contentType := resp.Header().Get("Content-Type")
	if !domain.IsAllowedImageType(contentType) {
		return domain.ValidationResult{
			IsValid:     false,
			ErrorKind:   domain.ErrorKindInvalidContentType,
			ContentType: contentType,
		}
	}

	size, declared := declaredSize(resp)
	if declared {
		if size > domain.MaxFileSizeBytes {
			return domain.ValidationResult{
				IsValid:       false,
				ErrorKind:     domain.ErrorKindFileTooLarge,
				ContentType:   contentType,
				FileSizeBytes: size,
			}
		}
		if size < domain.MinFileSizeBytes {
			return domain.ValidationResult{
				IsValid:       false,
				ErrorKind:     domain.ErrorKindFileTooSmall,
				ContentType:   contentType,
				FileSizeBytes: size,
			}
		}
	}

	return domain.ValidationResult{
		IsValid:       true,
		ContentType:   contentType,
		FileSizeBytes: size,
	}
}

// ValidateMany probes all URLs concurrently, bounded by the configured
// ceiling. All results are returned even when some probes fail; no probe
// blocks on another's outcome beyond the concurrency limit.
func (c *Checker) ValidateMany(ctx context.Context, urls []string) map[string]domain.ValidationResult {
	results := make(map[string]domain.ValidationResult, len(urls))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, u := range urls {
		wg.Add(1)
		go func(rawURL string) {
			defer wg.Done()

			if err := c.sem.Acquire(ctx); err != nil {
				mu.Lock()
				results[rawURL] = domain.Invalid(classifyTransportError(err))
				mu.Unlock()

				return
			}
			defer c.sem.Release()

			result := c.Validate(ctx, rawURL)

			mu.Lock()
			results[rawURL] = result
			mu.Unlock()
		}(u)
	}

	wg.Wait()

	return results
}

// declaredSize extracts Content-Length. The second return reports whether the
// origin declared a size at all; absent sizes skip the limit checks.
func declaredSize(resp *resty.Response) (int64, bool) {
	raw := resp.Header().Get("Content-Length")
	if raw == "" {
		return 0, false
	}

	size, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || size < 0 {
		return 0, false
	}

	return size, true
}

// classifyTransportError maps transport failures to error kinds.
// Deadline checks come first: resty wraps timeouts inside *url.Error.
func classifyTransportError(err error) domain.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorKindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrorKindTimeout
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return domain.ErrorKindNetworkError
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.ErrorKindNetworkError
	}

	return domain.ErrorKindUnknown
}
