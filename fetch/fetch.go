// Package fetch provides the byte-fetch capability the vocabulary registry
// requires from its environment. The registry depends only on the Fetcher
// interface; HTTPFetcher is the default implementation backed by net/http.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/c360/semvocab/errors"
	"github.com/c360/semvocab/pkg/retry"
)

// DefaultTimeout bounds each fetch. A request either completes, times out,
// or fails; there is no unbounded blocking path.
const DefaultTimeout = 10 * time.Second

// DefaultMaxBodySize caps response bodies (remote context documents are
// small; anything larger is suspect).
const DefaultMaxBodySize = 10 << 20 // 10 MiB

// Fetcher retrieves raw bytes from a URL. Implementations must enforce a
// timeout and return an error on non-success status or transport failure.
// Retry policy, if any, belongs here rather than in the registry.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, url string) ([]byte, error)

// Fetch implements Fetcher.
func (f Func) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// HTTPFetcher is the default Fetcher backed by net/http.
type HTTPFetcher struct {
	client      *http.Client
	timeout     time.Duration
	maxBodySize int64
	retryCfg    *retry.Config
	log         *slog.Logger
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient sets a custom http.Client.
func WithClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithMaxBodySize caps the response body size in bytes.
func WithMaxBodySize(limit int64) HTTPOption {
	return func(f *HTTPFetcher) {
		if limit > 0 {
			f.maxBodySize = limit
		}
	}
}

// WithRetry enables retry with the given config. Client errors (4xx) are
// marked non-retryable; server errors and transport failures are retried.
func WithRetry(cfg retry.Config) HTTPOption {
	return func(f *HTTPFetcher) {
		f.retryCfg = &cfg
	}
}

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(log *slog.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// NewHTTP creates an HTTPFetcher with the default 10 second timeout.
func NewHTTP(options ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      &http.Client{},
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetch retrieves the raw bytes at url. Non-2xx responses, timeouts, and
// transport failures surface as retrieval errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	requestID := uuid.NewString()
	log := f.log.With("request_id", requestID, "url", url)

	attempt := func() ([]byte, error) {
		return f.fetchOnce(ctx, url, log)
	}

	start := time.Now()

	var body []byte
	var err error
	if f.retryCfg != nil {
		body, err = retry.DoWithResult(ctx, *f.retryCfg, attempt)
	} else {
		body, err = attempt()
	}

	if err != nil {
		log.Warn("fetch failed", "error", err, "elapsed", time.Since(start))
		return nil, err
	}

	log.Debug("fetch completed", "bytes", len(body), "elapsed", time.Since(start))
	return body, nil
}

// fetchOnce performs a single HTTP GET bounded by the configured timeout.
func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string, log *slog.Logger) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.NonRetryable(errors.WrapInvalid(err, "fetch", "Fetch", "build request"))
	}
	req.Header.Set("Accept", "application/ld+json, application/json;q=0.9, text/turtle;q=0.8, */*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrRetrieval, err),
			"fetch", "Fetch", "http request")
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Debug("response body close failed", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("%w: unexpected status %d", errors.ErrRetrieval, resp.StatusCode)
		wrapped := errors.WrapTransient(statusErr, "fetch", "Fetch", "http request")
		// Client errors won't improve on retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.NonRetryable(wrapped)
		}
		return nil, wrapped
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrRetrieval, err),
			"fetch", "Fetch", "read body")
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, retry.NonRetryable(errors.WrapInvalid(
			fmt.Errorf("%w: response exceeds %d bytes", errors.ErrInvalidData, f.maxBodySize),
			"fetch", "Fetch", "read body"))
	}

	return body, nil
}
