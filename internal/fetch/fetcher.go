// Package fetch downloads library assets over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single request, body included.
	DefaultTimeout = 30 * time.Second

	// DefaultInterval paces requests to the asset host.
	DefaultInterval = 250 * time.Millisecond

	// MaxAssetSize caps a downloaded asset.
	MaxAssetSize = 32 << 20
)

// Fetcher downloads files relative to BaseURL.
type Fetcher struct {
	BaseURL string
	Client  *http.Client
	Retry   RetryConfig
	Limiter *rate.Limiter
}

// New creates a Fetcher with default client, retry and pacing.
// Burst 2 lets both library assets start right away.
func New(baseURL string) *Fetcher {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Fetcher{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: DefaultTimeout},
		Retry:   DefaultRetryConfig(),
		Limiter: rate.NewLimiter(rate.Every(DefaultInterval), 2),
	}
}

// URL returns the absolute URL of name.
func (f *Fetcher) URL(name string) string {
	return f.BaseURL + strings.TrimPrefix(name, "/")
}

// Fetch downloads name and returns its body. Transient failures are retried
// with exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	attempts := f.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	url := f.URL(name)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if f.Limiter != nil {
			if err := f.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, err := f.get(ctx, url)
		if err == nil {
			slog.Debug("fetched asset", "url", url, "bytes", len(body), "attempt", attempt)
			return body, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}

		if attempt < attempts {
			delay := f.Retry.delay(attempt)
			slog.Warn("asset download failed, retrying",
				"url", url, "attempt", attempt, "max_attempts", attempts, "delay", delay, "error", err)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("download %s failed after %d attempts: %w", url, attempts, lastErr)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "lancelot-cli")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) > MaxAssetSize {
		return nil, fmt.Errorf("read %s: asset larger than %d bytes", url, MaxAssetSize)
	}
	return body, nil
}

// FetchAll downloads every name concurrently. Either all bodies are returned
// or none: the first failure cancels the remaining downloads.
func (f *Fetcher) FetchAll(ctx context.Context, names []string) (map[string][]byte, error) {
	bodies := make([][]byte, len(names))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, name := range names {
		eg.Go(func() error {
			body, err := f.Fetch(egCtx, name)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", name, err)
			}
			bodies[i] = body
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(names))
	for i, name := range names {
		out[name] = bodies[i]
	}
	return out, nil
}
