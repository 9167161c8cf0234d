// Package fetch downloads the raw open-data extracts from the city portal.
package fetch

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures the HTTP fetcher.
type Options struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	RequestsPerSec float64
}

// Fetcher downloads source extracts with retry and rate limiting. The
// open-data portal throttles aggressively, so requests are paced through a
// single limiter.
type Fetcher struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates a Fetcher with the given options.
func New(opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "collidium-cli/1.0"
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 1
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
	}
}

func (f *Fetcher) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := range f.opts.MaxRetries {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}

		cloned := req.Clone(ctx)
		resp, err := f.client.Do(cloned)
		if err != nil {
			lastErr = err
			zap.L().Warn("http request failed, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			f.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("http %d from %s", resp.StatusCode, req.URL.String())
			zap.L().Warn("retryable status, backing off",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			f.backoff(ctx, attempt)
			continue
		}

		return resp, nil
	}

	return nil, eris.Wrap(lastErr, "all retries exhausted")
}

func (f *Fetcher) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(d) / 2))
	d = d + jitter

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Download fetches the URL and returns the response body.
func (f *Fetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.doWithRetry(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "download")
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, eris.Errorf("download: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	return resp.Body, nil
}

// DownloadToFile fetches the URL and writes it to the given path.
func (f *Fetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}

	return n, nil
}
