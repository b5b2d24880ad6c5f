package fetcher

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/examgrid/papers-cli/internal/config"
)

// AdaptiveLimiter wraps a rate.Limiter with adaptive rate adjustment.
// On success it increases the rate by 20% (up to 2x initial).
// On 429 it halves the rate (down to initial/4 minimum).
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	initialRate rate.Limit
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates an adaptive rate limiter that auto-tunes.
func NewAdaptiveLimiter(initialRate rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(initialRate, burst),
		initialRate: initialRate,
		maxRate:     initialRate * 2,
		minRate:     initialRate / 4,
		currentRate: initialRate,
	}
}

// Wait blocks until the limiter allows an event.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess increases the rate by 20%, up to 2x initial.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	newRate := a.currentRate * 1.2
	if newRate > a.maxRate {
		newRate = a.maxRate
	}
	a.currentRate = newRate
	a.limiter.SetLimit(newRate)
}

// OnRateLimit halves the rate on 429 responses.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	newRate := a.currentRate * 0.5
	if newRate < a.minRate {
		newRate = a.minRate
	}
	a.currentRate = newRate
	a.limiter.SetLimit(newRate)
	zap.L().Warn("fetcher: reducing rate after 429",
		zap.Float64("new_rate", float64(newRate)),
	)
}

// Limit returns the current rate limit.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRate
}

// Downloader fetches paper PDFs over HTTP with retry and rate limiting.
type Downloader struct {
	client     *http.Client
	limiter    *AdaptiveLimiter
	userAgent  string
	maxRetries int
}

// NewDownloader creates a Downloader from config.
func NewDownloader(cfg config.DownloadConfig) *Downloader {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}
	agent := cfg.UserAgent
	if agent == "" {
		agent = "papers-cli/1.0"
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Downloader{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter:    NewAdaptiveLimiter(rate.Limit(rps), 1),
		userAgent:  agent,
		maxRetries: retries,
	}
}

// Stats summarizes one FetchAll pass.
type Stats struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// FetchAll downloads every manifest entry into outDir, skipping files
// already on disk. A failed paper is counted and logged, never fatal.
func (d *Downloader) FetchAll(ctx context.Context, m *Manifest, outDir string) (Stats, error) {
	var stats Stats

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return stats, eris.Wrapf(err, "fetcher: mkdir %s", outDir)
	}

	for _, paper := range m.Papers {
		if ctx.Err() != nil {
			return stats, eris.Wrap(ctx.Err(), "fetcher: fetch all")
		}

		dest := filepath.Join(outDir, paper.Filename())
		if _, err := os.Stat(dest); err == nil {
			zap.L().Debug("fetcher: already downloaded", zap.String("file", dest))
			stats.Skipped++
			continue
		}

		n, err := d.fetchOne(ctx, paper.URL, dest)
		if err != nil {
			zap.L().Warn("fetcher: download failed",
				zap.String("url", paper.URL),
				zap.Error(err),
			)
			stats.Failed++
			continue
		}
		zap.L().Info("fetcher: downloaded",
			zap.String("file", dest),
			zap.Int64("bytes", n),
		)
		stats.Downloaded++
	}
	return stats, nil
}

// fetchOne downloads a single URL to dest through a temp file so a
// partial download never looks complete.
func (d *Downloader) fetchOne(ctx context.Context, rawURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.doWithRetry(ctx, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	tmp := dest + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}

	n, err := io.Copy(file, resp.Body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return n, eris.Wrap(err, "fetcher: write file")
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return n, eris.Wrap(err, "fetcher: finalize file")
	}
	return n, nil
}

func (d *Downloader) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := range d.maxRetries {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}

		cloned := req.Clone(ctx)
		resp, err := d.client.Do(cloned)
		if err != nil {
			lastErr = err
			zap.L().Warn("fetcher: request failed, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			d.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("fetcher: http 429 from %s", req.URL.String())
			d.limiter.OnRateLimit()
			d.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("fetcher: http %d from %s", resp.StatusCode, req.URL.String())
			zap.L().Warn("fetcher: server error, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			d.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, req.URL.String())
		}

		d.limiter.OnSuccess()
		return resp, nil
	}
	return nil, eris.Wrap(lastErr, "fetcher: all retries exhausted")
}

func (d *Downloader) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	dur := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if dur > maxBackoff {
		dur = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(dur) / 2))
	dur = dur + jitter

	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
