// Package fetch implements the retrying HTTP client used to download scripts.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/infrastructure/mirror"
	"github.com/doeshing/scriptgate/internal/ports"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures a RetryingFetcher. Only Config is required.
type Options struct {
	Config   domain.FetchConfig
	Client   *http.Client
	Resolver ports.MirrorResolver
	Audit    ports.AuditSink
	Logger   ports.Logger
	// Status receives one human-readable line per attempt. Nil discards.
	Status io.Writer
	Sleep  SleepFunc
}

// RetryingFetcher performs GETs with a bounded retry schedule, short-circuits
// on rate limiting and falls back to mirrors for GitHub-family URLs.
type RetryingFetcher struct {
	cfg      domain.FetchConfig
	client   *http.Client
	resolver ports.MirrorResolver
	audit    ports.AuditSink
	logger   ports.Logger
	status   io.Writer
	sleep    SleepFunc
}

// New builds a fetcher. The config is copied so later changes by the caller
// have no effect.
func New(opts Options) *RetryingFetcher {
	cfg := copyConfig(opts.Config)
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = domain.DefaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultFetchTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = domain.DefaultUserAgent
	}

	f := &RetryingFetcher{
		cfg:      cfg,
		client:   opts.Client,
		resolver: opts.Resolver,
		audit:    opts.Audit,
		logger:   opts.Logger,
		status:   opts.Status,
		sleep:    opts.Sleep,
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: cfg.Timeout}
	}
	if f.resolver == nil {
		f.resolver = mirror.NewResolver()
	}
	if f.audit == nil {
		f.audit = nopAudit{}
	}
	if f.status == nil {
		f.status = io.Discard
	}
	if f.sleep == nil {
		f.sleep = sleepContext
	}
	return f
}

// Config returns a copy of the fetcher's configuration.
func (f *RetryingFetcher) Config() domain.FetchConfig {
	return copyConfig(f.cfg)
}

// Fetch implements ports.ScriptFetcher. When every direct attempt and every
// mirror fails, the last direct error is returned.
func (f *RetryingFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.cfg.DelayFor(attempt)
			f.audit.LogAction(domain.ActionHTTPRetry, true,
				fmt.Sprintf("attempt:%d delay:%s url:%s", attempt+1, delay, rawURL))
			fmt.Fprintf(f.status, "  Retrying (attempt %d/%d) in %s...\n", attempt+1, f.cfg.MaxRetries, delay)
			if err := f.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		body, err := f.get(ctx, rawURL)
		if err == nil {
			if attempt > 0 {
				f.audit.LogAction(domain.ActionHTTPFetch, true,
					fmt.Sprintf("url:%s attempts:%d", rawURL, attempt+1))
			}
			return body, nil
		}
		lastErr = err
		f.debug("fetch attempt failed", map[string]interface{}{"url": rawURL, "attempt": attempt + 1, "error": err.Error()})

		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) && fetchErr.RateLimited() {
			f.audit.LogAction(domain.ActionHTTPRateLimited, false,
				fmt.Sprintf("url:%s status:%d", rawURL, fetchErr.StatusCode))
			fmt.Fprintf(f.status, "  Rate limited by origin (HTTP %d), skipping remaining retries\n", fetchErr.StatusCode)
			break
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		fmt.Fprintf(f.status, "  Attempt %d/%d failed: %v\n", attempt+1, f.cfg.MaxRetries, err)
	}

	if mirror.IsGitHubURL(rawURL) {
		if body, ok := f.tryMirrors(ctx, rawURL); ok {
			return body, nil
		}
	}

	if lastErr == nil {
		lastErr = &domain.FetchError{URL: rawURL, Err: errors.New("failed to fetch URL after all retries")}
	}
	return "", lastErr
}

func (f *RetryingFetcher) tryMirrors(ctx context.Context, original string) (string, bool) {
	for _, base := range f.cfg.FallbackMirrors {
		mirrorURL, ok := f.resolver.Resolve(original, base)
		if !ok {
			continue
		}
		f.audit.LogAction(domain.ActionHTTPFallback, true,
			fmt.Sprintf("original:%s mirror:%s", original, mirrorURL))
		fmt.Fprintf(f.status, "  Trying mirror: %s\n", mirrorURL)

		body, err := f.get(ctx, mirrorURL)
		if err != nil {
			f.audit.LogAction(domain.ActionHTTPFallbackFailed, false,
				fmt.Sprintf("mirror:%s error:%v", mirrorURL, err))
			fmt.Fprintf(f.status, "  Mirror failed: %v\n", err)
			if ctx.Err() != nil {
				return "", false
			}
			continue
		}
		f.audit.LogAction(domain.ActionHTTPFallbackSuccess, true, fmt.Sprintf("mirror:%s", mirrorURL))
		return body, true
	}
	return "", false
}

// get performs a single attempt.
func (f *RetryingFetcher) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &domain.FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, domain.MaxScriptBytes+1))
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Err: fmt.Errorf("read response body: %w", err)}
	}
	if len(body) > domain.MaxScriptBytes {
		return "", &domain.FetchError{URL: rawURL, Err: fmt.Errorf("response body exceeds %d bytes", domain.MaxScriptBytes)}
	}
	return string(body), nil
}

func (f *RetryingFetcher) debug(msg string, fields map[string]interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, fields)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func copyConfig(cfg domain.FetchConfig) domain.FetchConfig {
	out := cfg
	out.RetryDelays = append([]time.Duration(nil), cfg.RetryDelays...)
	out.FallbackMirrors = append([]string(nil), cfg.FallbackMirrors...)
	return out
}

type nopAudit struct{}

func (nopAudit) LogAction(string, bool, string) {}

var _ ports.ScriptFetcher = (*RetryingFetcher)(nil)
