package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/doeshing/scriptgate/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validateFetch(cfg.Fetch); err != nil {
		return err
	}
	if err := validateSafety(cfg.Safety); err != nil {
		return err
	}
	if err := validateCache(cfg.Cache); err != nil {
		return err
	}
	if err := validateAudit(cfg.Audit); err != nil {
		return err
	}
	return nil
}

func validateFetch(fetch domain.FetchConfig) error {
	if fetch.MaxRetries < 1 {
		return fmt.Errorf("fetch.max_retries must be >= 1, got %d", fetch.MaxRetries)
	}
	if fetch.Timeout <= 0 {
		return errors.New("fetch.timeout must be > 0")
	}
	if len(fetch.RetryDelays) == 0 {
		return errors.New("fetch.retry_delays must not be empty")
	}
	for i, d := range fetch.RetryDelays {
		if d < 0 {
			return fmt.Errorf("fetch.retry_delays[%d] must be >= 0, got %s", i, d)
		}
	}
	for _, mirror := range fetch.FallbackMirrors {
		u, err := url.Parse(mirror)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("fetch.fallback_mirrors: %q is not an absolute http(s) URL", mirror)
		}
	}
	return nil
}

func validateSafety(safety domain.ScriptSafetyConfig) error {
	if safety.PreviewLines < 0 {
		return fmt.Errorf("safety.preview_lines must be >= 0, got %d", safety.PreviewLines)
	}
	return nil
}

func validateCache(cache domain.CacheSettings) error {
	if cache.TTL <= 0 {
		return errors.New("cache.ttl must be > 0")
	}
	return nil
}

func validateAudit(audit domain.AuditSettings) error {
	switch strings.ToLower(audit.Backend) {
	case domain.AuditBackendSQLite, domain.AuditBackendFile:
		return nil
	default:
		return fmt.Errorf("audit.backend must be %s|%s, got %q", domain.AuditBackendSQLite, domain.AuditBackendFile, audit.Backend)
	}
}
