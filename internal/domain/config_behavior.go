package domain

import (
	"fmt"
	"strings"
	"time"
)

// HasMirror reports whether base is already a configured fallback mirror.
// Trailing slashes are ignored.
func (c *Config) HasMirror(base string) bool {
	return c.mirrorIndex(base) >= 0
}

// AddMirror appends a fallback mirror. Mirrors are tried in order, so the new
// one is tried last. Returns an error if it is already configured.
func (c *Config) AddMirror(base string) error {
	base = strings.TrimSpace(base)
	if base == "" {
		return fmt.Errorf("mirror base cannot be empty")
	}
	if c.HasMirror(base) {
		return fmt.Errorf("mirror %s already configured", base)
	}
	c.Fetch.FallbackMirrors = append(c.Fetch.FallbackMirrors, base)
	return nil
}

// RemoveMirror removes a fallback mirror by base URL.
func (c *Config) RemoveMirror(base string) error {
	idx := c.mirrorIndex(base)
	if idx < 0 {
		return fmt.Errorf("mirror %s not found", base)
	}
	mirrors := make([]string, 0, len(c.Fetch.FallbackMirrors)-1)
	mirrors = append(mirrors, c.Fetch.FallbackMirrors[:idx]...)
	c.Fetch.FallbackMirrors = append(mirrors, c.Fetch.FallbackMirrors[idx+1:]...)
	return nil
}

func (c *Config) mirrorIndex(base string) int {
	want := normalizeMirror(base)
	for i, m := range c.Fetch.FallbackMirrors {
		if normalizeMirror(m) == want {
			return i
		}
	}
	return -1
}

func normalizeMirror(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

// GetCacheTTL returns the cache TTL, or the default when unset.
func (c *Config) GetCacheTTL() time.Duration {
	if c.Cache.TTL <= 0 {
		return DefaultCacheTTL
	}
	return c.Cache.TTL
}

// GetPreviewLines returns how many lines the preview shows
// Returns the default when the value is negative
func (c *Config) GetPreviewLines() int {
	if c.Safety.PreviewLines < 0 {
		return DefaultPreviewLines
	}
	return c.Safety.PreviewLines
}

// IsTrustStoreConfigured checks if a known-checksums file is set
func (c *Config) IsTrustStoreConfigured() bool {
	return strings.TrimSpace(c.Trust.ChecksumsFile) != ""
}

// ValidateConsistency reports settings that are individually valid but
// contradict each other.
func (c *Config) ValidateConsistency() []string {
	var issues []string
	if c.Safety.RequireChecksum && !c.IsTrustStoreConfigured() {
		issues = append(issues, "safety.require_checksum is set but trust.checksums_file is empty; every script will be refused")
	}
	if len(c.Fetch.RetryDelays) > 0 && len(c.Fetch.RetryDelays) < c.Fetch.MaxRetries {
		issues = append(issues, fmt.Sprintf("fetch.retry_delays has %d entries for %d attempts; the last delay is reused",
			len(c.Fetch.RetryDelays), c.Fetch.MaxRetries))
	}
	seen := make(map[string]bool, len(c.Fetch.FallbackMirrors))
	for _, m := range c.Fetch.FallbackMirrors {
		key := normalizeMirror(m)
		if seen[key] {
			issues = append(issues, fmt.Sprintf("fetch.fallback_mirrors lists %s twice", m))
		}
		seen[key] = true
	}
	return issues
}
