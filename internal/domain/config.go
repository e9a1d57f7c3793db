package domain

import "time"

// Config mirrors <config dir>/scriptgate/config.yaml.
type Config struct {
	ConfigFormatVersion string             `yaml:"config_format_version"`
	Fetch               FetchConfig        `yaml:"fetch" envPrefix:"FETCH_"`
	Safety              ScriptSafetyConfig `yaml:"safety" envPrefix:"SAFETY_"`
	Cache               CacheSettings      `yaml:"cache" envPrefix:"CACHE_"`
	Audit               AuditSettings      `yaml:"audit" envPrefix:"AUDIT_"`
	Trust               TrustSettings      `yaml:"trust" envPrefix:"TRUST_"`
}

// FetchConfig controls the retrying HTTP client. It is copied into the fetcher
// at construction time and not mutated afterwards.
type FetchConfig struct {
	MaxRetries      int             `yaml:"max_retries" env:"MAX_RETRIES"`
	Timeout         time.Duration   `yaml:"timeout" env:"TIMEOUT"`
	RetryDelays     []time.Duration `yaml:"retry_delays" env:"RETRY_DELAYS"`
	FallbackMirrors []string        `yaml:"fallback_mirrors" env:"FALLBACK_MIRRORS"`
	UserAgent       string          `yaml:"user_agent" env:"USER_AGENT"`
}

// DelayFor returns the backoff before the given attempt. Attempts past the end
// of the schedule reuse its last entry.
func (f FetchConfig) DelayFor(attempt int) time.Duration {
	if attempt <= 0 || len(f.RetryDelays) == 0 {
		return 0
	}
	if attempt < len(f.RetryDelays) {
		return f.RetryDelays[attempt]
	}
	return f.RetryDelays[len(f.RetryDelays)-1]
}

// ScriptSafetyConfig holds the operator-facing toggles of the execution pipeline.
type ScriptSafetyConfig struct {
	ShowPreview bool `yaml:"show_preview" env:"SHOW_PREVIEW"`
	// RequireChecksum refuses execution unless the content matches a known checksum.
	RequireChecksum bool `yaml:"require_checksum" env:"REQUIRE_CHECKSUM"`
	CacheScripts    bool `yaml:"cache_scripts" env:"CACHE_SCRIPTS"`
	DryRun          bool `yaml:"dry_run" env:"DRY_RUN"`
	PreviewLines    int  `yaml:"preview_lines" env:"PREVIEW_LINES"`
}

// CacheSettings locates the script cache.
type CacheSettings struct {
	Dir string        `yaml:"dir" env:"DIR"`
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// AuditSettings selects the durable audit store.
type AuditSettings struct {
	Backend string `yaml:"backend" env:"BACKEND"`
	Path    string `yaml:"path" env:"PATH"`
}

// TrustSettings points at an optional known-checksum table.
type TrustSettings struct {
	ChecksumsFile string `yaml:"checksums_file" env:"CHECKSUMS_FILE"`
}

// DefaultFetchConfig returns the built-in retry schedule and mirrors.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		MaxRetries:      DefaultMaxRetries,
		Timeout:         DefaultFetchTimeout,
		RetryDelays:     []time.Duration{0, time.Second, 3 * time.Second, 10 * time.Second},
		FallbackMirrors: []string{RawGitHubBase, JSDelivrGitHubBase},
		UserAgent:       DefaultUserAgent,
	}
}

// DefaultSafetyConfig returns the safety toggles used by SafeRunScript.
func DefaultSafetyConfig() ScriptSafetyConfig {
	return ScriptSafetyConfig{
		ShowPreview:     true,
		RequireChecksum: false,
		CacheScripts:    true,
		DryRun:          false,
		PreviewLines:    DefaultPreviewLines,
	}
}
