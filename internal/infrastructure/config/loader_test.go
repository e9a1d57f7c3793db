package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/scriptgate/assets"
	"github.com/doeshing/scriptgate/internal/domain"
)

func TestLoadWritesEmbeddedDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriptgate", "config.yaml")
	loader := NewFileLoader(path).WithEnvironment(map[string]string{})

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, assets.ConfigYAML(), written)

	assert.Equal(t, domain.DefaultMaxRetries, cfg.Fetch.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, []time.Duration{0, time.Second, 3 * time.Second, 10 * time.Second}, cfg.Fetch.RetryDelays)
	assert.Equal(t, []string{domain.RawGitHubBase, domain.JSDelivrGitHubBase}, cfg.Fetch.FallbackMirrors)
	assert.Equal(t, domain.DefaultSafetyConfig(), cfg.Safety)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, domain.AuditBackendSQLite, cfg.Audit.Backend)
}

func TestLoadKeepsDefaultsForOmittedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("safety:\n  dry_run: true\nfetch:\n  max_retries: 2\n"), 0o600))

	cfg, err := NewFileLoader(path).WithEnvironment(map[string]string{}).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.Safety.DryRun)
	assert.True(t, cfg.Safety.ShowPreview)
	assert.Equal(t, domain.DefaultPreviewLines, cfg.Safety.PreviewLines)
	assert.Equal(t, 2, cfg.Fetch.MaxRetries)
	assert.Equal(t, domain.DefaultFetchTimeout, cfg.Fetch.Timeout)
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := NewFileLoader(path).WithEnvironment(map[string]string{
		"SCRIPTGATE_SAFETY_DRY_RUN":         "true",
		"SCRIPTGATE_SAFETY_PREVIEW_LINES":   "5",
		"SCRIPTGATE_FETCH_MAX_RETRIES":      "2",
		"SCRIPTGATE_FETCH_RETRY_DELAYS":     "0s,2s",
		"SCRIPTGATE_FETCH_FALLBACK_MIRRORS": "https://mirror.example.com",
		"SCRIPTGATE_CACHE_TTL":              "30m",
		"SCRIPTGATE_AUDIT_BACKEND":          "file",
		"SCRIPTGATE_TRUST_CHECKSUMS_FILE":   "/etc/scriptgate/checksums.json",
	})

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.Safety.DryRun)
	assert.Equal(t, 5, cfg.Safety.PreviewLines)
	assert.Equal(t, 2, cfg.Fetch.MaxRetries)
	assert.Equal(t, []time.Duration{0, 2 * time.Second}, cfg.Fetch.RetryDelays)
	assert.Equal(t, []string{"https://mirror.example.com"}, cfg.Fetch.FallbackMirrors)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, domain.AuditBackendFile, cfg.Audit.Backend)
	assert.Equal(t, "/etc/scriptgate/checksums.json", cfg.Trust.ChecksumsFile)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch: [unterminated"), 0o600))

	_, err := NewFileLoader(path).WithEnvironment(map[string]string{}).Load(context.Background())
	assert.Error(t, err)
}

func TestSaveBackupAndReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	loader := NewFileLoader(path).WithEnvironment(map[string]string{})

	cfg := Defaults()
	cfg.Safety.PreviewLines = 42
	require.NoError(t, loader.Save(cfg))

	loaded, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Safety.PreviewLines)
	assert.Equal(t, cfg.Fetch.RetryDelays, loaded.Fetch.RetryDelays)

	backup, err := loader.Backup()
	require.NoError(t, err)
	_, err = os.Stat(backup)
	require.NoError(t, err)

	require.NoError(t, loader.Reset())
	reset, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPreviewLines, reset.Safety.PreviewLines)
}

func TestPathHonoursEnvironmentVariable(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(EnvConfigPath, custom)
	assert.Equal(t, custom, NewFileLoader("").Path())
}
