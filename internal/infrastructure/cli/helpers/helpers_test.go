package helpers

import (
	"bufio"
	"bytes"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/scriptgate/internal/domain"
	configinfra "github.com/doeshing/scriptgate/internal/infrastructure/config"
)

func TestCalculateTopActions(t *testing.T) {
	freq := map[string]int{
		domain.ActionScriptFetch:    4,
		domain.ActionReviewStart:    4,
		domain.ActionScriptExecute:  2,
		domain.ActionScriptDryRun:   1,
		domain.ActionScriptWarnings: 3,
	}

	top := CalculateTopActions(freq, 3)
	require.Len(t, top, 3)
	assert.Equal(t, domain.ActionScriptFetch, top[0].Action)
	assert.Equal(t, domain.ActionReviewStart, top[1].Action)
	assert.Equal(t, domain.ActionScriptWarnings, top[2].Action)

	assert.Len(t, CalculateTopActions(freq, 0), len(freq))
}

func TestCalculateSuccessRate(t *testing.T) {
	assert.Equal(t, 0.0, CalculateSuccessRate(0, 0))
	assert.InDelta(t, 66.67, CalculateSuccessRate(2, 3), 0.01)
}

func TestDeriveAuditHints(t *testing.T) {
	events := []domain.AuditEvent{
		{Action: domain.ActionHTTPRateLimited},
		{Action: domain.ActionHTTPRateLimited},
		{Action: domain.ActionScriptCancelled, Success: true, Detail: "name:x sha256:abc reason:" + domain.ReasonChecksumMismatch},
		{Action: domain.ActionCacheWrite, Success: true},
		{Action: domain.ActionScriptExecute, Success: true},
	}

	hints := DeriveAuditHints(events)
	require.Len(t, hints, 2)
	joined := strings.Join(hints, "\n")
	assert.Contains(t, joined, "rate limited")
	assert.Contains(t, joined, "changed upstream")
	assert.Empty(t, DeriveAuditHints(nil))
}

func TestLookupKey(t *testing.T) {
	cfg := configinfra.Defaults()

	v, err := LookupKey(cfg, "fetch.max_retries")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMaxRetries, v)

	v, err = LookupKey(cfg, "safety")
	require.NoError(t, err)
	assert.IsType(t, map[string]interface{}{}, v)

	_, err = LookupKey(cfg, "safety.dry_run.deeper")
	assert.ErrorContains(t, err, "unknown key")
}

func TestSetKeyParsesYAMLValues(t *testing.T) {
	cfg := configinfra.Defaults()

	cfg, err := SetKey(cfg, "fetch.fallback_mirrors", "[https://a.example.com, https://b.example.com]")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Fetch.FallbackMirrors)

	cfg, err = SetKey(cfg, "cache.ttl", "2h")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)

	cfg, err = SetKey(cfg, "safety.dry_run", "true")
	require.NoError(t, err)
	assert.True(t, cfg.Safety.DryRun)
	assert.Equal(t, configinfra.Defaults().Fetch.RetryDelays, cfg.Fetch.RetryDelays)

	_, err = SetKey(cfg, "cache", "x")
	assert.ErrorContains(t, err, "is a section")
	_, err = SetKey(cfg, "cache.size", "1")
	assert.ErrorContains(t, err, "cache.ttl")
}

func TestKeysAreSortedLeaves(t *testing.T) {
	keys, err := Keys(configinfra.Defaults())
	require.NoError(t, err)
	assert.Contains(t, keys, "trust.checksums_file")
	assert.Contains(t, keys, "fetch.retry_delays")
	assert.NotContains(t, keys, "fetch")
	assert.True(t, sort.StringsAreSorted(keys))
}

func TestConfigEditorWriteKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	editor := &ConfigEditor{loader: configinfra.NewFileLoader(path)}

	exists, err := editor.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	backup, err := editor.WriteDefaults()
	require.NoError(t, err)
	assert.Empty(t, backup)

	backup, err = editor.Update(func(cfg *domain.Config) error {
		cfg.Safety.PreviewLines = 7
		return nil
	})
	require.NoError(t, err)
	assert.FileExists(t, backup)

	cfg, err := editor.Read()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Safety.PreviewLines)

	_, err = editor.Update(func(cfg *domain.Config) error {
		cfg.Fetch.MaxRetries = 0
		return nil
	})
	assert.ErrorContains(t, err, "validation failed")
}

func TestAskYesNo(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{input: "yes\n", want: true},
		{input: "Y\n", want: true},
		{input: "\n", want: false},
		{input: "", def: true, want: true},
		{input: "sure\n", def: true, want: false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got, err := AskYesNo(&out, bufio.NewReader(strings.NewReader(tt.input)), "Proceed?", tt.def)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestAskStringFallsBackToDefault(t *testing.T) {
	var out bytes.Buffer
	got, err := AskString(&out, bufio.NewReader(strings.NewReader("\n")), "Name", "script")
	require.NoError(t, err)
	assert.Equal(t, "script", got)
	assert.Equal(t, "Name [script]: ", out.String())

	got, err = AskString(&out, bufio.NewReader(strings.NewReader("  deploy  \n")), "Name", "script")
	require.NoError(t, err)
	assert.Equal(t, "deploy", got)
}

func TestConfirmRemovalDefaultsToNo(t *testing.T) {
	var out bytes.Buffer
	assert.False(t, ConfirmRemoval(strings.NewReader(""), &out, "every cached script", "/tmp/scripts"))
	assert.Equal(t, "Delete every cached script at /tmp/scripts? [y/N]: ", out.String())
	assert.True(t, ConfirmRemoval(strings.NewReader("y\n"), &out, "x", "y"))
}
