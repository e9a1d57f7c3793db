package config

import (
	"strings"
	"testing"
	"time"

	"github.com/doeshing/scriptgate/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Fetch:               domain.DefaultFetchConfig(),
		Safety:              domain.DefaultSafetyConfig(),
		Cache:               domain.CacheSettings{TTL: time.Hour},
		Audit:               domain.AuditSettings{Backend: domain.AuditBackendSQLite},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Config)
		want   string
	}{
		{name: "zero retries", mutate: func(c *domain.Config) { c.Fetch.MaxRetries = 0 }, want: "max_retries"},
		{name: "zero timeout", mutate: func(c *domain.Config) { c.Fetch.Timeout = 0 }, want: "timeout"},
		{name: "no delays", mutate: func(c *domain.Config) { c.Fetch.RetryDelays = nil }, want: "retry_delays"},
		{name: "negative delay", mutate: func(c *domain.Config) { c.Fetch.RetryDelays = []time.Duration{-time.Second} }, want: "retry_delays[0]"},
		{name: "relative mirror", mutate: func(c *domain.Config) { c.Fetch.FallbackMirrors = []string{"cdn.jsdelivr.net/gh"} }, want: "fallback_mirrors"},
		{name: "ftp mirror", mutate: func(c *domain.Config) { c.Fetch.FallbackMirrors = []string{"ftp://mirror.example.com"} }, want: "fallback_mirrors"},
		{name: "negative preview", mutate: func(c *domain.Config) { c.Safety.PreviewLines = -1 }, want: "preview_lines"},
		{name: "zero ttl", mutate: func(c *domain.Config) { c.Cache.TTL = 0 }, want: "cache.ttl"},
		{name: "unknown backend", mutate: func(c *domain.Config) { c.Audit.Backend = "postgres" }, want: "audit.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
