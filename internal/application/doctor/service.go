package doctor

import (
	"context"
	"fmt"
	"os"

	configapp "github.com/doeshing/scriptgate/internal/application/config"
	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/ports"
)

// ShellLocator reports the interpreter scripts will run under.
type ShellLocator interface {
	Shell() (string, error)
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Cache          ports.CacheRepository
	Audit          ports.AuditRepository
	Shell          ShellLocator
	// LoadTrust loads a known-checksums file and returns its entry count.
	LoadTrust func(path string) (int, error)
	// Interactive reports whether stdin is a terminal.
	Interactive func() bool
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := configapp.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("format %s, %d mirror(s)", cfg.ConfigFormatVersion, len(cfg.Fetch.FallbackMirrors))))
	}
	for _, issue := range cfg.ValidateConsistency() {
		checks = append(checks, warn("Config file", issue))
	}

	if s.Cache != nil {
		checks = append(checks, cacheCheck(s.Cache.Dir()))
	}

	if s.Audit != nil {
		if _, err := s.Audit.Events(1, ""); err != nil {
			checks = append(checks, fail("Audit store", err.Error()))
		} else {
			checks = append(checks, ok("Audit store", s.Audit.Path()))
		}
	}

	if s.Shell != nil {
		if path, err := s.Shell.Shell(); err != nil {
			checks = append(checks, fail("Shell", err.Error()))
		} else {
			checks = append(checks, ok("Shell", path))
		}
	}

	checks = append(checks, s.trustCheck(cfg.Trust))

	if s.Interactive != nil {
		if s.Interactive() {
			checks = append(checks, ok("Terminal", "interactive"))
		} else {
			checks = append(checks, warn("Terminal", "stdin is not a terminal; prompts fall back to line input"))
		}
	}

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) trustCheck(trust domain.TrustSettings) domain.HealthCheck {
	if trust.ChecksumsFile == "" {
		return ok("Trust store", "no known-checksums file configured")
	}
	if s.LoadTrust == nil {
		return warn("Trust store", "loader unavailable")
	}
	n, err := s.LoadTrust(trust.ChecksumsFile)
	if err != nil {
		return fail("Trust store", err.Error())
	}
	return ok("Trust store", fmt.Sprintf("%d known checksum(s)", n))
}

func cacheCheck(dir string) domain.HealthCheck {
	if err := os.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
		return fail("Script cache", err.Error())
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fail("Script cache", fmt.Sprintf("%s not writable: %v", dir, err))
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return ok("Script cache", dir)
}

func ok(name, detail string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.CheckOK, Detail: detail}
}

func warn(name, detail string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.CheckWarn, Detail: detail}
}

func fail(name, detail string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.CheckFail, Detail: detail}
}
