package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/scriptgate/assets"
	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/pkg/filesystem"
	"github.com/doeshing/scriptgate/internal/ports"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SCRIPTGATE_"
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "SCRIPTGATE_CONFIG"

	configFileName = "config.yaml"
)

// FileLoader loads YAML configuration from <user config dir>/scriptgate/config.yaml
// (overridable via SCRIPTGATE_CONFIG) and applies SCRIPTGATE_* environment overrides.
type FileLoader struct {
	overridePath string
	environ      map[string]string
}

// NewFileLoader builds a new loader. An empty path uses the default location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// WithEnvironment replaces the process environment used for overrides.
func (l *FileLoader) WithEnvironment(environ map[string]string) *FileLoader {
	l.environ = environ
	return l
}

// Load implements ports.ConfigProvider. A missing file is created from the
// embedded default.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := writeDefault(path); err != nil {
			return domain.Config{}, err
		}
		data = assets.ConfigYAML()
	}

	cfg, err := Parse(data)
	if err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := l.applyEnv(&cfg); err != nil {
		return domain.Config{}, fmt.Errorf("environment overrides: %w", err)
	}
	return hydrateDefaults(cfg), nil
}

// Parse decodes YAML over the built-in defaults so omitted keys keep their default.
func Parse(data []byte) (domain.Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Fetch:               domain.DefaultFetchConfig(),
		Safety:              domain.DefaultSafetyConfig(),
		Cache:               domain.CacheSettings{TTL: domain.DefaultCacheTTL},
		Audit:               domain.AuditSettings{Backend: domain.AuditBackendSQLite},
	}
}

// Path returns the resolved config file path.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.ConfigDir(), configFileName)
}

// Save writes cfg back to the config file.
func (l *FileLoader) Save(cfg domain.Config) error {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// Reset overwrites the config file with the embedded default.
func (l *FileLoader) Reset() error {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, assets.ConfigYAML(), domain.SecureFilePermissions)
}

// Backup copies the current config file to config.yaml.bak.<timestamp>.
func (l *FileLoader) Backup() (string, error) {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	dest := fmt.Sprintf("%s.bak.%s", path, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(dest, data, domain.SecureFilePermissions); err != nil {
		return "", err
	}
	return dest, nil
}

func (l *FileLoader) applyEnv(cfg *domain.Config) error {
	opts := env.Options{Prefix: EnvPrefix}
	if l.environ != nil {
		opts.Environment = l.environ
	}
	return env.ParseWithOptions(cfg, opts)
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

func writeDefault(path string) error {
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, assets.ConfigYAML(), domain.SecureFilePermissions)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = domain.DefaultUserAgent
	}
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = domain.AuditBackendSQLite
	}
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
