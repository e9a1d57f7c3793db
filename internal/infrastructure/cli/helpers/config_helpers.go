package helpers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/scriptgate/internal/app"
	configapp "github.com/doeshing/scriptgate/internal/application/config"
	"github.com/doeshing/scriptgate/internal/domain"
	configinfra "github.com/doeshing/scriptgate/internal/infrastructure/config"
)

// ConfigEditor changes the config file on disk. It reads the file without
// SCRIPTGATE_* overrides so an environment value is never written back.
type ConfigEditor struct {
	loader *configinfra.FileLoader
}

// NewConfigEditor returns an editor for the container's config file.
func NewConfigEditor(container *app.Container) (*ConfigEditor, error) {
	if container == nil || container.ConfigLoader == nil {
		return nil, fmt.Errorf("config loader unavailable")
	}
	return &ConfigEditor{loader: container.ConfigLoader}, nil
}

// Path returns the config file location.
func (e *ConfigEditor) Path() string {
	return e.loader.Path()
}

// Exists reports whether the config file is present.
func (e *ConfigEditor) Exists() (bool, error) {
	_, err := os.Stat(e.loader.Path())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to inspect %s: %w", e.loader.Path(), err)
	}
}

// Read parses the file as written, with defaults filled in.
func (e *ConfigEditor) Read() (domain.Config, error) {
	data, err := os.ReadFile(e.loader.Path())
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to read configuration: %w", err)
	}
	cfg, err := configinfra.Parse(data)
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return cfg, nil
}

// Write validates cfg, backs up the current file and saves. It returns the
// backup path, empty when there was no file to back up.
func (e *ConfigEditor) Write(cfg domain.Config) (string, error) {
	if err := configapp.Validate(cfg); err != nil {
		return "", fmt.Errorf("configuration validation failed: %w", err)
	}

	backup, err := e.Backup()
	if err != nil {
		return "", err
	}

	if err := e.loader.Save(cfg); err != nil {
		return backup, fmt.Errorf("failed to save configuration: %w", err)
	}
	return backup, nil
}

// Update reads the file, applies change and writes the result.
func (e *ConfigEditor) Update(change func(*domain.Config) error) (string, error) {
	cfg, err := e.Read()
	if err != nil {
		return "", err
	}
	if err := change(&cfg); err != nil {
		return "", err
	}
	return e.Write(cfg)
}

// Backup copies the current file aside. It is a no-op without a file.
func (e *ConfigEditor) Backup() (string, error) {
	exists, err := e.Exists()
	if err != nil || !exists {
		return "", err
	}
	backup, err := e.loader.Backup()
	if err != nil {
		return "", fmt.Errorf("failed to create configuration backup: %w", err)
	}
	return backup, nil
}

// WriteDefaults replaces the file with the embedded default after backing
// up any existing file.
func (e *ConfigEditor) WriteDefaults() (string, error) {
	backup, err := e.Backup()
	if err != nil {
		return "", err
	}
	if err := e.loader.Reset(); err != nil {
		return backup, fmt.Errorf("failed to write configuration: %w", err)
	}
	return backup, nil
}

// LookupKey returns the value stored under a dotted key such as
// fetch.max_retries. A section name returns the whole section.
func LookupKey(cfg domain.Config, key string) (interface{}, error) {
	tree, err := configTree(cfg)
	if err != nil {
		return nil, err
	}
	value, ok := walk(tree, splitKey(key))
	if !ok {
		return nil, unknownKey(tree, key)
	}
	return value, nil
}

// SetKey parses raw as YAML and stores it under key. Only existing leaf keys
// can be set, so typos are rejected instead of silently ignored.
func SetKey(cfg domain.Config, key, raw string) (domain.Config, error) {
	tree, err := configTree(cfg)
	if err != nil {
		return cfg, err
	}

	path := splitKey(key)
	current, ok := walk(tree, path)
	if !ok {
		return cfg, unknownKey(tree, key)
	}
	if _, isSection := current.(map[string]interface{}); isSection {
		return cfg, fmt.Errorf("%s is a section; set one of its keys", key)
	}

	var value interface{}
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}

	parent, _ := walk(tree, path[:len(path)-1])
	parent.(map[string]interface{})[path[len(path)-1]] = value

	data, err := yaml.Marshal(tree)
	if err != nil {
		return cfg, fmt.Errorf("failed to encode configuration: %w", err)
	}
	updated, err := configinfra.Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return updated, nil
}

// Keys lists every leaf key of cfg in sorted order.
func Keys(cfg domain.Config) ([]string, error) {
	tree, err := configTree(cfg)
	if err != nil {
		return nil, err
	}
	return leafKeys(tree), nil
}

func configTree(cfg domain.Config) (map[string]interface{}, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return tree, nil
}

func splitKey(key string) []string {
	return strings.Split(strings.Trim(strings.TrimSpace(key), "."), ".")
}

func walk(node interface{}, path []string) (interface{}, bool) {
	for _, part := range path {
		section, ok := node.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if node, ok = section[part]; !ok {
			return nil, false
		}
	}
	return node, true
}

func leafKeys(tree map[string]interface{}) []string {
	var keys []string
	var visit func(prefix string, node map[string]interface{})
	visit = func(prefix string, node map[string]interface{}) {
		for name, child := range node {
			if section, ok := child.(map[string]interface{}); ok {
				visit(prefix+name+".", section)
				continue
			}
			keys = append(keys, prefix+name)
		}
	}
	visit("", tree)
	sort.Strings(keys)
	return keys
}

func unknownKey(tree map[string]interface{}, key string) error {
	return fmt.Errorf("unknown key %q (known keys: %s)", key, strings.Join(leafKeys(tree), ", "))
}
