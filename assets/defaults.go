// Package assets embeds the files scriptgate ships with.
package assets

import (
	"embed"
	"io/fs"
)

const (
	configFile      = "defaults/config.yaml"
	trustSchemaFile = "defaults/trust-store.schema.json"
)

//go:embed defaults/*
var defaults embed.FS

// ConfigYAML returns the default config.yaml written on first run.
func ConfigYAML() []byte {
	return mustRead(configFile)
}

// TrustStoreSchema returns the JSON Schema a known-checksums file must match.
func TrustStoreSchema() []byte {
	return mustRead(trustSchemaFile)
}

// Files lists the embedded file names.
func Files() ([]string, error) {
	return fs.Glob(defaults, "defaults/*")
}

func mustRead(name string) []byte {
	data, err := defaults.ReadFile(name)
	if err != nil {
		panic("assets: missing embedded file " + name)
	}
	return data
}
