// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the script pipeline core and
// its adapters (infrastructure). The application layer depends only on these
// abstractions, so the HTTP client, cache directory, audit store, prompt widgets
// and process spawner can each be swapped or stubbed independently.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., ScriptFetcher, AuditSink)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/doeshing/scriptgate/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from <config dir>/scriptgate/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ScriptFetcher retrieves a script body from a URL, retrying and falling back
// to mirrors as configured.
type ScriptFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// MirrorResolver rewrites a GitHub-family URL onto a mirror base.
// ok is false when no equivalent URL can be expressed.
type MirrorResolver interface {
	Resolve(original, mirrorBase string) (string, bool)
}

// ScriptCache is a TTL-bounded store of script bodies keyed by source URL.
type ScriptCache interface {
	Get(url string) (domain.CachedScript, bool, error)
	Put(url, content string) error
	SaveNamed(name, content string) (string, error)
}

// CacheRepository exposes cache maintenance for CLI commands.
type CacheRepository interface {
	Entries() ([]domain.CacheEntry, error)
	Clear() error
	Dir() string
}

// ScriptVerifier derives a ScriptVerification from content. It never fails.
type ScriptVerifier interface {
	Verify(url, content string) domain.ScriptVerification
}

// TrustStore maps URLs to previously vetted SHA-256 digests.
type TrustStore interface {
	Lookup(url string) (string, bool)
}

// ScriptRunner spawns script content as a shell process with inherited stdio.
// A non-zero exit is reported in the result, not as an error.
type ScriptRunner interface {
	Run(ctx context.Context, content string) (domain.ExecutionResult, error)
}

// Prompter provides the interactive primitives the decision flow needs.
type Prompter interface {
	Select(message string, options []string, defaultIndex int) (int, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Input(message, defaultValue string) (string, error)
}

// Presenter renders operator-facing output of the pipeline.
type Presenter interface {
	Status(format string, args ...interface{})
	Preview(preview domain.ScriptPreview)
	FullScript(content string)
}

// AuditSink records pipeline decisions. It is fire-and-forget.
type AuditSink interface {
	LogAction(action string, success bool, detail string)
}

// AuditRepository persists audit events and reads them back. Events are
// append-only: there is no update or delete.
type AuditRepository interface {
	Append(event domain.AuditEvent) error
	Events(limit int, search string) ([]domain.AuditEvent, error)
	ExportJSON(dest string) error
	Path() string
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
