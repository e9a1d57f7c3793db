package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// CacheFilePermissions is the permission for cached script bodies (rw-r--r--)
	CacheFilePermissions = 0o644
	// ExecutableFilePermissions is the permission for scripts saved for manual review (rwxr-xr-x)
	ExecutableFilePermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Fetch defaults
const (
	DefaultMaxRetries   = 4
	DefaultFetchTimeout = 30 * time.Second
	DefaultUserAgent    = "scriptgate/1.0 (+https://github.com/doeshing/scriptgate)"
	// MaxScriptBytes bounds how much of a response body is read.
	MaxScriptBytes = 10 << 20
)

// Hosts understood by the mirror resolver
const (
	RawGitHubHost      = "raw.githubusercontent.com"
	GitHubHost         = "github.com"
	GitHubAPIHost      = "api.github.com"
	RawGitHubBase      = "https://" + RawGitHubHost
	JSDelivrGitHubBase = "https://cdn.jsdelivr.net/gh"
	DefaultBranch      = "main"
)

// Cache constants
const (
	// DefaultCacheTTL is how long a fetched script may be reused without refetching
	DefaultCacheTTL = time.Hour
	// CacheKeyLength is the number of hex characters of sha256(url) naming a cache file
	CacheKeyLength = 16
	// ScriptFileExt is appended to cache and saved script file names
	ScriptFileExt = ".sh"
)

// Safety constants
const (
	// DefaultPreviewLines is how many lines of a script the preview shows
	DefaultPreviewLines = 15
)

// Audit constants
const (
	AuditBackendSQLite = "sqlite"
	AuditBackendFile   = "file"
	// AuditDBFileName is the SQLite audit database under the data directory
	AuditDBFileName = "audit.db"
	// AuditLogFileName is the plain-text history log
	AuditLogFileName = "history.log"
	// AuditType tags every structured audit record
	AuditType = "script_pipeline"
	// DefaultAuditLimit is the default number of audit events to display
	DefaultAuditLimit = 20
	// DefaultAuditSearchLimit is the default number of search results to return
	DefaultAuditSearchLimit = 50
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
	// AuditLineTimeFormat is the timestamp layout of history.log lines
	AuditLineTimeFormat = "2006-01-02 15:04:05"
)
