package commands

// CLI-specific constants
const (
	// DefaultEditorCommand is the default editor command
	DefaultEditorCommand = "vi"
	// EnvKeyEditor names the editor environment variable
	EnvKeyEditor = "EDITOR"
	// TimestampFormat is how audit and cache timestamps are listed
	TimestampFormat = "2006-01-02 15:04:05"
	// MaxAuditAnalysisEvents bounds how many events `audit stats` reads
	MaxAuditAnalysisEvents = 1000
	// TopActionsShown is how many actions `audit stats` ranks
	TopActionsShown = 5
)

// Process exit codes of `scriptgate run`.
const (
	ExitOK            = 0
	ExitPipelineError = 1
	ExitNotRun        = 2
)

// Error messages
const (
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrAuditStoreUnavailable    = "audit store unavailable"
	ErrCacheStoreUnavailable    = "cache store unavailable"
	ErrScriptServiceUnavailable = "script service unavailable"
	ErrQueryRequired            = "--query required"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoAuditRecorded          = "No audit events recorded yet."
	MsgNoCachedScripts          = "No cached scripts."
	MsgClearCancelled           = "Clear cancelled."
)
