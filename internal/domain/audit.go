package domain

import "time"

// Audit action names.
const (
	ActionReviewStart     = "script_review_start"
	ActionScriptFetch     = "script_fetch"
	ActionScriptWarnings  = "script_warnings"
	ActionScriptCancelled = "script_cancelled"
	ActionScriptDryRun    = "script_dry_run"
	ActionExecuteStart    = "script_execute_start"
	ActionScriptExecute   = "script_execute"
	ActionSavedLocally    = "script_saved_locally"
	ActionScriptScan      = "script_scan"
	ActionCacheWrite      = "script_cache_write"

	ActionHTTPRetry           = "http_retry"
	ActionHTTPFetch           = "http_fetch"
	ActionHTTPRateLimited     = "http_rate_limited"
	ActionHTTPFallback        = "http_fallback"
	ActionHTTPFallbackSuccess = "http_fallback_success"
	ActionHTTPFallbackFailed  = "http_fallback_failed"
)

// AuditEvent is a write-once record of a pipeline decision.
type AuditEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	Detail    string    `json:"detail,omitempty"`
}

// Status renders the success flag the way history.log lines do.
func (e AuditEvent) Status() string {
	if e.Success {
		return "SUCCESS"
	}
	return "FAILED"
}
