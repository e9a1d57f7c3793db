package domain

import (
	"strings"
	"time"
)

// Warning sentences attached to risk flags.
const (
	WarningSudo     = "Script contains sudo commands (requires root privileges)"
	WarningRmRf     = "Script contains 'rm -rf' commands (destructive)"
	WarningCurlPipe = "Script downloads and executes additional scripts (curl|bash)"
)

// CachedScript is a script body served from the local cache.
// CachedAt is the time of the read, not of the original fetch.
type CachedScript struct {
	SourceURL string
	Content   string
	SHA256    string
	CachedAt  time.Time
}

// CacheEntry describes a file in the script cache directory.
type CacheEntry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
	// Saved is true for scripts written by "save locally" rather than keyed by URL hash.
	Saved bool
}

// ScriptVerification is derived from script content and must travel with it.
// The risk flags are substring heuristics, not a security control.
type ScriptVerification struct {
	SourceURL   string
	SHA256      string
	LineCount   int
	SizeBytes   int
	HasSudo     bool
	HasRmRf     bool
	HasCurlPipe bool
}

// Warnings maps each raised risk flag to a human-readable sentence.
func (v ScriptVerification) Warnings() []string {
	var warnings []string
	if v.HasSudo {
		warnings = append(warnings, WarningSudo)
	}
	if v.HasRmRf {
		warnings = append(warnings, WarningRmRf)
	}
	if v.HasCurlPipe {
		warnings = append(warnings, WarningCurlPipe)
	}
	return warnings
}

// HasWarnings reports whether any risk flag is raised.
func (v ScriptVerification) HasWarnings() bool {
	return v.HasSudo || v.HasRmRf || v.HasCurlPipe
}

// TrustStatus is the result of comparing content against the known-checksum table.
type TrustStatus string

const (
	TrustUnknown  TrustStatus = "unknown"
	TrustVerified TrustStatus = "verified"
	TrustMismatch TrustStatus = "mismatch"
)

// TrustResult carries the known checksum alongside the comparison outcome.
type TrustResult struct {
	Status   TrustStatus
	Expected string
	Actual   string
}

// ScriptPreview is everything rendered before the operator chooses an action.
type ScriptPreview struct {
	Name         string
	URL          string
	Content      string
	Verification ScriptVerification
	Trust        TrustResult
	ShowContent  bool
	PreviewLines int
}

// EvaluateTrust compares actual against a known digest. known is false when
// the URL has no entry in the checksum table.
func EvaluateTrust(expected string, known bool, actual string) TrustResult {
	result := TrustResult{Status: TrustUnknown, Actual: actual}
	if !known {
		return result
	}
	result.Expected = expected
	if strings.EqualFold(expected, actual) {
		result.Status = TrustVerified
	} else {
		result.Status = TrustMismatch
	}
	return result
}
