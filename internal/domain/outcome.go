package domain

// Outcome is the terminal state of one confirm-and-execute run.
type Outcome string

const (
	OutcomeExecuted        Outcome = "executed"
	OutcomeExecutionFailed Outcome = "execution_failed"
	OutcomeDryRun          Outcome = "dry_run"
	OutcomeSaved           Outcome = "saved"
	OutcomeCancelled       Outcome = "cancelled"
)

// Cancellation reasons recorded in audit details as reason:<value>.
const (
	ReasonUserCancelled       = "user_cancelled"
	ReasonDeclinedWarnings    = "user_declined_warnings"
	ReasonDeclinedAfterReview = "user_declined_after_review"
	ReasonChecksumRequired    = "checksum_required"
	ReasonChecksumMismatch    = "checksum_mismatch"
)

// Choice is an entry of the top-level action menu, in display order.
type Choice int

const (
	ChoiceExecute Choice = iota
	ChoiceViewFull
	ChoiceSave
	ChoiceCancel
)

// RunReport summarises what happened to a script.
type RunReport struct {
	Name      string
	URL       string
	SHA256    string
	Outcome   Outcome
	Reason    string
	ExitCode  int
	SavedPath string
	FromCache bool
	Warnings  []string
}

// Succeeded is the boolean contract of SafeRunScript: true when the script ran
// and exited zero, or when a dry run walked the full decision flow.
func (r RunReport) Succeeded() bool {
	return r.Outcome == OutcomeExecuted || r.Outcome == OutcomeDryRun
}

// ExecutionResult wraps details from the script runner.
type ExecutionResult struct {
	ExitCode   int
	DurationMS int64
}

// ScanReport is the result of fetching and verifying a script without running it.
type ScanReport struct {
	Verification ScriptVerification
	Trust        TrustResult
	FromCache    bool
}
