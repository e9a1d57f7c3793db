// Package script implements the review-then-execute pipeline for remote
// shell scripts: fetch (cache-aware), verify, preview, decide, record.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/pkg/digest"
	"github.com/doeshing/scriptgate/internal/ports"
)

// Menu labels, in domain.Choice order.
const (
	LabelExecute             = "Execute script"
	LabelExecuteWithWarnings = "Execute script (with warnings)"
	LabelViewFull            = "View full script"
	LabelSave                = "Save script locally"
	LabelCancel              = "Cancel"

	PromptChooseAction = "Choose action"
	PromptWarnings     = "Script has warnings. Are you sure you want to execute?"
	PromptAfterReview  = "Execute this script?"
)

// Service drives one script through the confirm-and-execute state machine.
type Service struct {
	Fetcher    ports.ScriptFetcher
	Cache      ports.ScriptCache
	Verifier   ports.ScriptVerifier
	TrustStore ports.TrustStore
	Runner     ports.ScriptRunner
	Prompter   ports.Prompter
	Presenter  ports.Presenter
	Audit      ports.AuditSink
	Logger     ports.Logger
}

type state int

const (
	stateAwaitingDecision state = iota
	stateConfirmingWarnings
	stateReviewingFullScript
	stateCheckingTrust
	stateExecuting
	stateSaving
	stateCancelled
)

// run carries everything the states share.
type run struct {
	name         string
	url          string
	content      string
	cfg          domain.ScriptSafetyConfig
	verification domain.ScriptVerification
	trust        domain.TrustResult
	report       domain.RunReport
	reason       string
}

// ConfirmAndExecute fetches, verifies and previews the script, asks the
// operator what to do and carries the decision out. Cancellation, saving and
// non-zero exits are outcomes in the report, not errors; errors are reserved
// for fetch failures and failures to spawn or save.
func (s *Service) ConfirmAndExecute(ctx context.Context, name, url string, cfg domain.ScriptSafetyConfig) (domain.RunReport, error) {
	if err := s.validate(); err != nil {
		return domain.RunReport{}, err
	}

	s.Presenter.Status("")
	s.Presenter.Status("Script: %s", name)
	s.Presenter.Status("URL: %s", url)
	s.audit(domain.ActionReviewStart, true, fmt.Sprintf("name:%s url:%s", name, url))

	content, fromCache, err := s.load(ctx, url, cfg)
	if err != nil {
		return domain.RunReport{Name: name, URL: url}, err
	}

	r := &run{
		name:         name,
		url:          url,
		content:      content,
		cfg:          cfg,
		verification: s.Verifier.Verify(url, content),
	}
	r.trust = s.trustFor(r.verification)
	r.report = domain.RunReport{
		Name:      name,
		URL:       url,
		SHA256:    r.verification.SHA256,
		FromCache: fromCache,
		Warnings:  r.verification.Warnings(),
	}

	if len(r.report.Warnings) > 0 {
		s.audit(domain.ActionScriptWarnings, true, fmt.Sprintf("name:%s sha256:%s warnings:%s",
			name, r.verification.SHA256, strings.Join(r.report.Warnings, "; ")))
	}

	s.Presenter.Preview(domain.ScriptPreview{
		Name:         name,
		URL:          url,
		Content:      content,
		Verification: r.verification,
		Trust:        r.trust,
		ShowContent:  cfg.ShowPreview,
		PreviewLines: cfg.PreviewLines,
	})

	return s.decide(ctx, r)
}

// decide walks the decision states until one of them finishes the run.
func (s *Service) decide(ctx context.Context, r *run) (domain.RunReport, error) {
	st := stateAwaitingDecision
	for {
		switch st {
		case stateAwaitingDecision:
			st = s.awaitDecision(r)
		case stateConfirmingWarnings:
			if s.confirm(PromptWarnings) {
				st = stateCheckingTrust
			} else {
				r.reason = domain.ReasonDeclinedWarnings
				st = stateCancelled
			}
		case stateReviewingFullScript:
			s.Presenter.Status("")
			s.Presenter.FullScript(r.content)
			if s.confirm(PromptAfterReview) {
				st = stateCheckingTrust
			} else {
				r.reason = domain.ReasonDeclinedAfterReview
				st = stateCancelled
			}
		case stateCheckingTrust:
			st = s.checkTrust(r)
		case stateExecuting:
			return s.execute(ctx, r)
		case stateSaving:
			return s.save(r)
		case stateCancelled:
			return s.cancel(r), nil
		default:
			return r.report, fmt.Errorf("unknown pipeline state %d", st)
		}
	}
}

func (s *Service) awaitDecision(r *run) state {
	hasWarnings := r.verification.HasWarnings()
	options, defaultIndex := MenuOptions(hasWarnings)

	idx, err := s.Prompter.Select(PromptChooseAction, options, defaultIndex)
	if err != nil {
		s.log().Debug("action menu failed, treating as cancel", map[string]interface{}{"error": err.Error()})
		idx = int(domain.ChoiceCancel)
	}

	switch domain.Choice(idx) {
	case domain.ChoiceExecute:
		if hasWarnings {
			return stateConfirmingWarnings
		}
		return stateCheckingTrust
	case domain.ChoiceViewFull:
		return stateReviewingFullScript
	case domain.ChoiceSave:
		return stateSaving
	default:
		r.reason = domain.ReasonUserCancelled
		return stateCancelled
	}
}

// checkTrust enforces require_checksum before anything runs, dry run included.
func (s *Service) checkTrust(r *run) state {
	if !r.cfg.RequireChecksum {
		return stateExecuting
	}
	switch r.trust.Status {
	case domain.TrustVerified:
		return stateExecuting
	case domain.TrustMismatch:
		s.Presenter.Status("Refusing to execute: checksum does not match the known good hash")
		r.reason = domain.ReasonChecksumMismatch
	default:
		s.Presenter.Status("Refusing to execute: no known checksum for this URL and checksums are required")
		r.reason = domain.ReasonChecksumRequired
	}
	return stateCancelled
}

func (s *Service) execute(ctx context.Context, r *run) (domain.RunReport, error) {
	sha := r.verification.SHA256
	if r.cfg.DryRun {
		s.Presenter.Status("[DRY RUN] Would execute script: %s", r.name)
		s.Presenter.Status("Script content SHA256: %s", sha)
		s.audit(domain.ActionScriptDryRun, true, fmt.Sprintf("name:%s sha256:%s", r.name, sha))
		r.report.Outcome = domain.OutcomeDryRun
		return r.report, nil
	}

	s.Presenter.Status("")
	s.Presenter.Status("Executing script: %s...", r.name)
	s.audit(domain.ActionExecuteStart, true, fmt.Sprintf("name:%s sha256:%s", r.name, sha))

	result, err := s.Runner.Run(ctx, r.content)
	r.report.ExitCode = result.ExitCode
	if err != nil {
		s.Presenter.Status("Failed to execute script: %v", err)
		s.audit(domain.ActionScriptExecute, false, fmt.Sprintf("name:%s sha256:%s error:%v", r.name, sha, err))
		r.report.Outcome = domain.OutcomeExecutionFailed
		return r.report, fmt.Errorf("execute %s: %w", r.name, err)
	}

	detail := fmt.Sprintf("name:%s sha256:%s exit:%d", r.name, sha, result.ExitCode)
	if result.ExitCode != 0 {
		s.Presenter.Status("Script failed with exit code: %d", result.ExitCode)
		s.audit(domain.ActionScriptExecute, false, detail)
		r.report.Outcome = domain.OutcomeExecutionFailed
		return r.report, nil
	}
	s.Presenter.Status("Script executed successfully")
	s.audit(domain.ActionScriptExecute, true, detail)
	r.report.Outcome = domain.OutcomeExecuted
	return r.report, nil
}

func (s *Service) save(r *run) (domain.RunReport, error) {
	sha := r.verification.SHA256
	path, err := s.Cache.SaveNamed(r.name, r.content)
	if err != nil {
		s.Presenter.Status("Failed to save script: %v", err)
		s.audit(domain.ActionSavedLocally, false, fmt.Sprintf("name:%s sha256:%s error:%v", r.name, sha, err))
		return r.report, fmt.Errorf("save %s: %w", r.name, err)
	}
	s.Presenter.Status("Script saved to: %s", path)
	s.Presenter.Status("You can review and execute it manually with: bash %s", path)
	s.audit(domain.ActionSavedLocally, true, fmt.Sprintf("name:%s sha256:%s path:%s", r.name, sha, path))
	r.report.Outcome = domain.OutcomeSaved
	r.report.SavedPath = path
	return r.report, nil
}

func (s *Service) cancel(r *run) domain.RunReport {
	if r.reason == "" {
		r.reason = domain.ReasonUserCancelled
	}
	s.Presenter.Status("Execution cancelled")
	s.audit(domain.ActionScriptCancelled, true, fmt.Sprintf("name:%s sha256:%s reason:%s", r.name, r.verification.SHA256, r.reason))
	r.report.Outcome = domain.OutcomeCancelled
	r.report.Reason = r.reason
	return r.report
}

// Scan fetches and verifies a script without offering to run it.
func (s *Service) Scan(ctx context.Context, url string, cfg domain.ScriptSafetyConfig) (domain.ScanReport, error) {
	if s.Fetcher == nil || s.Verifier == nil || s.Presenter == nil {
		return domain.ScanReport{}, errors.New("script.Service dependencies not satisfied")
	}
	content, fromCache, err := s.load(ctx, url, cfg)
	if err != nil {
		return domain.ScanReport{}, err
	}
	v := s.Verifier.Verify(url, content)
	report := domain.ScanReport{
		Verification: v,
		Trust:        s.trustFor(v),
		FromCache:    fromCache,
	}
	s.audit(domain.ActionScriptScan, true, fmt.Sprintf("url:%s sha256:%s warnings:%d trust:%s",
		url, v.SHA256, len(v.Warnings()), report.Trust.Status))
	return report, nil
}

// load returns the script body from the cache or the network. Cache failures
// are downgraded to warnings.
func (s *Service) load(ctx context.Context, url string, cfg domain.ScriptSafetyConfig) (string, bool, error) {
	if cfg.CacheScripts && s.Cache != nil {
		cached, ok, err := s.Cache.Get(url)
		switch {
		case err != nil:
			s.log().Warn("script cache read failed", map[string]interface{}{"url": url, "error": err.Error()})
		case ok:
			s.Presenter.Status("Using cached script (cached at %s)", cached.CachedAt.Format(domain.AuditLineTimeFormat))
			s.audit(domain.ActionScriptFetch, true, fmt.Sprintf("cached: %s sha256:%s", url, cached.SHA256))
			return cached.Content, true, nil
		}
	}

	s.Presenter.Status("Fetching script from: %s", url)
	content, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		s.audit(domain.ActionScriptFetch, false, fmt.Sprintf("failed: %s error:%v", url, err))
		return "", false, fmt.Errorf("failed to fetch script: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		s.audit(domain.ActionScriptFetch, false, fmt.Sprintf("empty script from %s", url))
		return "", false, fmt.Errorf("%w: %s", domain.ErrEmptyScript, url)
	}

	if cfg.CacheScripts && s.Cache != nil {
		if err := s.Cache.Put(url, content); err != nil {
			s.Presenter.Status("Warning: could not cache script: %v", err)
			s.log().Warn("script cache write failed", map[string]interface{}{"url": url, "error": err.Error()})
			s.audit(domain.ActionCacheWrite, false, fmt.Sprintf("url:%s error:%v", url, err))
		}
	}

	s.audit(domain.ActionScriptFetch, true, fmt.Sprintf("fresh: %s sha256:%s", url, digest.SHA256Hex(content)))
	return content, false, nil
}

// MenuOptions returns the action labels and the pre-selected index. With
// warnings the default moves from Execute to Cancel.
func MenuOptions(hasWarnings bool) ([]string, int) {
	execute := LabelExecute
	defaultIndex := int(domain.ChoiceExecute)
	if hasWarnings {
		execute = LabelExecuteWithWarnings
		defaultIndex = int(domain.ChoiceCancel)
	}
	return []string{execute, LabelViewFull, LabelSave, LabelCancel}, defaultIndex
}

func (s *Service) trustFor(v domain.ScriptVerification) domain.TrustResult {
	if s.TrustStore == nil {
		return domain.EvaluateTrust("", false, v.SHA256)
	}
	expected, ok := s.TrustStore.Lookup(v.SourceURL)
	return domain.EvaluateTrust(expected, ok, v.SHA256)
}

func (s *Service) confirm(message string) bool {
	ok, err := s.Prompter.Confirm(message, false)
	if err != nil {
		s.log().Debug("confirmation failed, treating as no", map[string]interface{}{"error": err.Error()})
		return false
	}
	return ok
}

func (s *Service) audit(action string, success bool, detail string) {
	if s.Audit != nil {
		s.Audit.LogAction(action, success, detail)
	}
}

func (s *Service) log() ports.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return nopLogger{}
}

func (s *Service) validate() error {
	if s.Fetcher == nil || s.Verifier == nil || s.Runner == nil || s.Prompter == nil || s.Presenter == nil || s.Cache == nil {
		return errors.New("script.Service dependencies not satisfied")
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}
