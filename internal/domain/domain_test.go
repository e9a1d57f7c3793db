package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestDelayForFollowsScheduleAndReusesLast(t *testing.T) {
	cfg := DefaultFetchConfig()
	cases := map[int]time.Duration{
		0: 0,
		1: time.Second,
		2: 3 * time.Second,
		3: 10 * time.Second,
		7: 10 * time.Second,
	}
	for attempt, want := range cases {
		if got := cfg.DelayFor(attempt); got != want {
			t.Errorf("DelayFor(%d) = %s, want %s", attempt, got, want)
		}
	}

	empty := FetchConfig{}
	if got := empty.DelayFor(3); got != 0 {
		t.Fatalf("empty schedule should not wait, got %s", got)
	}
}

func TestWarningsOrderFollowsFlags(t *testing.T) {
	v := ScriptVerification{HasSudo: true, HasCurlPipe: true}
	got := v.Warnings()
	if len(got) != 2 || got[0] != WarningSudo || got[1] != WarningCurlPipe {
		t.Fatalf("unexpected warnings %v", got)
	}
	if !v.HasWarnings() {
		t.Fatal("HasWarnings should be true")
	}
	if (ScriptVerification{}).HasWarnings() {
		t.Fatal("clean verification should have no warnings")
	}
}

func TestFetchErrorClassification(t *testing.T) {
	tests := []struct {
		status      int
		rateLimited bool
	}{
		{status: http.StatusForbidden, rateLimited: true},
		{status: http.StatusTooManyRequests, rateLimited: true},
		{status: http.StatusNotFound, rateLimited: false},
		{status: 0, rateLimited: false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			var err error = fmt.Errorf("wrapped: %w", &FetchError{URL: "https://example.com", StatusCode: tt.status, Err: errors.New("boom")})
			if errors.Is(err, ErrRateLimited) != tt.rateLimited {
				t.Fatalf("ErrRateLimited match = %v", !tt.rateLimited)
			}
			if errors.Is(err, ErrNetwork) == tt.rateLimited {
				t.Fatalf("ErrNetwork match = %v", tt.rateLimited)
			}
		})
	}
}

func TestRunReportSucceeded(t *testing.T) {
	for outcome, want := range map[Outcome]bool{
		OutcomeExecuted:        true,
		OutcomeDryRun:          true,
		OutcomeExecutionFailed: false,
		OutcomeSaved:           false,
		OutcomeCancelled:       false,
	} {
		if got := (RunReport{Outcome: outcome}).Succeeded(); got != want {
			t.Errorf("%s: Succeeded() = %v, want %v", outcome, got, want)
		}
	}
}

func TestEvaluateTrust(t *testing.T) {
	const sum = "ABCDEF0123"
	if got := EvaluateTrust("", false, sum); got.Status != TrustUnknown || got.Expected != "" {
		t.Fatalf("unknown url: %+v", got)
	}
	if got := EvaluateTrust("abcdef0123", true, sum); got.Status != TrustVerified {
		t.Fatalf("case-insensitive match expected, got %+v", got)
	}
	if got := EvaluateTrust("ffff", true, sum); got.Status != TrustMismatch || got.Expected != "ffff" {
		t.Fatalf("mismatch expected, got %+v", got)
	}
}

func TestAuditEventStatus(t *testing.T) {
	if (AuditEvent{Success: true}).Status() != "SUCCESS" || (AuditEvent{}).Status() != "FAILED" {
		t.Fatal("unexpected status rendering")
	}
}

func TestHealthReportCounts(t *testing.T) {
	report := HealthReport{Checks: []HealthCheck{
		{Name: "Config file", Status: CheckOK},
		{Name: "Terminal", Status: CheckWarn},
		{Name: "Config file", Status: CheckWarn},
	}}
	if got := report.Count(CheckWarn); got != 2 {
		t.Fatalf("Count(warn) = %d", got)
	}
	if !report.Healthy() {
		t.Fatal("warnings alone should leave the report healthy")
	}

	report.Checks = append(report.Checks, HealthCheck{Name: "Shell", Status: CheckFail})
	if report.Healthy() {
		t.Fatal("a failed check should make the report unhealthy")
	}
}
