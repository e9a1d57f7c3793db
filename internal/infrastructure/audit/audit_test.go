package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/pkg/logger"
)

func sampleEvent(action string, success bool, detail string, at time.Time) domain.AuditEvent {
	return domain.AuditEvent{ID: action + "-id", Timestamp: at, Action: action, Success: success, Detail: detail}
}

func TestFormatAndParseLine(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)
	event := sampleEvent(domain.ActionScriptCancelled, false, "reason:user_cancelled sha256:abc", at)

	line := FormatLine(event)
	assert.Equal(t, "[2024-05-06 07:08:09] FAILED - script_cancelled reason:user_cancelled sha256:abc", line)

	parsed, ok := ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, event.Action, parsed.Action)
	assert.Equal(t, event.Detail, parsed.Detail)
	assert.False(t, parsed.Success)
	assert.True(t, parsed.Timestamp.Equal(at))
}

func TestFormatLineFlattensNewlines(t *testing.T) {
	line := FormatLine(sampleEvent("http_fetch", true, "a\nb", time.Now()))
	assert.NotContains(t, line, "\n")
	assert.True(t, strings.HasSuffix(line, "http_fetch a b"))
}

func TestParseLineRejectsGarbage(t *testing.T) {
	for _, line := range []string{
		"",
		"no brackets here",
		"[not a time] SUCCESS - x",
		"[2024-05-06 07:08:09] MAYBE - x",
		"[2024-05-06 07:08:09] SUCCESS -",
	} {
		_, ok := ParseLine(line)
		assert.False(t, ok, "line %q should not parse", line)
	}
}

func TestFileStoreEventsNewestFirstWithSearchAndLimit(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", domain.AuditLogFileName))
	base := time.Now().Truncate(time.Second)
	require.NoError(t, store.Append(sampleEvent(domain.ActionReviewStart, true, "name:a", base)))
	require.NoError(t, store.Append(sampleEvent(domain.ActionScriptExecute, true, "exit:0", base.Add(time.Second))))
	require.NoError(t, store.Append(sampleEvent(domain.ActionReviewStart, true, "name:b", base.Add(2*time.Second))))

	events, err := store.Events(0, "")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "name:b", events[0].Detail)
	assert.Equal(t, "name:a", events[2].Detail)

	events, err = store.Events(1, "review")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "name:b", events[0].Detail)
}

func TestFileStoreExportJSON(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, domain.AuditLogFileName))
	require.NoError(t, store.Append(sampleEvent(domain.ActionScriptDryRun, true, "sha256:abc", time.Now())))

	dest := filepath.Join(dir, "export.jsonl")
	require.NoError(t, store.ExportJSON(dest))

	file, err := os.Open(dest)
	require.NoError(t, err)
	defer file.Close()
	scanner := bufio.NewScanner(file)
	require.True(t, scanner.Scan())
	var event domain.AuditEvent
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
	assert.Equal(t, domain.ActionScriptDryRun, event.Action)
	assert.Equal(t, "sha256:abc", event.Detail)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), domain.AuditDBFileName))
	defer store.Close()
	if store.Degraded() {
		t.Skip("sqlite unavailable")
	}
	base := time.Now()
	require.NoError(t, store.Append(sampleEvent(domain.ActionReviewStart, true, "name:demo", base)))
	require.NoError(t, store.Append(sampleEvent(domain.ActionScriptCancelled, false, "reason:user_cancelled", base.Add(time.Millisecond))))

	events, err := store.Events(0, "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.ActionScriptCancelled, events[0].Action)
	assert.False(t, events[0].Success)
	assert.Equal(t, domain.ActionScriptCancelled+"-id", events[0].ID)

	events, err = store.Events(10, "reason:")
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestSQLiteStoreFallsBackToHistoryLog(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o600))

	store := NewSQLiteStore(filepath.Join(blocker, domain.AuditDBFileName))
	assert.True(t, store.Degraded())
	assert.Equal(t, filepath.Join(blocker, domain.AuditLogFileName), store.Path())
}

// failingRepo rejects every write.
type failingRepo struct {
	memoryRepo
}

func (failingRepo) Append(domain.AuditEvent) error {
	return errors.New("disk full")
}

func TestRecorderWritesStructuredRecordAndStore(t *testing.T) {
	var buf bytes.Buffer
	structured := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := NewFileStore(filepath.Join(t.TempDir(), domain.AuditLogFileName))
	rec := NewRecorder(store, structured, logger.Discard())

	rec.LogAction(domain.ActionScriptExecute, true, "exit:0 sha256:abc")

	out := buf.String()
	assert.Contains(t, out, "audit_type="+domain.AuditType)
	assert.Contains(t, out, "action="+domain.ActionScriptExecute)

	events, err := store.Events(0, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "exit:0 sha256:abc", events[0].Detail)
}

func TestRecorderAssignsUniqueIDs(t *testing.T) {
	var seen []string
	repo := &memoryRepo{}
	rec := NewRecorder(repo, nil, nil)
	rec.LogAction("a", true, "")
	rec.LogAction("b", true, "")
	for _, e := range repo.events {
		seen = append(seen, e.ID)
	}
	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0])
	assert.NotEqual(t, seen[0], seen[1])
}

func TestRecorderKeepsDiagnosticLogQuietWithoutVerbose(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, false)
	repo := &memoryRepo{}
	rec := NewRecorder(repo, log.Slog(), log)

	rec.LogAction(domain.ActionReviewStart, true, "name:x url:y")
	rec.LogAction(domain.ActionScriptFetch, true, "bytes:10")

	assert.Empty(t, buf.String())
	assert.Len(t, repo.events, 2)
}

func TestRecorderMirrorsEventsToVerboseLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, true)
	rec := NewRecorder(nil, log.Slog(), log)

	rec.LogAction(domain.ActionReviewStart, true, "name:x url:y")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "action="+domain.ActionReviewStart)
}

func TestRecorderSwallowsStoreErrors(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&failingRepo{}, nil, logger.New(&buf, false))

	assert.NotPanics(t, func() { rec.LogAction(domain.ActionScriptFetch, true, "") })
	assert.Contains(t, buf.String(), "audit store write failed")
}

func TestOpenRepositorySelectsBackend(t *testing.T) {
	dir := t.TempDir()
	fileRepo := OpenRepository(domain.AuditSettings{Backend: domain.AuditBackendFile, Path: filepath.Join(dir, "h.log")})
	_, ok := fileRepo.(*FileStore)
	assert.True(t, ok)

	sqlRepo := OpenRepository(domain.AuditSettings{Backend: domain.AuditBackendSQLite, Path: filepath.Join(dir, "a.db")})
	store, ok := sqlRepo.(*SQLiteStore)
	require.True(t, ok)
	_ = store.Close()
}

type memoryRepo struct {
	events []domain.AuditEvent
}

func (m *memoryRepo) Append(e domain.AuditEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memoryRepo) Events(int, string) ([]domain.AuditEvent, error) {
	return m.events, nil
}

func (m *memoryRepo) ExportJSON(string) error {
	return nil
}

func (m *memoryRepo) Path() string {
	return ""
}
