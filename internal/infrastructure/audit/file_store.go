package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/ports"
)

// FileStore appends audit events to a plain-text history log, one line per
// event: "[YYYY-MM-DD HH:MM:SS] SUCCESS - action detail".
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Append implements ports.AuditRepository.
func (f *FileStore) Append(event domain.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.WriteString(FormatLine(event) + "\n")
	return err
}

// Events returns events newest first. A non-empty search keeps events whose
// action or detail contains it; limit <= 0 returns everything.
func (f *FileStore) Events(limit int, search string) ([]domain.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var all []domain.AuditEvent
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		event, ok := ParseLine(scanner.Text())
		if !ok || !matches(event, search) {
			continue
		}
		all = append(all, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	events := make([]domain.AuditEvent, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		events = append(events, all[i])
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

// ExportJSON writes every event to dest as JSON lines.
func (f *FileStore) ExportJSON(dest string) error {
	events, err := f.Events(0, "")
	if err != nil {
		return err
	}
	return writeJSONLines(dest, events)
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// FormatLine renders an event as a history log line.
func FormatLine(event domain.AuditEvent) string {
	line := fmt.Sprintf("[%s] %s - %s", event.Timestamp.Format(domain.AuditLineTimeFormat), event.Status(), event.Action)
	if event.Detail != "" {
		line += " " + flatten(event.Detail)
	}
	return line
}

// ParseLine reads a line written by FormatLine. Malformed lines are skipped.
func ParseLine(line string) (domain.AuditEvent, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return domain.AuditEvent{}, false
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return domain.AuditEvent{}, false
	}
	ts, err := time.ParseInLocation(domain.AuditLineTimeFormat, line[1:end], time.Local)
	if err != nil {
		return domain.AuditEvent{}, false
	}
	status, rest, ok := strings.Cut(line[end+2:], " - ")
	if !ok || (status != "SUCCESS" && status != "FAILED") {
		return domain.AuditEvent{}, false
	}
	action, detail, _ := strings.Cut(rest, " ")
	if action == "" {
		return domain.AuditEvent{}, false
	}
	return domain.AuditEvent{
		Timestamp: ts,
		Action:    action,
		Success:   status == "SUCCESS",
		Detail:    detail,
	}, true
}

func matches(event domain.AuditEvent, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(event.Action, search) || strings.Contains(event.Detail, search)
}

// flatten keeps one event per line.
func flatten(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

func writeJSONLines(dest string, events []domain.AuditEvent) error {
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return err
		}
	}
	return nil
}

var _ ports.AuditRepository = (*FileStore)(nil)
