package audit

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/ports"
)

// SQLiteStore persists audit events in a SQLite database. When the database
// cannot be opened it delegates to a FileStore next to it.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	fallback *FileStore
	mu       sync.Mutex
}

// NewSQLiteStore creates (or opens) the database at path.
func NewSQLiteStore(path string) *SQLiteStore {
	fallback := NewFileStore(filepath.Join(filepath.Dir(path), domain.AuditLogFileName))
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		_ = db.Close()
		return &SQLiteStore{path: path, fallback: fallback}
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS audit_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		action TEXT NOT NULL,
		success INTEGER NOT NULL,
		detail TEXT
	);`)
	return err
}

// Degraded reports whether the store fell back to the history log.
func (s *SQLiteStore) Degraded() bool {
	return s.db == nil
}

// Append inserts a new event.
func (s *SQLiteStore) Append(event domain.AuditEvent) error {
	if s.db == nil {
		return s.fallback.Append(event)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO audit_events (id, timestamp, action, success, detail)
		VALUES (?, ?, ?, ?, ?)`,
		event.ID,
		event.Timestamp.Format(time.RFC3339Nano),
		event.Action,
		boolToInt(event.Success),
		event.Detail,
	)
	return err
}

// Events returns events newest first (limit/search optional).
func (s *SQLiteStore) Events(limit int, search string) ([]domain.AuditEvent, error) {
	if s.db == nil {
		return s.fallback.Events(limit, search)
	}
	builder := strings.Builder{}
	builder.WriteString("SELECT id, timestamp, action, success, detail FROM audit_events")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE action LIKE ? OR detail LIKE ?")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	builder.WriteString(" ORDER BY seq DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var ts string
		var success int
		var detail sql.NullString
		if err := rows.Scan(&event.ID, &ts, &event.Action, &success, &detail); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			event.Timestamp = t
		}
		event.Success = success == 1
		event.Detail = detail.String
		events = append(events, event)
	}
	return events, rows.Err()
}

// ExportJSON writes the audit table to a jsonl file.
func (s *SQLiteStore) ExportJSON(dest string) error {
	events, err := s.Events(0, "")
	if err != nil {
		return err
	}
	return writeJSONLines(dest, events)
}

// Path returns the database path, or the history log path when degraded.
func (s *SQLiteStore) Path() string {
	if s.db == nil {
		return s.fallback.Path()
	}
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.AuditRepository = (*SQLiteStore)(nil)
