// Package audit records pipeline decisions as structured log records and
// persists them to an append-only store.
package audit

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/pkg/filesystem"
	"github.com/doeshing/scriptgate/internal/ports"
)

// Recorder implements ports.AuditSink. Recording never fails the caller:
// store errors are logged and dropped. The structured copy goes to the
// diagnostic log at debug level; the store holds the audit record.
type Recorder struct {
	repo   ports.AuditRepository
	slog   *slog.Logger
	logger ports.Logger
	now    func() time.Time
	newID  func() string
}

// NewRecorder wires a recorder. repo, structured and logger may each be nil.
func NewRecorder(repo ports.AuditRepository, structured *slog.Logger, logger ports.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		slog:   structured,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// LogAction implements ports.AuditSink.
func (r *Recorder) LogAction(action string, success bool, detail string) {
	event := domain.AuditEvent{
		ID:        r.newID(),
		Timestamp: r.now(),
		Action:    action,
		Success:   success,
		Detail:    detail,
	}
	if r.slog != nil {
		r.slog.Debug("audit",
			slog.String("audit_type", domain.AuditType),
			slog.String("id", event.ID),
			slog.String("action", event.Action),
			slog.Bool("success", event.Success),
			slog.String("detail", event.Detail),
		)
	}
	if r.repo == nil {
		return
	}
	if err := r.repo.Append(event); err != nil && r.logger != nil {
		r.logger.Warn("audit store write failed", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
	}
}

// Repository exposes the backing store, which may be nil.
func (r *Recorder) Repository() ports.AuditRepository {
	return r.repo
}

// OpenRepository builds the store selected by settings. An empty path
// selects a file under the user data directory.
func OpenRepository(settings domain.AuditSettings) ports.AuditRepository {
	path := filesystem.ExpandPath(settings.Path)
	switch settings.Backend {
	case domain.AuditBackendFile:
		if path == "" {
			path = filepath.Join(filesystem.DataDir(), domain.AuditLogFileName)
		}
		return NewFileStore(path)
	default:
		if path == "" {
			path = filepath.Join(filesystem.DataDir(), domain.AuditDBFileName)
		}
		return NewSQLiteStore(path)
	}
}

var _ ports.AuditSink = (*Recorder)(nil)
