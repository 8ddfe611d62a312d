package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// AuditLog is one row of audit_logs: who did what to which entity.
type AuditLog struct {
	ActorID  string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log AuditLog) error
}

// Execer runs a statement. *pgxpool.Pool and pgx.Tx satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrAuditIncomplete rejects entries missing action, entity or entity id.
var ErrAuditIncomplete = errors.New("audit log requires action, entity and entity id")

const insertAuditSQL = `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db  Execer
	now func() time.Time
}

// NewAuditLogger returns an AuditLogger writing through db.
func NewAuditLogger(db Execer) *AuditLogger {
	return &AuditLogger{db: db, now: time.Now}
}

// Record validates and persists the entry. A zero At is stamped with the
// current UTC time.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return ErrAuditIncomplete
	}
	meta := log.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("audit: encode meta: %w", err)
	}
	at := log.At
	if at.IsZero() {
		at = l.now().UTC()
	}
	var actor any
	if log.ActorID != "" {
		actor = log.ActorID
	}
	if _, err := l.db.Exec(ctx, insertAuditSQL, actor, log.Action, log.Entity, log.EntityID, metaJSON, at); err != nil {
		return fmt.Errorf("audit: insert %s: %w", log.Action, err)
	}
	return nil
}

var _ AuditRecorder = (*AuditLogger)(nil)
