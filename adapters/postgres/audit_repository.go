package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pkiage/tool-credit-risk-modelling/internal/audit"
)

// AuditRepository persists audit events to Postgres. It satisfies
// audit.Sink; the recorder treats write failures as non-fatal.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new PostgreSQL audit repository
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// auditRow mirrors the audit_events table for sqlx binding.
type auditRow struct {
	ID         string         `db:"id"`
	EventType  string         `db:"event_type"`
	SessionID  string         `db:"session_id"`
	ModelID    sql.NullString `db:"model_id"`
	Method     sql.NullString `db:"method"`
	Details    []byte         `db:"details"`
	DurationMS int64          `db:"duration_ms"`
	CreatedAt  time.Time      `db:"created_at"`
}

// Write inserts one audit event.
func (r *AuditRepository) Write(ctx context.Context, e audit.Event) error {
	row := auditRow{
		ID:         e.ID,
		EventType:  string(e.Type),
		SessionID:  e.SessionID,
		DurationMS: e.DurationMS,
		CreatedAt:  e.CreatedAt,
	}
	if e.ModelID != "" {
		row.ModelID = sql.NullString{String: e.ModelID, Valid: true}
	}
	if e.Method != "" {
		row.Method = sql.NullString{String: e.Method, Valid: true}
	}
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		row.Details = b
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO audit_events (
			id, event_type, session_id, model_id, method, details, duration_ms, created_at
		) VALUES (
			:id, :event_type, :session_id, :model_id, :method, :details, :duration_ms, :created_at
		)
	`, row)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
