package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// MigrationRunner creates the audit schema at startup. Statements are
// idempotent so repeated runs are safe.
type MigrationRunner struct {
	version string
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner() *MigrationRunner {
	return &MigrationRunner{version: "1.0.0"}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAuditEventsTable(ctx, db); err != nil {
		return fmt.Errorf("create audit_events table: %w", err)
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

func (r *MigrationRunner) createAuditEventsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id UUID PRIMARY KEY,
			event_type VARCHAR(50) NOT NULL,
			session_id VARCHAR(100) NOT NULL,
			model_id VARCHAR(100),
			method VARCHAR(50),
			details JSONB,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_audit_events_session_created
		ON audit_events (session_id, created_at DESC)
	`)
	return err
}
