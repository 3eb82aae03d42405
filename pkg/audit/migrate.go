package audit

import (
	"context"
	"fmt"
)

func (l *Log) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS audit_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		kind       TEXT    NOT NULL CHECK(length(kind) > 0),
		user_id    INTEGER NOT NULL DEFAULT 0,
		patient_id INTEGER NOT NULL DEFAULT 0,
		outcome    TEXT    NOT NULL DEFAULT 'ok',
		request_id TEXT    NOT NULL DEFAULT '',
		detail     TEXT    NOT NULL DEFAULT '',
		created_at TEXT    NOT NULL,
		prev_hash  TEXT    NOT NULL,
		hash       TEXT    NOT NULL UNIQUE
	);
	`
	if err := l.ensureSchemaMigrations(ctx); err != nil {
		return err
	}
	currentVersion, err := l.getSchemaVersion(ctx)
	if err != nil {
		return err
	}

	migrations := []struct {
		version    int
		statements []string
	}{
		{
			version:    1,
			statements: []string{schema},
		},
		{
			version: 2,
			statements: []string{
				"CREATE INDEX IF NOT EXISTS idx_audit_events_patient ON audit_events(patient_id)",
			},
		},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		for _, stmt := range m.statements {
			if err := l.execMigration(ctx, stmt); err != nil {
				return err
			}
		}
		if err := l.setSchemaVersion(ctx, m.version); err != nil {
			return err
		}
	}
	return nil
}

func (l *Log) ensureSchemaMigrations(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("audit: create schema_migrations: %w", err)
	}
	var count int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return fmt.Errorf("audit: check schema_migrations: %w", err)
	}
	if count == 0 {
		if _, err := l.db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (0)"); err != nil {
			return fmt.Errorf("audit: init schema_migrations: %w", err)
		}
	}
	return nil
}

func (l *Log) getSchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := l.db.QueryRowContext(ctx, "SELECT version FROM schema_migrations LIMIT 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("audit: read schema version: %w", err)
	}
	return version, nil
}

func (l *Log) setSchemaVersion(ctx context.Context, version int) error {
	if _, err := l.db.ExecContext(ctx, "UPDATE schema_migrations SET version = ?", version); err != nil {
		return fmt.Errorf("audit: update schema version: %w", err)
	}
	return nil
}

func (l *Log) execMigration(ctx context.Context, stmt string) error {
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("audit: migrate: %w", err)
	}
	return nil
}
