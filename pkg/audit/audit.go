// Package audit keeps a local, tamper-evident trail of what this client did
// to patient records. It stores identifiers and outcomes only, never
// clinical text.
package audit

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"
)

const dbTimeLayout = "2006-01-02 15:04:05"

// Kind names an audited action.
type Kind string

const (
	KindLogin               Kind = "login"
	KindLoginFailed         Kind = "login_failed"
	KindLogout              Kind = "logout"
	KindSessionExpired      Kind = "session_expired"
	KindPatientRegistered   Kind = "patient_registered"
	KindNoteCreated         Kind = "note_created"
	KindVitalsLogged        Kind = "vitals_logged"
	KindAccessShared        Kind = "access_shared"
	KindAccessRevoked       Kind = "access_revoked"
	KindReportDownloaded    Kind = "report_downloaded"
	KindTranscriptionOK     Kind = "transcription_ok"
	KindTranscriptionFailed Kind = "transcription_failed"
)

// Outcomes recorded with an event.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// ErrTampered is returned by Verify when the hash chain does not hold.
var ErrTampered = errors.New("audit: hash chain broken")

var genesis = strings.Repeat("0", 64)

// Event is what callers record.
type Event struct {
	Kind      Kind
	UserID    int64
	PatientID int64
	Outcome   string
	RequestID string
	Detail    string
}

// Entry is a stored event.
type Entry struct {
	ID        int64
	Event     Event
	CreatedAt time.Time
	PrevHash  string
	Hash      string
}

// Filter narrows List. Zero values match everything; Limit 0 means 100.
type Filter struct {
	PatientID int64
	Limit     int
}

// Log is the sqlite-backed audit trail.
type Log struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the audit database and runs migrations.
func Open(dbPath string) (*Log, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("audit: open DB: %w", err)
	}
	// one writer keeps the chain append strictly ordered
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: set WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: set busy_timeout: %w", err)
	}

	l := &Log{db: db, now: time.Now}
	if err := l.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	return l, nil
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends an event, chaining it to the previous entry.
func (l *Log) Record(ctx context.Context, ev Event) error {
	if ev.Kind == "" {
		return errors.New("audit: event kind must be set")
	}
	if ev.Outcome == "" {
		ev.Outcome = OutcomeOK
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("audit: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prev := genesis
	err = tx.QueryRowContext(ctx, "SELECT hash FROM audit_events ORDER BY id DESC LIMIT 1").Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("audit: read chain head: %w", err)
	}

	createdAt := formatDBTime(l.now())
	hash := chainHash(prev, ev, createdAt)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_events (kind, user_id, patient_id, outcome, request_id, detail, created_at, prev_hash, hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(ev.Kind), ev.UserID, ev.PatientID, ev.Outcome, ev.RequestID, ev.Detail, createdAt, prev, hash,
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("audit: commit: %w", err)
	}
	return nil
}

// List returns matching entries, newest first.
func (l *Log) List(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, kind, user_id, patient_id, outcome, request_id, detail, created_at, prev_hash, hash
		FROM audit_events`
	var args []any
	if f.PatientID > 0 {
		query += " WHERE patient_id = ?"
		args = append(args, f.PatientID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: list rows: %w", err)
	}
	return out, nil
}

// Verify walks the whole chain from the first entry.
func (l *Log) Verify(ctx context.Context) error {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, kind, user_id, patient_id, outcome, request_id, detail, created_at, prev_hash, hash
		 FROM audit_events ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("audit: verify: %w", err)
	}
	defer func() { _ = rows.Close() }()

	prev := genesis
	for rows.Next() {
		var (
			e         Entry
			kind      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &kind, &e.Event.UserID, &e.Event.PatientID, &e.Event.Outcome,
			&e.Event.RequestID, &e.Event.Detail, &createdAt, &e.PrevHash, &e.Hash); err != nil {
			return fmt.Errorf("audit: verify scan: %w", err)
		}
		e.Event.Kind = Kind(kind)
		if e.PrevHash != prev || chainHash(prev, e.Event, createdAt) != e.Hash {
			return fmt.Errorf("%w at entry %d", ErrTampered, e.ID)
		}
		prev = e.Hash
	}
	return rows.Err()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e         Entry
		kind      string
		createdAt string
	)
	if err := rows.Scan(&e.ID, &kind, &e.Event.UserID, &e.Event.PatientID, &e.Event.Outcome,
		&e.Event.RequestID, &e.Event.Detail, &createdAt, &e.PrevHash, &e.Hash); err != nil {
		return Entry{}, fmt.Errorf("audit: scan: %w", err)
	}
	e.Event.Kind = Kind(kind)
	t, err := parseDBTime(createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("audit: parse time %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return e, nil
}

func chainHash(prev string, ev Event, createdAt string) string {
	fields := []string{
		prev,
		string(ev.Kind),
		strconv.FormatInt(ev.UserID, 10),
		strconv.FormatInt(ev.PatientID, 10),
		ev.Outcome,
		ev.RequestID,
		ev.Detail,
		createdAt,
	}
	sum := blake2b.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func formatDBTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

func parseDBTime(value string) (time.Time, error) {
	return time.ParseInLocation(dbTimeLayout, value, time.UTC)
}
