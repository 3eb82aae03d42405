package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	l.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return l
}

func TestRecordAndList(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	events := []Event{
		{Kind: KindLogin, UserID: 5},
		{Kind: KindNoteCreated, UserID: 5, PatientID: 12, RequestID: "r-1"},
		{Kind: KindVitalsLogged, UserID: 5, PatientID: 13},
		{Kind: KindReportDownloaded, UserID: 5, PatientID: 12, Outcome: OutcomeFailed, Detail: "status 500"},
	}
	for _, ev := range events {
		if err := l.Record(ctx, ev); err != nil {
			t.Fatalf("Record(%s): %v", ev.Kind, err)
		}
	}

	all, err := l.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("List returned %d entries, want 4", len(all))
	}
	if all[0].Event.Kind != KindReportDownloaded {
		t.Errorf("newest entry = %s, want %s", all[0].Event.Kind, KindReportDownloaded)
	}
	if all[3].Event.Outcome != OutcomeOK {
		t.Errorf("default outcome = %q, want %q", all[3].Event.Outcome, OutcomeOK)
	}
	if all[3].PrevHash != genesis {
		t.Errorf("first entry prev hash = %q, want genesis", all[3].PrevHash)
	}
	if all[2].PrevHash != all[3].Hash {
		t.Error("second entry does not chain to the first")
	}

	forPatient, err := l.List(ctx, Filter{PatientID: 12})
	if err != nil {
		t.Fatalf("List(patient): %v", err)
	}
	var kinds []Kind
	for _, e := range forPatient {
		kinds = append(kinds, e.Event.Kind)
	}
	if diff := cmp.Diff([]Kind{KindReportDownloaded, KindNoteCreated}, kinds); diff != "" {
		t.Errorf("patient filter mismatch (-want +got):\n%s", diff)
	}

	limited, err := l.List(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("List(limit): %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited list = %d entries, want 1", len(limited))
	}

	want := time.Date(2026, 3, 1, 9, 0, 4, 0, time.UTC)
	if !all[0].CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", all[0].CreatedAt, want)
	}
}

func TestRecordRejectsEmptyKind(t *testing.T) {
	l := newTestLog(t)
	if err := l.Record(context.Background(), Event{UserID: 1}); err == nil {
		t.Fatal("expected error for empty kind")
	}
}

func TestVerify(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	if err := l.Verify(ctx); err != nil {
		t.Fatalf("Verify on empty log: %v", err)
	}
	for _, k := range []Kind{KindLogin, KindAccessShared, KindAccessRevoked} {
		if err := l.Record(ctx, Event{Kind: k, UserID: 5, PatientID: 9}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := l.Verify(ctx); err != nil {
		t.Fatalf("Verify on intact log: %v", err)
	}

	if _, err := l.db.ExecContext(ctx, "UPDATE audit_events SET patient_id = 10 WHERE id = 2"); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	err := l.Verify(ctx)
	if !errors.Is(err, ErrTampered) {
		t.Fatalf("Verify after tamper = %v, want ErrTampered", err)
	}
}

func TestVerifyDetectsDeletedEntry(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()
	for _, k := range []Kind{KindLogin, KindNoteCreated, KindLogout} {
		if err := l.Record(ctx, Event{Kind: k, UserID: 1}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if _, err := l.db.ExecContext(ctx, "DELETE FROM audit_events WHERE id = 2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := l.Verify(ctx); !errors.Is(err, ErrTampered) {
		t.Fatalf("Verify after delete = %v, want ErrTampered", err)
	}
}

func TestReopenKeepsChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Record(ctx, Event{Kind: KindLogin, UserID: 2}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = l.Close()

	l, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = l.Close() }()
	if err := l.Record(ctx, Event{Kind: KindLogout, UserID: 2}); err != nil {
		t.Fatalf("Record after reopen: %v", err)
	}
	if err := l.Verify(ctx); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	v, err := l.getSchemaVersion(ctx)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("schema version = %d, want 2", v)
	}
}

func TestMigrationStatementFailureIsReported(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	err := l.execMigration(ctx, "CREATE INDEX idx_missing ON no_such_table(id)")
	if err == nil {
		t.Fatal("execMigration succeeded on a missing table")
	}
	v, err := l.getSchemaVersion(ctx)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("schema version = %d, want 2", v)
	}
}
