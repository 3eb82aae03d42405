package view

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/NicolasHaas/medscribe/pkg/model"
)

func kolkata(t *testing.T) Clock {
	t.Helper()
	c, err := NewClock("")
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}
	return c
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func TestParseServerTimeTreatsNaiveAsUTC(t *testing.T) {
	c := kolkata(t)

	tests := []string{
		"2024-05-01T10:20:30",
		"2024-05-01T10:20:30Z",
		"2024-05-01T10:20:30+00:00",
		"2024-05-01 10:20:30",
		"2024-05-01T10:20:30.000000",
	}
	want := time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC)
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := ParseServerTime(in)
			if err != nil {
				t.Fatalf("ParseServerTime(%q): %v", in, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseServerTime(%q) = %v, want %v", in, got, want)
			}
			date, clock := c.Stamp(model.Timestamp(in))
			if date != "1 May 2024" || clock != "03:50 pm" {
				t.Errorf("Stamp(%q) = %q %q, want 1 May 2024 03:50 pm", in, date, clock)
			}
		})
	}
}

func TestStampCrossesMidnight(t *testing.T) {
	c := kolkata(t)
	date, clock := c.Stamp("2024-12-31T20:00:00")
	if date != "1 Jan 2025" || clock != "01:30 am" {
		t.Errorf("Stamp = %q %q, want 1 Jan 2025 01:30 am", date, clock)
	}
}

func TestStampUnparseable(t *testing.T) {
	date, clock := kolkata(t).Stamp("yesterday")
	if date != "yesterday" || clock != "" {
		t.Errorf("Stamp(yesterday) = %q %q", date, clock)
	}
}

func TestPatientRowsSharedIndicator(t *testing.T) {
	items := []model.Patient{
		{ID: 1, Name: "A", PhysicianID: 5},
		{ID: 2, Name: "B", PhysicianID: 9},
	}
	want := []PatientRow{
		{ID: 1, Name: "A", Shared: false},
		{ID: 2, Name: "B", Shared: true},
	}
	if diff := cmp.Diff(want, PatientRows(items, 5)); diff != "" {
		t.Errorf("PatientRows mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyPatientsText(t *testing.T) {
	if got := EmptyPatientsText(model.RolePhysician); got != "No patients found. Add your first patient!" {
		t.Errorf("physician: %q", got)
	}
	for _, r := range []model.Role{model.RoleStaff, model.RoleNurse} {
		if got := EmptyPatientsText(r); got != "No patients assigned to you yet." {
			t.Errorf("%v: %q", r, got)
		}
	}
	if got := EmptySearchText("ram"); got != `No patients found matching "ram"` {
		t.Errorf("EmptySearchText = %q", got)
	}
}

func TestEmptyNotesText(t *testing.T) {
	if got := EmptyNotesText(true); got != "No clinical notes yet. Add the first note!" {
		t.Errorf("writable: %q", got)
	}
	if got := EmptyNotesText(false); got != "No clinical notes yet." {
		t.Errorf("read only: %q", got)
	}
}

func TestWelcome(t *testing.T) {
	if got := Welcome("Meera", model.RolePhysician); got != "Welcome, Dr. Meera" {
		t.Errorf("physician welcome = %q", got)
	}
	if got := Welcome("Ravi", model.RoleStaff); got != "Welcome, Ravi" {
		t.Errorf("staff welcome = %q", got)
	}
}

func TestHeader(t *testing.T) {
	price := 1500.0
	h := Header(model.PatientDetail{ID: 4, Name: "Lata", PhoneNumber: "98450", MembershipPrice: &price, PermissionLevel: model.AccessView})
	want := PatientHeader{
		Title:      "Lata",
		Subtitle:   "ID: 4 • 98450 • view access",
		Membership: "Membership: 1500.00",
		CanWrite:   false,
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("Header mismatch (-want +got):\n%s", diff)
	}
	if !Header(model.PatientDetail{PermissionLevel: model.AccessOwner}).CanWrite {
		t.Error("owner cannot write")
	}
}

func TestNoteText(t *testing.T) {
	tests := []struct {
		name string
		note model.Note
		want string
	}{
		{"raw notes win", model.Note{RawNotes: "fever", Subjective: "s"}, "fever"},
		{"soap joined", model.Note{RawNotes: "  ", Subjective: "s", Assessment: "a", Plan: "p"}, "s\n\na\n\np"},
		{"nothing", model.Note{}, NoNotesText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NoteText(tt.note); got != tt.want {
				t.Errorf("NoteText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNoteCards(t *testing.T) {
	cards := NoteCards([]model.Note{{ID: 9, RawNotes: "ok", CreatedAt: "2024-05-01T10:20:30", PhysicianName: "Meera"}}, kolkata(t))
	want := []NoteCard{{ID: 9, Meta: "1 May 2024, 03:50 pm • Dr. Meera", Text: "ok"}}
	if diff := cmp.Diff(want, cards); diff != "" {
		t.Errorf("NoteCards mismatch (-want +got):\n%s", diff)
	}
}

func TestVitalsRows(t *testing.T) {
	items := []model.Vitals{
		{ID: 2, SystolicBP: intp(120), DiastolicBP: intp(80), HeartRate: intp(72), Temperature: floatp(98.6), SpO2: intp(98), CreatedAt: "2024-05-02T04:30:00"},
		{ID: 1, SystolicBP: intp(130), CreatedAt: "2024-05-01T04:30:00"},
	}
	want := []VitalsRow{
		{ID: 2, Date: "2 May 2024", Time: "10:00 am", BP: "120/80", HeartRate: "72", Temperature: "98.6", SpO2: "98"},
		{ID: 1, Date: "1 May 2024", Time: "10:00 am", BP: "-", HeartRate: "-", Temperature: "-", SpO2: "-"},
	}
	if diff := cmp.Diff(want, VitalsRows(items, kolkata(t))); diff != "" {
		t.Errorf("VitalsRows mismatch (-want +got):\n%s", diff)
	}
}

func TestVitalsSeriesChronological(t *testing.T) {
	items := []model.Vitals{
		{ID: 3, HeartRate: intp(80), CreatedAt: "2024-05-03T00:00:00"},
		{ID: 2, HeartRate: intp(75), CreatedAt: "garbage"},
		{ID: 1, HeartRate: intp(70), CreatedAt: "2024-05-01T00:00:00"},
	}
	pts := VitalsSeries(items, kolkata(t))
	if len(pts) != 2 {
		t.Fatalf("got %d points, want 2", len(pts))
	}
	if !pts[0].At.Before(pts[1].At) {
		t.Errorf("points not chronological: %v then %v", pts[0].At, pts[1].At)
	}
	if *pts[0].HeartRate != 70 || *pts[1].HeartRate != 80 {
		t.Errorf("heart rates = %v, %v", *pts[0].HeartRate, *pts[1].HeartRate)
	}
	if pts[0].Systolic != nil {
		t.Errorf("absent systolic rendered as %v", *pts[0].Systolic)
	}
}

func TestSharesEmpty(t *testing.T) {
	got := Shares([]model.SharedAccess{}, 5)
	if got.Empty != NotSharedText || got.Rows != nil {
		t.Errorf("Shares([]) = %+v", got)
	}
}

func TestSharesRevokeOnlyForGrantor(t *testing.T) {
	items := []model.SharedAccess{
		{UserID: 7, UserName: "Nurse Jaya", UserEmail: "j@c.in", Permission: model.AccessEdit, GrantedBy: 5},
		{UserID: 8, UserName: "Dr. Kiran", UserEmail: "k@c.in", Permission: model.AccessView, GrantedBy: 9},
	}
	want := ShareList{Rows: []ShareRow{
		{UserID: 7, Name: "Nurse Jaya", Email: "j@c.in", Permission: "edit", CanRevoke: true},
		{UserID: 8, Name: "Dr. Kiran", Email: "k@c.in", Permission: "view", CanRevoke: false},
	}}
	if diff := cmp.Diff(want, Shares(items, 5)); diff != "" {
		t.Errorf("Shares mismatch (-want +got):\n%s", diff)
	}
}
