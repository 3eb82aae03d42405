package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	s := LoadSettingsFrom(path)
	if diff := cmp.Diff(DefaultSettings(), s, cmpopts.IgnoreUnexported(Settings{})); diff != "" {
		t.Fatalf("missing file should give defaults (-want +got):\n%s", diff)
	}

	s.ServerURL = "https://records.example.in"
	s.AudioInput = "USB Mic"
	s.AudioFormats = []string{"audio/wav"}
	s.UploadTimeout = 3 * time.Minute
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("mode = %o, want 600", perm)
	}

	got := LoadSettingsFrom(path)
	if diff := cmp.Diff(s, got, cmpopts.IgnoreUnexported(Settings{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"audio/wav"}, got.FormatPreference()); diff != "" {
		t.Errorf("preference mismatch (-want +got):\n%s", diff)
	}
}

func TestSettingsFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	data := "server_url: https://records.example.in\nrequest_timeout: 10s\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	s := LoadSettingsFrom(path)
	if s.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v", s.RequestTimeout)
	}
	d := DefaultSettings()
	if s.UploadTimeout != d.UploadTimeout || s.DisplayZone != d.DisplayZone {
		t.Errorf("defaults not filled: %+v", s)
	}
	if diff := cmp.Diff(d.FormatPreference(), s.FormatPreference()); diff != "" {
		t.Errorf("preference mismatch (-want +got):\n%s", diff)
	}
}

func TestSettingsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("server_url: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	s := LoadSettingsFrom(path)
	if s.ServerURL != DefaultSettings().ServerURL {
		t.Errorf("ServerURL = %q, want default", s.ServerURL)
	}
	if s.Path() != path {
		t.Errorf("Path = %q, want %q", s.Path(), path)
	}
}

func TestSettingsClockFallsBack(t *testing.T) {
	s := DefaultSettings()
	s.DisplayZone = "Mars/Olympus"
	c := s.Clock()
	if c.Location == nil || c.Location.String() != "Asia/Kolkata" {
		t.Errorf("Location = %v, want Asia/Kolkata", c.Location)
	}
}

func TestProfileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.yaml")
	ps := NewProfileStoreAt(path)
	if err := ps.Load(); err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if len(ps.Profiles) != 0 {
		t.Fatalf("profiles = %v", ps.Profiles)
	}

	if !ps.Add(ServerProfile{Name: "Clinic", BaseURL: "https://a.example.in"}) {
		t.Error("first Add should be new")
	}
	if !ps.Add(ServerProfile{BaseURL: "https://b.example.in"}) {
		t.Error("second Add should be new")
	}
	if ps.Add(ServerProfile{BaseURL: "https://a.example.in", LastEmail: "x@y.z"}) {
		t.Error("re-adding should update")
	}
	if p := ps.Find("https://a.example.in"); p == nil || p.Name != "Clinic" {
		t.Errorf("Find = %+v, want name kept", p)
	}
	if !ps.Touch("https://b.example.in", "asha@clinic.in", 200) || !ps.Touch("https://a.example.in", "x@y.z", 100) {
		t.Error("Touch failed")
	}
	if err := ps.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := NewProfileStoreAt(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	var order []string
	for _, p := range loaded.Recent() {
		order = append(order, p.Name)
	}
	if diff := cmp.Diff([]string{"https://b.example.in", "Clinic"}, order); diff != "" {
		t.Errorf("recent order mismatch (-want +got):\n%s", diff)
	}
	if !loaded.Remove("https://a.example.in") || loaded.Find("https://a.example.in") != nil {
		t.Error("Remove failed")
	}
}
