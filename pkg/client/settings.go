package client

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/medscribe/pkg/api"
	"github.com/NicolasHaas/medscribe/pkg/audio"
	"github.com/NicolasHaas/medscribe/pkg/view"
)

// AppName names the per-user config directory.
const AppName = "medscribe"

// Settings stores user preferences persisted as YAML in the user config
// directory.
type Settings struct {
	ServerURL      string        `yaml:"server_url"`
	AudioInput     string        `yaml:"audio_input,omitempty"`
	AudioFormats   []string      `yaml:"audio_formats,omitempty"`
	DisplayZone    string        `yaml:"display_zone"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	UploadTimeout  time.Duration `yaml:"upload_timeout"`
	DictateKey     string        `yaml:"dictate_key"`
	AuditDB        string        `yaml:"audit_db,omitempty"`
	LogLevel       string        `yaml:"log_level,omitempty"`

	path string
}

// DefaultSettings returns default settings.
func DefaultSettings() *Settings {
	return &Settings{
		ServerURL:      "http://localhost:8000",
		DisplayZone:    view.DefaultZone,
		RequestTimeout: api.DefaultTimeout,
		UploadTimeout:  api.DefaultUploadTimeout,
		DictateKey:     "F9",
	}
}

// ConfigDir returns the directory holding settings, session and profiles.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, AppName)
}

// SettingsPath is where LoadSettings reads from by default.
func SettingsPath() string {
	return filepath.Join(ConfigDir(), "settings.yaml")
}

// SessionPath is where the session record lives.
func SessionPath() string {
	return filepath.Join(ConfigDir(), "session.yaml")
}

// LoadSettings loads settings from the default path or returns defaults.
func LoadSettings() *Settings {
	return LoadSettingsFrom(SettingsPath())
}

// LoadSettingsFrom loads settings from path. A missing file yields
// defaults; a malformed one is logged and also yields defaults.
func LoadSettingsFrom(path string) *Settings {
	s := DefaultSettings()
	s.path = path
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("read settings", "path", path, "err", err)
		}
		return s
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		slog.Error("parse settings", "err", err)
		d := DefaultSettings()
		d.path = path
		return d
	}
	s.fillDefaults()
	return s
}

func (s *Settings) fillDefaults() {
	d := DefaultSettings()
	if s.ServerURL == "" {
		s.ServerURL = d.ServerURL
	}
	if s.DisplayZone == "" {
		s.DisplayZone = d.DisplayZone
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = d.RequestTimeout
	}
	if s.UploadTimeout <= 0 {
		s.UploadTimeout = d.UploadTimeout
	}
}

// Path returns the file the settings were loaded from.
func (s *Settings) Path() string {
	if s.path == "" {
		return SettingsPath()
	}
	return s.path
}

// Save writes settings to YAML.
func (s *Settings) Save() error {
	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("client: create config dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// FormatPreference is the capture format preference, most preferred first.
func (s *Settings) FormatPreference() []string {
	if len(s.AudioFormats) > 0 {
		return s.AudioFormats
	}
	return audio.DefaultPreference
}

// Clock returns the display clock for the configured zone, falling back to
// the default zone when the name is unknown.
func (s *Settings) Clock() view.Clock {
	c, err := view.NewClock(s.DisplayZone)
	if err != nil {
		slog.Warn("unknown display zone", "zone", s.DisplayZone, "err", err)
		c, _ = view.NewClock(view.DefaultZone)
	}
	return c
}

// AuditPath returns the audit database location.
func (s *Settings) AuditPath() string {
	if s.AuditDB != "" {
		return s.AuditDB
	}
	return filepath.Join(ConfigDir(), "audit.db")
}
