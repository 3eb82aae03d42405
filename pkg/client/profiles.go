package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ServerProfile is a saved backend the user has signed in to.
type ServerProfile struct {
	Name      string `yaml:"name"`
	BaseURL   string `yaml:"base_url"`
	LastEmail string `yaml:"last_email,omitempty"`
	LastUsed  int64  `yaml:"last_used,omitempty"`
}

// ProfileStore manages server profiles stored in servers.yaml.
type ProfileStore struct {
	path     string
	Profiles []ServerProfile `yaml:"servers"`
}

// NewProfileStore creates a profile store in the config directory.
func NewProfileStore() *ProfileStore {
	return NewProfileStoreAt(filepath.Join(ConfigDir(), "servers.yaml"))
}

// NewProfileStoreAt creates a profile store backed by path.
func NewProfileStoreAt(path string) *ProfileStore {
	return &ProfileStore{path: path}
}

// Load reads profiles from disk. Returns an empty list if the file doesn't
// exist.
func (ps *ProfileStore) Load() error {
	data, err := os.ReadFile(ps.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ps.Profiles = nil
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, ps)
}

// Save writes profiles to disk.
func (ps *ProfileStore) Save() error {
	if err := os.MkdirAll(filepath.Dir(ps.path), 0700); err != nil {
		return fmt.Errorf("client: create config dir: %w", err)
	}
	data, err := yaml.Marshal(ps)
	if err != nil {
		return err
	}
	return os.WriteFile(ps.path, data, 0600)
}

// Add adds or updates a profile keyed by base URL. Returns true if it was a
// new entry.
func (ps *ProfileStore) Add(p ServerProfile) bool {
	for i, existing := range ps.Profiles {
		if existing.BaseURL == p.BaseURL {
			if p.Name == "" {
				p.Name = existing.Name
			}
			ps.Profiles[i] = p
			return false
		}
	}
	if p.Name == "" {
		p.Name = p.BaseURL
	}
	ps.Profiles = append(ps.Profiles, p)
	return true
}

// Touch records a sign-in against an existing profile.
func (ps *ProfileStore) Touch(baseURL, email string, ts int64) bool {
	for i := range ps.Profiles {
		if ps.Profiles[i].BaseURL == baseURL {
			ps.Profiles[i].LastEmail = email
			ps.Profiles[i].LastUsed = ts
			return true
		}
	}
	return false
}

// Find returns the profile for baseURL, or nil.
func (ps *ProfileStore) Find(baseURL string) *ServerProfile {
	for _, p := range ps.Profiles {
		if p.BaseURL == baseURL {
			return &p
		}
	}
	return nil
}

// Remove deletes the profile for baseURL.
func (ps *ProfileStore) Remove(baseURL string) bool {
	for i, p := range ps.Profiles {
		if p.BaseURL == baseURL {
			ps.Profiles = append(ps.Profiles[:i], ps.Profiles[i+1:]...)
			return true
		}
	}
	return false
}

// Recent returns the profiles ordered by last use, most recent first.
func (ps *ProfileStore) Recent() []ServerProfile {
	out := append([]ServerProfile(nil), ps.Profiles...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastUsed > out[j].LastUsed })
	return out
}
