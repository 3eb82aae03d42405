// Package session holds the signed-in user's credentials between runs.
//
// A session record has four fields that are stored and cleared together.
// Expiry is not tracked locally: the API client clears the record when the
// backend answers 401.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/NicolasHaas/medscribe/pkg/model"
)

// ErrNoSession is returned when no complete session record is stored.
var ErrNoSession = errors.New("session: not signed in")

// ErrIncomplete is returned by Establish for a record missing any field.
var ErrIncomplete = errors.New("session: record must carry token, user id, name, and role")

// Record is the persisted identity of the signed-in user.
type Record struct {
	AccessToken string     `yaml:"access_token"`
	UserID      int64      `yaml:"user_id"`
	UserName    string     `yaml:"user_name"`
	Role        model.Role `yaml:"user_role"`
}

// Complete reports whether all four fields are present.
func (r Record) Complete() bool {
	return r.AccessToken != "" && r.UserID > 0 && r.UserName != "" && r.Role.Valid()
}

// Empty reports whether no field is set.
func (r Record) Empty() bool {
	return r == Record{}
}

// Store persists a session record.
type Store interface {
	// Load returns the stored record, or the zero Record if nothing is stored.
	Load() (Record, error)
	Save(Record) error
	Clear() error
}

// Manager is the single accessor/mutator pair for the session record.
type Manager struct {
	mu     sync.Mutex
	store  Store
	cached *Record

	// OnCleared is called after the record is removed, with the reason
	// passed to Expire or "logout".
	OnCleared func(reason string)
}

// NewManager creates a Manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Current returns the stored record if it is complete. A partial record is
// removed so the store never keeps a subset of the fields.
func (m *Manager) Current() (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		return *m.cached, nil
	}

	rec, err := m.store.Load()
	if err != nil {
		return Record{}, fmt.Errorf("session: load: %w", err)
	}
	if !rec.Complete() {
		if !rec.Empty() {
			slog.Warn("discarding partial session record", "user_id", rec.UserID)
			if err := m.store.Clear(); err != nil {
				return Record{}, fmt.Errorf("session: clear partial: %w", err)
			}
		}
		return Record{}, ErrNoSession
	}
	m.cached = &rec
	return rec, nil
}

// Establish stores a complete record, replacing any previous one.
func (m *Manager) Establish(rec Record) error {
	if !rec.Complete() {
		return ErrIncomplete
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(rec); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	m.cached = &rec
	slog.Info("session established", "user_id", rec.UserID, "role", rec.Role)
	return nil
}

// Token returns the bearer credential of the current session, or "" when
// signed out.
func (m *Manager) Token() string {
	rec, err := m.Current()
	if err != nil {
		return ""
	}
	return rec.AccessToken
}

// Clear removes the whole record.
func (m *Manager) Clear() error {
	return m.Expire("logout")
}

// Expire removes the whole record and reports the reason to OnCleared.
func (m *Manager) Expire(reason string) error {
	m.mu.Lock()
	m.cached = nil
	err := m.store.Clear()
	cb := m.OnCleared
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	slog.Info("session cleared", "reason", reason)
	if cb != nil {
		cb(reason)
	}
	return nil
}
