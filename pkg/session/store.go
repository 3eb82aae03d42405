package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps the session record in a YAML file readable only by the
// current user.
type FileStore struct {
	path string
}

// NewFileStore creates a file store at path. The parent directory is
// created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (fs *FileStore) Path() string { return fs.path }

// Load reads the record. A missing file is an empty record.
func (fs *FileStore) Load() (Record, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, nil
		}
		return Record{}, err
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse %s: %w", fs.path, err)
	}
	return rec, nil
}

// Save writes the record through a temporary file and a rename so a crash
// never leaves half of the fields on disk.
func (fs *FileStore) Save(rec Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fs.path)
}

// Clear deletes the file. Clearing an absent file is not an error.
func (fs *FileStore) Clear() error {
	if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStore keeps the record in memory and counts writes. Tests use it in
// place of a FileStore.
type MemoryStore struct {
	mu  sync.Mutex
	rec Record

	Saves  int
	Clears int
}

// NewMemoryStore returns a store preloaded with rec.
func NewMemoryStore(rec Record) *MemoryStore {
	return &MemoryStore{rec: rec}
}

func (ms *MemoryStore) Load() (Record, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.rec, nil
}

func (ms *MemoryStore) Save(rec Record) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.rec = rec
	ms.Saves++
	return nil
}

func (ms *MemoryStore) Clear() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.rec = Record{}
	ms.Clears++
	return nil
}
