package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Document is the persisted ledger: user -> language -> word length -> entry.
type Document map[string]map[string]map[string]StoredEntry

// StoredEntry is the durable part of a ledger entry.
type StoredEntry struct {
	Record      Record         `json:"record"`
	Repetitions map[string]int `json:"repetitions"`
}

// Record is the best contiguous run for a key.
type Record struct {
	Value           int       `json:"value"`
	UpdatedAt       time.Time `json:"updatedAt,omitzero"`
	LastPosition    *int      `json:"lastPosition"`
	LastLetterIndex *int      `json:"lastLetterIndex"`
}

// Store loads and saves the whole ledger document.
type Store interface {
	Load() (Document, error)
	Save(Document) error
}

// FileStore keeps the document in a JSON file. Saves go to a temporary file
// in the same directory which is then renamed over the target, so a crash
// leaves either the previous or the new snapshot.
type FileStore struct {
	path     string
	permFile os.FileMode
	permDir  os.FileMode
	syncDir  func(dir string) error
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, permFile: 0o644, permDir: 0o755, syncDir: syncDir}
}

// Path returns the target file.
func (s *FileStore) Path() string { return s.path }

// Load reads the document. A missing file is an empty ledger.
func (s *FileStore) Load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Save writes the document atomically. It fails when the rename cannot be
// made durable, even though the new snapshot is already in place.
func (s *FileStore) Save(doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, s.permDir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, s.permFile); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := s.syncDir(dir); err != nil {
		return fmt.Errorf("sync %s: %w", dir, err)
	}
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// MemoryStore keeps a JSON copy of the last saved document in memory.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	fail  error
	saves int
}

// Load implements Store.
func (s *MemoryStore) Load() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(s.data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save implements Store.
func (s *MemoryStore) Save(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.data = data
	s.saves++
	return nil
}

// Saves returns how many saves succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// SetFail changes the error Save returns; nil restores normal saves.
func (s *MemoryStore) SetFail(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}
