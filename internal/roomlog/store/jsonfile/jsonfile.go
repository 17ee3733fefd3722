// Package jsonfile stores the room log as one JSON document on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/store"
)

// FileName is the document written inside the data directory.
const FileName = "roomlog.json"

type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store writing dir/roomlog.json.  The directory is created
// on first save.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

func (s *Store) Path() string { return s.path }

// Load returns an empty document when the file does not exist yet.
func (s *Store) Load(_ context.Context) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return store.Document{}, nil
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	var doc store.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return store.Document{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return doc, nil
}

// Save writes the document to a temp file in the same directory, syncs it
// and renames it over the previous one.
func (s *Store) Save(_ context.Context, doc store.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.Events == nil {
		doc.Events = []store.EventRecord{}
	}
	if doc.Cards == nil {
		doc.Cards = []store.CardRecord{}
	}
	if doc.People == nil {
		doc.People = []string{}
	}

	b, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", s.path, err)
	}
	return nil
}
