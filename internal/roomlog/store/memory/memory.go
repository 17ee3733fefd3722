package memory

import (
	"context"
	"sync"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/store"
)

// Store keeps the document in memory.  It is intended for tests and
// throwaway dev runs.
type Store struct {
	mu    sync.RWMutex
	doc   store.Document
	saves int

	// FailSave, when set, is returned by Save instead of storing the
	// document.  Test-only hook.
	FailSave error
}

func New() *Store {
	return &Store{}
}

// NewWithDocument returns a store pre-loaded with doc.
func NewWithDocument(doc store.Document) *Store {
	return &Store{doc: cloneDocument(doc)}
}

func (s *Store) Load(_ context.Context) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDocument(s.doc), nil
}

func (s *Store) Save(_ context.Context, doc store.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.doc = cloneDocument(doc)
	s.saves++
	return nil
}

// SetFailSave makes subsequent Saves fail with err; nil restores them.
func (s *Store) SetFailSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailSave = err
}

// Saves returns how many documents have been stored.  Test-only helper.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func cloneDocument(doc store.Document) store.Document {
	return store.Document{
		Events: append([]store.EventRecord(nil), doc.Events...),
		Cards:  append([]store.CardRecord(nil), doc.Cards...),
		People: append([]string(nil), doc.People...),
	}
}
