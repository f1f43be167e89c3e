// Package memory keeps open books in process memory, used for development
// and tests. Each book carries one coarse read/write lock: balance
// recomputation reads across many accounts at once and cannot tolerate
// interleaved mutation, so commands serialize per document.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/errs"
)

type document struct {
	mu   sync.RWMutex
	name string
	bk   *book.Book
}

// Store is an in-memory registry of open books.
type Store struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*document
}

// New constructs an empty store.
func New() *Store {
	return &Store{docs: make(map[uuid.UUID]*document)}
}

// CreateBook opens a fresh, empty book under name and returns its id.
func (s *Store) CreateBook(_ context.Context, name string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.docs[id] = &document{name: name, bk: book.New()}
	return id, nil
}

// SeedBook installs an already-built book, used by dev seeding and tests.
func (s *Store) SeedBook(name string, bk *book.Book) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.docs[id] = &document{name: name, bk: bk}
	return id
}

// DeleteBook closes a book and drops it from the store.
func (s *Store) DeleteBook(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

// ListBooks returns the open books' names by id.
func (s *Store) ListBooks(_ context.Context) (map[uuid.UUID]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]string, len(s.docs))
	for id, d := range s.docs {
		out[id] = d.name
	}
	return out, nil
}

// WithBook runs fn with exclusive access to the book.
func (s *Store) WithBook(_ context.Context, id uuid.UUID, fn func(*book.Book) error) error {
	d, err := s.doc(id)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.bk)
}

// ViewBook runs fn with shared access to the book.
func (s *Store) ViewBook(_ context.Context, id uuid.UUID, fn func(*book.Book) error) error {
	d, err := s.doc(id)
	if err != nil {
		return err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn(d.bk)
}

// Ready implements the readiness probe; the in-memory store is always ready.
func (s *Store) Ready(_ context.Context) error { return nil }

func (s *Store) doc(id uuid.UUID) (*document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return d, nil
}
