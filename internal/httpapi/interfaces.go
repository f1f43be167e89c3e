package httpapi

import (
	"context"

	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/book"
)

// Store abstracts the document store the API runs against. Both the
// in-memory and the postgres stores satisfy it.
type Store interface {
	// CreateBook opens a fresh, empty book and returns its id.
	CreateBook(ctx context.Context, name string) (uuid.UUID, error)
	// DeleteBook closes and drops a book.
	DeleteBook(ctx context.Context, id uuid.UUID) error
	// ListBooks returns the books' names by id.
	ListBooks(ctx context.Context) (map[uuid.UUID]string, error)
	// WithBook runs fn with exclusive access to one book.
	WithBook(ctx context.Context, id uuid.UUID, fn func(*book.Book) error) error
	// ViewBook runs fn with shared access to one book.
	ViewBook(ctx context.Context, id uuid.UUID, fn func(*book.Book) error) error
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
