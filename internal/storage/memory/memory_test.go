package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/errs"
)

func TestCreateListDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreateBook(ctx, "household")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	names, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if names[id] != "household" {
		t.Fatalf("unexpected listing: %+v", names)
	}

	if err := s.DeleteBook(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteBook(ctx, id); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWithBookMutatesSharedState(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.CreateBook(ctx, "test")

	err := s.WithBook(ctx, id, func(b *book.Book) error {
		_, err := b.RegisterCurrency("USD", 2)
		return err
	})
	if err != nil {
		t.Fatalf("with: %v", err)
	}

	var codes []string
	err = s.ViewBook(ctx, id, func(b *book.Book) error {
		for _, c := range b.Currencies().List() {
			codes = append(codes, c.Code())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(codes) != 1 || codes[0] != "USD" {
		t.Fatalf("mutation not visible: %v", codes)
	}
}

func TestUnknownBook(t *testing.T) {
	s := New()
	ctx := context.Background()
	err := s.ViewBook(ctx, uuid.New(), func(*book.Book) error { return nil })
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFnErrorPropagates(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, _ := s.CreateBook(ctx, "test")

	sentinel := errors.New("boom")
	if err := s.WithBook(ctx, id, func(*book.Book) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("expected fn error, got %v", err)
	}
}
