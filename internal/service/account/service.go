// Package account implements the account command surface: creation,
// renaming under the uniqueness index, descriptive edits, and guarded
// deletion with split ownership transfer.
package account

import (
	"context"

	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/errs"
)

// Store gives the service exclusive or shared access to one open book.
type Store interface {
	WithBook(ctx context.Context, bookID uuid.UUID, fn func(*book.Book) error) error
	ViewBook(ctx context.Context, bookID uuid.UUID, fn func(*book.Book) error) error
}

// CreateParams carries the fields needed to open an account.
type CreateParams struct {
	Name     string
	Currency string
	Type     book.AccountType
}

// Service exposes account commands and queries to the presentation layer.
// Mutations are all-or-nothing; returned accounts are value copies safe to
// hold outside the document lock.
type Service interface {
	Create(ctx context.Context, bookID uuid.UUID, p CreateParams) (*book.Account, error)
	Get(ctx context.Context, bookID, accountID uuid.UUID) (*book.Account, error)
	List(ctx context.Context, bookID uuid.UUID) ([]*book.Account, error)
	Rename(ctx context.Context, bookID, accountID uuid.UUID, newName string) (*book.Account, error)
	Edit(ctx context.Context, bookID, accountID uuid.UUID, d book.AccountDetails) (*book.Account, error)
	Delete(ctx context.Context, bookID, accountID, transferTo uuid.UUID) error
}

type service struct {
	store Store
}

// New constructs the account service over store.
func New(store Store) Service { return &service{store: store} }

func (s *service) Create(ctx context.Context, bookID uuid.UUID, p CreateParams) (*book.Account, error) {
	if p.Name == "" || p.Currency == "" || !p.Type.IsValid() {
		return nil, errs.ErrInvalid
	}
	var out *book.Account
	err := s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		a, err := b.CreateAccount(p.Name, p.Currency, p.Type)
		if err != nil {
			return err
		}
		out = a.Clone()
		return nil
	})
	return out, err
}

func (s *service) Get(ctx context.Context, bookID, accountID uuid.UUID) (*book.Account, error) {
	var out *book.Account
	err := s.store.ViewBook(ctx, bookID, func(b *book.Book) error {
		a, ok := b.Accounts().ByID(accountID)
		if !ok {
			return errs.ErrNotFound
		}
		out = a.Clone()
		return nil
	})
	return out, err
}

func (s *service) List(ctx context.Context, bookID uuid.UUID) ([]*book.Account, error) {
	var out []*book.Account
	err := s.store.ViewBook(ctx, bookID, func(b *book.Book) error {
		for _, a := range b.Accounts().List() {
			out = append(out, a.Clone())
		}
		return nil
	})
	return out, err
}

func (s *service) Rename(ctx context.Context, bookID, accountID uuid.UUID, newName string) (*book.Account, error) {
	if newName == "" {
		return nil, errs.ErrInvalid
	}
	var out *book.Account
	err := s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		if err := b.RenameAccount(accountID, newName); err != nil {
			return err
		}
		a, _ := b.Accounts().ByID(accountID)
		out = a.Clone()
		return nil
	})
	return out, err
}

func (s *service) Edit(ctx context.Context, bookID, accountID uuid.UUID, d book.AccountDetails) (*book.Account, error) {
	var out *book.Account
	err := s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		if err := b.EditAccount(accountID, d); err != nil {
			return err
		}
		a, _ := b.Accounts().ByID(accountID)
		out = a.Clone()
		return nil
	})
	return out, err
}

func (s *service) Delete(ctx context.Context, bookID, accountID, transferTo uuid.UUID) error {
	return s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		return b.DeleteAccount(accountID, transferTo)
	})
}
