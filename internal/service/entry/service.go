// Package entry implements the transaction command surface: creating and
// editing transactions through the draft lifecycle, manual reordering,
// reconciliation, and the per-account row queries the presentation layer
// renders.
package entry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/amount"
	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/currency"
	"github.com/davmoss/moneybook/internal/errs"
)

// Store gives the service exclusive or shared access to one open book.
type Store interface {
	WithBook(ctx context.Context, bookID uuid.UUID, fn func(*book.Book) error) error
	ViewBook(ctx context.Context, bookID uuid.UUID, fn func(*book.Book) error) error
}

// SplitParams describes one leg of a transaction being entered. The account
// is addressed by id, or by name; an unknown name is implicitly created
// with the split's currency and, absent an explicit type, a type guessed
// from the amount sign the way quick entry does.
type SplitParams struct {
	AccountID   uuid.UUID
	AccountName string
	AccountType book.AccountType
	Currency    string
	Amount      string
}

// CreateParams carries a full transaction to commit in one command.
type CreateParams struct {
	Date        time.Time
	Description string
	Payee       string
	CheckNumber string
	Notes       string
	Splits      []SplitParams
}

// DraftPatch mutates an open draft. Nil fields are left untouched.
type DraftPatch struct {
	Date         *time.Time
	Description  *string
	Payee        *string
	CheckNumber  *string
	Notes        *string
	AddSplits    []SplitParams
	RemoveSplits []uuid.UUID
}

// Row is one rendered ledger row of an account: the split as seen from the
// account, with running balance and the per-row flags the table shows.
type Row struct {
	Index              int
	TransactionID      uuid.UUID
	SplitID            uuid.UUID
	Date               time.Time
	Description        string
	Payee              string
	CheckNumber        string
	Amount             string
	AmountCurrency     string
	Normalized         string
	Balance            string
	BalanceNegative    bool
	Reconciled         bool
	ReconciliationDate *time.Time
	MultiCurrency      bool
	CanReconcile       bool
}

// Service exposes transaction commands and row queries. Returned
// transactions are value copies safe to hold outside the document lock.
type Service interface {
	Create(ctx context.Context, bookID uuid.UUID, p CreateParams) (*book.Transaction, error)
	Get(ctx context.Context, bookID, txnID uuid.UUID) (*book.Transaction, error)
	List(ctx context.Context, bookID uuid.UUID) ([]*book.Transaction, error)
	Delete(ctx context.Context, bookID, txnID uuid.UUID) error

	BeginEdit(ctx context.Context, bookID, txnID uuid.UUID) (*book.Transaction, error)
	PatchDraft(ctx context.Context, bookID, txnID uuid.UUID, p DraftPatch) (*book.Transaction, error)
	CommitEdit(ctx context.Context, bookID, txnID uuid.UUID) (*book.Transaction, error)
	CancelEdit(ctx context.Context, bookID, txnID uuid.UUID) error

	Move(ctx context.Context, bookID uuid.UUID, ids []uuid.UUID, destRow int) error
	Reconcile(ctx context.Context, bookID uuid.UUID, refs []book.SplitRef, date time.Time) error

	Rows(ctx context.Context, bookID, accountID uuid.UUID, from, to *time.Time) ([]Row, bool, error)
	TotalsText(ctx context.Context, bookID, accountID uuid.UUID, from, to *time.Time) (string, error)

	Undo(ctx context.Context, bookID uuid.UUID) (string, bool, error)
	Redo(ctx context.Context, bookID uuid.UUID) (string, bool, error)
}

type service struct {
	store Store
}

// New constructs the transaction service over store.
func New(store Store) Service { return &service{store: store} }

func (s *service) Create(ctx context.Context, bookID uuid.UUID, p CreateParams) (*book.Transaction, error) {
	if len(p.Splits) < 2 {
		return nil, errs.ErrInvalid
	}
	var out *book.Transaction
	err := s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		t := book.NewTransaction(p.Date, p.Description)
		t.Payee = p.Payee
		t.CheckNumber = p.CheckNumber
		t.Notes = p.Notes
		if err := s.appendSplits(b, t, p.Splits); err != nil {
			return err
		}
		if err := b.AddTransaction(t); err != nil {
			return err
		}
		out = t.Clone()
		return nil
	})
	return out, err
}

func (s *service) Get(ctx context.Context, bookID, txnID uuid.UUID) (*book.Transaction, error) {
	var out *book.Transaction
	err := s.store.ViewBook(ctx, bookID, func(b *book.Book) error {
		if t, ok := b.TransactionByID(txnID); ok {
			out = t.Clone()
			return nil
		}
		if t, ok := b.Draft(txnID); ok {
			out = t.Clone()
			return nil
		}
		return errs.ErrNotFound
	})
	return out, err
}

func (s *service) List(ctx context.Context, bookID uuid.UUID) ([]*book.Transaction, error) {
	var out []*book.Transaction
	err := s.store.ViewBook(ctx, bookID, func(b *book.Book) error {
		for _, t := range b.Transactions() {
			out = append(out, t.Clone())
		}
		return nil
	})
	return out, err
}

func (s *service) Delete(ctx context.Context, bookID, txnID uuid.UUID) error {
	return s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		return b.DeleteTransaction(txnID)
	})
}

func (s *service) BeginEdit(ctx context.Context, bookID, txnID uuid.UUID) (*book.Transaction, error) {
	var out *book.Transaction
	err := s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		t, err := b.BeginEdit(txnID)
		if err != nil {
			return err
		}
		out = t.Clone()
		return nil
	})
	return out, err
}

func (s *service) PatchDraft(ctx context.Context, bookID, txnID uuid.UUID, p DraftPatch) (*book.Transaction, error) {
	var out *book.Transaction
	err := s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		t, ok := b.Draft(txnID)
		if !ok {
			return errs.ErrNotFound
		}
		if p.Date != nil {
			t.Date = currency.DateOnly(*p.Date)
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.Payee != nil {
			t.Payee = *p.Payee
		}
		if p.CheckNumber != nil {
			t.CheckNumber = *p.CheckNumber
		}
		if p.Notes != nil {
			t.Notes = *p.Notes
		}
		for _, id := range p.RemoveSplits {
			if !t.RemoveSplit(id) {
				return errs.ErrNotFound
			}
		}
		if err := s.appendSplits(b, t, p.AddSplits); err != nil {
			return err
		}
		out = t.Clone()
		return nil
	})
	return out, err
}

func (s *service) CommitEdit(ctx context.Context, bookID, txnID uuid.UUID) (*book.Transaction, error) {
	var out *book.Transaction
	err := s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		t, err := b.CommitEdit(txnID)
		if err != nil {
			return err
		}
		out = t.Clone()
		return nil
	})
	return out, err
}

func (s *service) CancelEdit(ctx context.Context, bookID, txnID uuid.UUID) error {
	return s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		return b.CancelEdit(txnID)
	})
}

func (s *service) Move(ctx context.Context, bookID uuid.UUID, ids []uuid.UUID, destRow int) error {
	return s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		return b.MoveRows(ids, destRow)
	})
}

func (s *service) Reconcile(ctx context.Context, bookID uuid.UUID, refs []book.SplitRef, date time.Time) error {
	return s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		return b.ToggleReconciledBulk(refs, date)
	})
}

func (s *service) Rows(ctx context.Context, bookID, accountID uuid.UUID, from, to *time.Time) ([]Row, bool, error) {
	var rows []Row
	var showBalance bool
	now := time.Now().UTC()
	err := s.store.ViewBook(ctx, bookID, func(b *book.Book) error {
		sb, err := b.ShouldShowBalanceColumn(accountID)
		if err != nil {
			return err
		}
		showBalance = sb
		for i, e := range b.EntriesFor(accountID) {
			if from != nil && e.Date().Before(currency.DateOnly(*from)) {
				continue
			}
			if to != nil && e.Date().After(currency.DateOnly(*to)) {
				continue
			}
			t := e.Transaction()
			sp := e.Split()
			row := Row{
				Index:           i,
				TransactionID:   t.ID,
				SplitID:         sp.ID,
				Date:            e.Date(),
				Description:     t.Description,
				Payee:           t.Payee,
				CheckNumber:     t.CheckNumber,
				Amount:          sp.Amount.String(),
				AmountCurrency:  sp.Amount.Currency().Code(),
				Normalized:      e.Normalized().String(),
				Balance:         e.Balance().String(),
				BalanceNegative: b.IsBalanceNegativeAtRow(accountID, i),
				Reconciled:      sp.Reconciled,
				MultiCurrency:   t.IsMultiCurrency(),
				CanReconcile:    b.CanReconcileEntryAtRow(accountID, i, now),
			}
			if sp.ReconciliationDate != nil {
				d := *sp.ReconciliationDate
				row.ReconciliationDate = &d
			}
			rows = append(rows, row)
		}
		return nil
	})
	return rows, showBalance, err
}

func (s *service) TotalsText(ctx context.Context, bookID, accountID uuid.UUID, from, to *time.Time) (string, error) {
	var out string
	err := s.store.ViewBook(ctx, bookID, func(b *book.Book) error {
		totals, err := b.TotalsFor(accountID, from, to)
		if err != nil {
			return err
		}
		out = totals.String()
		return nil
	})
	return out, err
}

func (s *service) Undo(ctx context.Context, bookID uuid.UUID) (string, bool, error) {
	var desc string
	var done bool
	err := s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		desc, done = b.Undo()
		return nil
	})
	return desc, done, err
}

func (s *service) Redo(ctx context.Context, bookID uuid.UUID) (string, bool, error) {
	var desc string
	var done bool
	err := s.store.WithBook(ctx, bookID, func(b *book.Book) error {
		desc, done = b.Redo()
		return nil
	})
	return desc, done, err
}

// appendSplits resolves each split's account and exact amount and appends
// them to t. Account names unknown to the book are implicitly created.
func (s *service) appendSplits(b *book.Book, t *book.Transaction, params []SplitParams) error {
	for _, p := range params {
		cur, ok := b.Currencies().Get(p.Currency)
		if !ok {
			return errs.ErrInvalid
		}
		amt, err := amount.Parse(cur, p.Amount)
		if err != nil {
			return err
		}
		var acc *book.Account
		switch {
		case p.AccountID != uuid.Nil:
			acc, ok = b.Accounts().ByID(p.AccountID)
			if !ok {
				return errs.ErrNotFound
			}
		case p.AccountName != "":
			typ := p.AccountType
			if !typ.IsValid() {
				if amt.IsNegative() {
					typ = book.AccountTypeIncome
				} else {
					typ = book.AccountTypeExpense
				}
			}
			acc, err = b.AutocreateAccount(p.AccountName, p.Currency, typ)
			if err != nil {
				return err
			}
		default:
			return errs.ErrInvalid
		}
		t.AddSplit(acc, amt)
	}
	return nil
}
