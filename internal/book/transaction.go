package book

import (
	"time"

	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/amount"
	"github.com/davmoss/moneybook/internal/currency"
	"github.com/davmoss/moneybook/internal/errs"
	"github.com/davmoss/moneybook/internal/meta"
)

// Split is one leg of a transaction: an account reference and an amount,
// possibly in a currency other than the account's default. The transaction
// exclusively owns its splits; the account reference is non-owning.
type Split struct {
	ID      uuid.UUID
	Account *Account
	Amount  amount.Amount
	// Reconciled marks the split as matched against an external statement.
	Reconciled         bool
	ReconciliationDate *time.Time
}

// Clone returns a copy of the split sharing the account reference.
func (s *Split) Clone() *Split {
	c := *s
	if s.ReconciliationDate != nil {
		d := *s.ReconciliationDate
		c.ReconciliationDate = &d
	}
	return &c
}

// Transaction is an ordered collection of splits sharing a date. While being
// edited it may hold any split set, including a single leg or an unbalanced
// one; balance is enforced only when the transaction is committed to the
// book.
type Transaction struct {
	ID          uuid.UUID
	Date        time.Time
	Description string
	Payee       string
	CheckNumber string
	Notes       string
	// Position disambiguates manual ordering among transactions sharing a
	// date. Assigned by the book when the transaction is committed.
	Position int
	Splits   []*Split
	Metadata meta.Metadata
}

// NewTransaction returns an empty transaction dated at the calendar day of date.
func NewTransaction(date time.Time, description string) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		Date:        currency.DateOnly(date),
		Description: description,
		Metadata:    meta.Metadata{},
	}
}

// AddSplit appends a split for amt posted to account. It does not
// auto-balance the transaction.
func (t *Transaction) AddSplit(account *Account, amt amount.Amount) *Split {
	s := &Split{ID: uuid.New(), Account: account, Amount: amt}
	t.Splits = append(t.Splits, s)
	return s
}

// SplitByID returns the split with the given id.
func (t *Transaction) SplitByID(id uuid.UUID) (*Split, bool) {
	for _, s := range t.Splits {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// RemoveSplit drops the split with the given id.
func (t *Transaction) RemoveSplit(id uuid.UUID) bool {
	for i, s := range t.Splits {
		if s.ID == id {
			t.Splits = append(t.Splits[:i], t.Splits[i+1:]...)
			return true
		}
	}
	return false
}

// MoveSplit reorders the split with the given id to index to.
func (t *Transaction) MoveSplit(id uuid.UUID, to int) bool {
	if to < 0 || to >= len(t.Splits) {
		return false
	}
	from := -1
	for i, s := range t.Splits {
		if s.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return false
	}
	s := t.Splits[from]
	t.Splits = append(t.Splits[:from], t.Splits[from+1:]...)
	t.Splits = append(t.Splits[:to], append([]*Split{s}, t.Splits[to:]...)...)
	return true
}

// References reports whether any split posts to the given account.
func (t *Transaction) References(accountID uuid.UUID) bool {
	for _, s := range t.Splits {
		if s.Account != nil && s.Account.ID == accountID {
			return true
		}
	}
	return false
}

// IsMultiCurrency reports whether the splits span more than one currency.
func (t *Transaction) IsMultiCurrency() bool {
	var first string
	for _, s := range t.Splits {
		c := s.Amount.Currency()
		if c == nil {
			continue
		}
		if first == "" {
			first = c.Code()
			continue
		}
		if c.Code() != first {
			return true
		}
	}
	return false
}

// IsBalanced reports whether the splits sum to zero once converted into a
// common currency at the transaction date. Conversion failures (no rate at
// or before the date) surface as an error, distinct from "not balanced".
func (t *Transaction) IsBalanced(reg *currency.Registry) (bool, error) {
	if len(t.Splits) == 0 {
		return true, nil
	}
	common := t.Splits[0].Amount.Currency()
	if common == nil {
		return false, errs.ErrInvalid
	}
	sum := amount.Zero(common)
	for _, s := range t.Splits {
		conv, err := s.Amount.ConvertedTo(reg, common, t.Date)
		if err != nil {
			return false, err
		}
		sum, err = sum.Add(conv)
		if err != nil {
			return false, err
		}
	}
	return sum.IsZero(), nil
}

// ToggleReconciled flips the reconciliation flag of the split, stamping or
// clearing the reconciliation date. Splits posted to accounts that disallow
// reconciliation fail with ErrNotReconcilable.
func (t *Transaction) ToggleReconciled(splitID uuid.UUID, date time.Time) error {
	s, ok := t.SplitByID(splitID)
	if !ok {
		return errs.ErrNotFound
	}
	if s.Account == nil || !s.Account.CanReconcile() {
		return errs.ErrNotReconcilable
	}
	if s.Reconciled {
		s.Reconciled = false
		s.ReconciliationDate = nil
		return nil
	}
	d := currency.DateOnly(date)
	s.Reconciled = true
	s.ReconciliationDate = &d
	return nil
}

// HasReconciledSplit reports whether any split is reconciled. Such
// transactions are excluded from manual reordering.
func (t *Transaction) HasReconciledSplit() bool {
	for _, s := range t.Splits {
		if s.Reconciled {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the transaction and its splits. Account and
// currency references are shared, matching their registry ownership.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.Metadata = t.Metadata.Clone()
	c.Splits = make([]*Split, len(t.Splits))
	for i, s := range t.Splits {
		c.Splits[i] = s.Clone()
	}
	return &c
}
