package book

import (
	"time"

	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/amount"
	"github.com/davmoss/moneybook/internal/collate"
	"github.com/davmoss/moneybook/internal/currency"
	"github.com/davmoss/moneybook/internal/meta"
)

// AccountType enumerates the broad classification of an account.
type AccountType string

const (
	// AccountTypeAsset increases on the debit side and holds owned resources.
	AccountTypeAsset AccountType = "asset"
	// AccountTypeLiability increases on the credit side and tracks obligations.
	AccountTypeLiability AccountType = "liability"
	// AccountTypeIncome represents inflows; increases on the credit side.
	AccountTypeIncome AccountType = "income"
	// AccountTypeExpense represents outflows; increases on the debit side.
	AccountTypeExpense AccountType = "expense"
)

// IsValid reports whether t is one of the four known account types.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// Account is a named ledger bucket. The canonical instances are owned by the
// book's Accounts index; splits hold non-owning references to them.
//
// Name and its collation key are maintained together by the index; renames
// go through Accounts.Rename so uniqueness stays enforced.
type Account struct {
	ID       uuid.UUID
	Name     string
	nameKey  string
	Type     AccountType
	Currency *currency.Currency
	// Reference is an external matching handle, like a bank-issued id, used
	// to pair the account with one coming from an import.
	Reference string
	// Group is a free-form grouping name. Empty means no group.
	Group string
	// AccountNumber can stand in for the name in entry UIs.
	AccountNumber string
	Notes         string
	// Inactive accounts are hidden from auto-complete but keep their history.
	Inactive bool
	// Autocreated accounts were made implicitly during entry or import and
	// are silently purged once nothing references them.
	Autocreated bool
	Metadata    meta.Metadata
}

// NameKey returns the collation key the name index holds the account under.
func (a *Account) NameKey() string { return a.nameKey }

// setName updates the name and its collation key together.
func (a *Account) setName(name string) {
	a.Name = name
	a.nameKey = collate.Key(name)
}

// Clone returns a complete copy of the account. The copy shares the Currency
// reference, which is owned by the registry, and is always valid: there is
// no zero-initialization precondition.
func (a *Account) Clone() *Account {
	c := *a
	c.Metadata = a.Metadata.Clone()
	return &c
}

// IsBalanceSheet reports whether the account appears on the balance sheet.
func (a *Account) IsBalanceSheet() bool {
	return a.Type == AccountTypeAsset || a.Type == AccountTypeLiability
}

// IsIncomeStatement reports whether the account appears on the income statement.
func (a *Account) IsIncomeStatement() bool {
	return a.Type == AccountTypeIncome || a.Type == AccountTypeExpense
}

// IsCredit reports whether the account increases on the credit side.
func (a *Account) IsCredit() bool {
	return a.Type == AccountTypeLiability || a.Type == AccountTypeIncome
}

// IsDebit reports whether the account increases on the debit side.
func (a *Account) IsDebit() bool {
	return a.Type == AccountTypeAsset || a.Type == AccountTypeExpense
}

// TypeName returns the account type under its string form.
func (a *Account) TypeName() string { return string(a.Type) }

// CanReconcile reports whether splits posted to the account may be
// reconciled. Autocreated placeholder accounts are excluded.
func (a *Account) CanReconcile() bool { return !a.Autocreated }

// NormalizeAmount converts amt into the account's default currency using the
// rate effective at asOf. Callers crossing currencies supply the enclosing
// transaction's date.
func (a *Account) NormalizeAmount(reg *currency.Registry, amt amount.Amount, asOf time.Time) (amount.Amount, error) {
	return amt.ConvertedTo(reg, a.Currency, asOf)
}
