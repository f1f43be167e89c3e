// Package book implements the accounting core: currencies and accounts of a
// document, transactions made of balanced splits, and the balance engine
// that keeps running balances current as the presentation layer mutates
// data.
//
// The model is single-writer: commands run to completion one at a time, are
// applied all-or-nothing, and end by bumping a revision counter and firing a
// single refresh notification. Callers needing concurrency wrap the book in
// one coarse lock per document.
package book

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davmoss/moneybook/internal/amount"
	"github.com/davmoss/moneybook/internal/book/undo"
	"github.com/davmoss/moneybook/internal/currency"
	"github.com/davmoss/moneybook/internal/errs"
)

// Notifier receives the single "data changed" signal emitted after any
// successful mutation. The core pushes no deltas; consumers re-query.
type Notifier interface {
	BookChanged()
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func()

func (f NotifierFunc) BookChanged() { f() }

// undoLimit caps the snapshot history per book.
const undoLimit = 100

// draft tracks a transaction being edited: the working copy, the committed
// values to roll back to (nil for a brand-new transaction), and the book
// snapshot taken before the edit began, used as the undo state on commit.
type draft struct {
	txn      *Transaction
	original *Transaction
	snap     *snapshot
}

// Book is one open document: the canonical currency and account registries,
// the committed transaction sequence with cooked balances, drafts being
// edited, and the undo history.
type Book struct {
	reg      *currency.Registry
	accounts *Accounts
	oven     *Oven
	drafts   map[uuid.UUID]*draft
	history  *undo.Stack[*snapshot]
	notifier Notifier
	revision uint64
}

// New returns an empty book with its own registries.
func New() *Book {
	reg := currency.NewRegistry()
	return &Book{
		reg:      reg,
		accounts: NewAccounts(),
		oven:     NewOven(reg),
		drafts:   make(map[uuid.UUID]*draft),
		history:  undo.NewStack[*snapshot](undoLimit),
	}
}

// SetNotifier installs the refresh signal consumer.
func (b *Book) SetNotifier(n Notifier) { b.notifier = n }

// Revision returns a counter incremented by every successful mutation.
func (b *Book) Revision() uint64 { return b.revision }

func (b *Book) touch() {
	b.revision++
	if b.notifier != nil {
		b.notifier.BookChanged()
	}
}

// --- Currencies ---

// Currencies exposes the document's currency registry for read access.
func (b *Book) Currencies() *currency.Registry { return b.reg }

// RegisterCurrency adds a currency with an explicit exponent.
func (b *Book) RegisterCurrency(code string, exponent int) (*currency.Currency, error) {
	c, err := b.reg.Register(code, exponent)
	if err != nil {
		return nil, err
	}
	b.touch()
	return c, nil
}

// RegisterISOCurrency adds a currency with its ISO 4217 exponent.
func (b *Book) RegisterISOCurrency(code string) (*currency.Currency, error) {
	c, err := b.reg.RegisterISO(code)
	if err != nil {
		return nil, err
	}
	b.touch()
	return c, nil
}

// SetRate records an exchange rate sample and rebuilds all cooked balances
// with the updated table.
func (b *Book) SetRate(fromCode, toCode string, date time.Time, rate decimal.Decimal) error {
	from, ok := b.reg.Get(fromCode)
	if !ok {
		return errs.ErrNotFound
	}
	to, ok := b.reg.Get(toCode)
	if !ok {
		return errs.ErrNotFound
	}
	if err := b.reg.SetRate(from, to, date, rate); err != nil {
		return err
	}
	if err := b.oven.Recook(); err != nil {
		return err
	}
	b.touch()
	return nil
}

// --- Accounts ---

// Accounts exposes the account index for read access.
func (b *Book) Accounts() *Accounts { return b.accounts }

// CreateAccount adds an account denominated in a registered currency.
func (b *Book) CreateAccount(name, currencyCode string, typ AccountType) (*Account, error) {
	cur, ok := b.reg.Get(currencyCode)
	if !ok {
		return nil, errs.ErrInvalid
	}
	snap := b.snapshot()
	a, err := b.accounts.Create(name, cur, typ)
	if err != nil {
		return nil, err
	}
	b.history.Push("add account", snap)
	b.touch()
	return a, nil
}

// AutocreateAccount resolves name to an existing account or implicitly
// creates one flagged autocreated, the way unknown account names behave
// during entry and import. Autocreated accounts are purged once orphaned.
func (b *Book) AutocreateAccount(name, currencyCode string, typ AccountType) (*Account, error) {
	if a, ok := b.accounts.FindByName(name); ok {
		return a, nil
	}
	cur, ok := b.reg.Get(currencyCode)
	if !ok {
		return nil, errs.ErrInvalid
	}
	snap := b.snapshot()
	a, err := b.accounts.Create(name, cur, typ)
	if err != nil {
		return nil, err
	}
	a.Autocreated = true
	b.history.Push("add account", snap)
	b.touch()
	return a, nil
}

// RenameAccount renames an account, keeping the collation index in step.
func (b *Book) RenameAccount(id uuid.UUID, newName string) error {
	snap := b.snapshot()
	if err := b.accounts.Rename(id, newName); err != nil {
		return err
	}
	b.history.Push("rename account", snap)
	b.touch()
	return nil
}

// AccountDetails carries optional edits to an account's descriptive fields.
// Nil members are left untouched.
type AccountDetails struct {
	Reference     *string
	Group         *string
	AccountNumber *string
	Notes         *string
	Inactive      *bool
}

// EditAccount applies descriptive field changes.
func (b *Book) EditAccount(id uuid.UUID, d AccountDetails) error {
	a, ok := b.accounts.ByID(id)
	if !ok {
		return errs.ErrNotFound
	}
	snap := b.snapshot()
	if d.Reference != nil {
		a.Reference = *d.Reference
	}
	if d.Group != nil {
		a.Group = *d.Group
	}
	if d.AccountNumber != nil {
		a.AccountNumber = *d.AccountNumber
	}
	if d.Notes != nil {
		a.Notes = *d.Notes
	}
	if d.Inactive != nil {
		a.Inactive = *d.Inactive
	}
	b.history.Push("edit account", snap)
	b.touch()
	return nil
}

// DeleteAccount removes an account. An account still referenced by splits
// is only removed when transferTo names another account to take ownership
// of those splits; otherwise the command fails with ErrConflict and nothing
// changes.
func (b *Book) DeleteAccount(id uuid.UUID, transferTo uuid.UUID) error {
	a, ok := b.accounts.ByID(id)
	if !ok {
		return errs.ErrNotFound
	}
	referencing := b.referencingTransactions(id)
	draftRefs := b.referencingDrafts(id)
	if len(referencing) > 0 || len(draftRefs) > 0 {
		if transferTo == uuid.Nil {
			return errs.ErrConflict
		}
		target, ok := b.accounts.ByID(transferTo)
		if !ok || target.ID == a.ID {
			return errs.ErrInvalid
		}
		// All-or-nothing: every transferred split must be convertible into
		// the target currency before anything moves.
		for _, t := range referencing {
			for _, s := range t.Splits {
				if s.Account.ID != id {
					continue
				}
				if _, err := target.NormalizeAmount(b.reg, s.Amount, t.Date); err != nil {
					return err
				}
			}
		}
		snap := b.snapshot()
		for _, t := range referencing {
			b.oven.Remove(t.ID)
			for _, s := range t.Splits {
				if s.Account.ID == id {
					s.Account = target
				}
			}
			// Insert cannot fail: conversions were prechecked.
			_ = b.oven.Insert(t)
		}
		for _, t := range draftRefs {
			for _, s := range t.Splits {
				if s.Account.ID == id {
					s.Account = target
				}
			}
		}
		b.accounts.Remove(id)
		b.history.Push("delete account", snap)
		b.touch()
		return nil
	}
	snap := b.snapshot()
	b.accounts.Remove(id)
	b.history.Push("delete account", snap)
	b.touch()
	return nil
}

// --- Transactions ---

// Transactions returns the committed sequence in ledger order.
func (b *Book) Transactions() []*Transaction { return b.oven.Transactions() }

// CommittedTransactions returns every transaction with committed values: the
// ledger sequence plus the last committed state of transactions currently
// checked out as drafts. Snapshots and persistence read this set, so an open
// edit never hides committed data.
func (b *Book) CommittedTransactions() []*Transaction {
	txns := b.oven.Transactions()
	withOriginals := false
	for _, d := range b.drafts {
		if d.original != nil {
			withOriginals = true
			break
		}
	}
	if !withOriginals {
		return txns
	}
	out := make([]*Transaction, 0, len(txns)+len(b.drafts))
	out = append(out, txns...)
	for _, d := range b.drafts {
		if d.original != nil {
			out = append(out, d.original)
		}
	}
	sort.Slice(out, func(i, j int) bool { return txnLess(out[i], out[j]) })
	return out
}

// TransactionByID returns a committed transaction.
func (b *Book) TransactionByID(id uuid.UUID) (*Transaction, bool) { return b.oven.ByID(id) }

// AddTransaction commits t to the book. The splits must reference indexed
// accounts and sum to zero in a common currency at the transaction date.
func (b *Book) AddTransaction(t *Transaction) error {
	if err := b.checkCommit(t); err != nil {
		return err
	}
	snap := b.snapshot()
	if err := b.oven.Insert(t); err != nil {
		return err
	}
	b.history.Push("add transaction", snap)
	b.purgeAutocreated()
	b.touch()
	return nil
}

// DeleteTransaction removes a committed transaction.
func (b *Book) DeleteTransaction(id uuid.UUID) error {
	snap := b.snapshot()
	if _, ok := b.oven.Remove(id); !ok {
		return errs.ErrNotFound
	}
	b.history.Push("delete transaction", snap)
	b.purgeAutocreated()
	b.touch()
	return nil
}

// NewDraft opens a brand-new draft transaction dated date. The draft is not
// part of the ledger until committed; any split state is tolerated while it
// is being edited.
func (b *Book) NewDraft(date time.Time) *Transaction {
	t := NewTransaction(date, "")
	b.drafts[t.ID] = &draft{txn: t, snap: b.snapshot()}
	return t
}

// BeginEdit re-enters draft state for a committed transaction. The
// transaction leaves the ledger, and balances exclude it, until the edit is
// committed or cancelled. Beginning an edit twice returns the same draft.
func (b *Book) BeginEdit(id uuid.UUID) (*Transaction, error) {
	if d, ok := b.drafts[id]; ok {
		return d.txn, nil
	}
	snap := b.snapshot()
	t, ok := b.oven.Remove(id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	work := t.Clone()
	b.drafts[id] = &draft{txn: work, original: t, snap: snap}
	b.touch()
	return work, nil
}

// Draft returns the open draft with the given id.
func (b *Book) Draft(id uuid.UUID) (*Transaction, bool) {
	d, ok := b.drafts[id]
	if !ok {
		return nil, false
	}
	return d.txn, true
}

// Drafts returns the ids of all open drafts.
func (b *Book) Drafts() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(b.drafts))
	for id := range b.drafts {
		out = append(out, id)
	}
	return out
}

// CommitEdit validates the draft and commits it to the ledger. On an
// unbalanced draft the command is rejected and the draft stays open.
func (b *Book) CommitEdit(id uuid.UUID) (*Transaction, error) {
	d, ok := b.drafts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if err := b.checkCommit(d.txn); err != nil {
		return nil, err
	}
	if err := b.oven.Insert(d.txn); err != nil {
		return nil, err
	}
	desc := "edit transaction"
	if d.original == nil {
		desc = "add transaction"
	}
	delete(b.drafts, id)
	b.history.Push(desc, d.snap)
	b.purgeAutocreated()
	b.touch()
	return d.txn, nil
}

// CancelEdit discards the draft, rolling the transaction back to its last
// committed values.
func (b *Book) CancelEdit(id uuid.UUID) error {
	d, ok := b.drafts[id]
	if !ok {
		return errs.ErrNotFound
	}
	if d.original != nil {
		if err := b.oven.Insert(d.original); err != nil {
			return err
		}
	}
	delete(b.drafts, id)
	b.purgeAutocreated()
	b.touch()
	return nil
}

// checkCommit enforces the commit-time invariants: at least two legs, every
// split posted to an indexed account, and a zero sum under a common
// currency at the transaction date.
func (b *Book) checkCommit(t *Transaction) error {
	if t == nil || len(t.Splits) < 2 {
		return errs.ErrInvalid
	}
	for _, s := range t.Splits {
		if s.Account == nil {
			return errs.ErrInvalid
		}
		if _, ok := b.accounts.ByID(s.Account.ID); !ok {
			return errs.ErrInvalid
		}
	}
	balanced, err := t.IsBalanced(b.reg)
	if err != nil {
		return err
	}
	if !balanced {
		return errs.ErrUnbalancedTransaction
	}
	return nil
}

// --- Reordering ---

// CanMoveRows reports whether the transactions can be manually reordered to
// destRow. Only same-date moves of unreconciled rows are permitted.
func (b *Book) CanMoveRows(ids []uuid.UUID, destRow int) bool {
	return b.oven.CanMoveRows(ids, destRow)
}

// MoveRows applies a manual reorder, failing with ErrInvalidMove and
// mutating nothing when the move is not permitted.
func (b *Book) MoveRows(ids []uuid.UUID, destRow int) error {
	if !b.oven.CanMoveRows(ids, destRow) {
		return errs.ErrInvalidMove
	}
	snap := b.snapshot()
	if err := b.oven.MoveRows(ids, destRow); err != nil {
		return err
	}
	b.history.Push("move transactions", snap)
	b.touch()
	return nil
}

// --- Reconciliation ---

// SplitRef addresses one split of a committed transaction.
type SplitRef struct {
	TransactionID uuid.UUID
	SplitID       uuid.UUID
}

// ToggleReconciled flips reconciliation of a single split at date.
func (b *Book) ToggleReconciled(ref SplitRef, date time.Time) error {
	return b.ToggleReconciledBulk([]SplitRef{ref}, date)
}

// ToggleReconciledBulk flips reconciliation of several splits in one
// command. Validation runs first over the whole set, so either every toggle
// applies or none does.
func (b *Book) ToggleReconciledBulk(refs []SplitRef, date time.Time) error {
	if len(refs) == 0 {
		return errs.ErrInvalid
	}
	for _, ref := range refs {
		t, ok := b.oven.ByID(ref.TransactionID)
		if !ok {
			return errs.ErrNotFound
		}
		s, ok := t.SplitByID(ref.SplitID)
		if !ok {
			return errs.ErrNotFound
		}
		if s.Account == nil || !s.Account.CanReconcile() {
			return errs.ErrNotReconcilable
		}
	}
	snap := b.snapshot()
	for _, ref := range refs {
		t, _ := b.oven.ByID(ref.TransactionID)
		if err := t.ToggleReconciled(ref.SplitID, date); err != nil {
			// Validated above; nothing can fail here.
			return err
		}
	}
	b.history.Push("reconcile", snap)
	b.touch()
	return nil
}

// CanReconcileEntryAtRow reports whether the entry at row may be
// reconciled: its date must not be in the future relative to now.
func (b *Book) CanReconcileEntryAtRow(accountID uuid.UUID, row int, now time.Time) bool {
	list := b.oven.EntriesFor(accountID)
	if row < 0 || row >= len(list) {
		return false
	}
	if !list[row].Split().Account.CanReconcile() {
		return false
	}
	return !list[row].Date().After(currency.DateOnly(now))
}

// --- Balance queries ---

// EntriesFor returns an account's ordered ledger rows.
func (b *Book) EntriesFor(accountID uuid.UUID) []*Entry { return b.oven.EntriesFor(accountID) }

// BalanceAt returns the running balance after the entry at row.
func (b *Book) BalanceAt(accountID uuid.UUID, row int) (amount.Amount, error) {
	return b.oven.BalanceAt(accountID, row)
}

// IsBalanceNegativeAtRow reports an overdraft after the entry at row.
func (b *Book) IsBalanceNegativeAtRow(accountID uuid.UUID, row int) bool {
	return b.oven.IsBalanceNegativeAtRow(accountID, row)
}

// ShouldShowBalanceColumn reports whether a running balance is meaningful
// for the account: true for balance-sheet accounts, false for pure
// income/expense listings.
func (b *Book) ShouldShowBalanceColumn(accountID uuid.UUID) (bool, error) {
	a, ok := b.accounts.ByID(accountID)
	if !ok {
		return false, errs.ErrNotFound
	}
	return a.IsBalanceSheet(), nil
}

// TotalsFor summarizes the account rows within [from, to], in the
// account's default currency. Nil bounds are open.
func (b *Book) TotalsFor(accountID uuid.UUID, from, to *time.Time) (Totals, error) {
	a, ok := b.accounts.ByID(accountID)
	if !ok {
		return Totals{}, errs.ErrNotFound
	}
	keep := func(e *Entry) bool {
		if from != nil && e.Date().Before(currency.DateOnly(*from)) {
			return false
		}
		if to != nil && e.Date().After(currency.DateOnly(*to)) {
			return false
		}
		return true
	}
	if from == nil && to == nil {
		keep = nil
	}
	return b.oven.TotalsFor(accountID, a.Currency, keep), nil
}

// --- Undo / redo ---

// CanUndo reports whether an action can be undone.
func (b *Book) CanUndo() bool { return b.history.CanUndo() }

// CanRedo reports whether an undone action can be reapplied.
func (b *Book) CanRedo() bool { return b.history.CanRedo() }

// UndoDescription names the action Undo would revert.
func (b *Book) UndoDescription() string { return b.history.UndoDescription() }

// RedoDescription names the action Redo would reapply.
func (b *Book) RedoDescription() string { return b.history.RedoDescription() }

// Undo reverts the latest recorded action, returning its description. Open
// drafts are discarded.
func (b *Book) Undo() (string, bool) {
	state, desc, ok := b.history.Undo(b.snapshot())
	if !ok {
		return "", false
	}
	b.restore(state)
	b.touch()
	return desc, true
}

// Redo reapplies the latest undone action.
func (b *Book) Redo() (string, bool) {
	state, desc, ok := b.history.Redo(b.snapshot())
	if !ok {
		return "", false
	}
	b.restore(state)
	b.touch()
	return desc, true
}

// --- Restore (storage boundary) ---

// RestoreAccount re-indexes a persisted account as-is, keeping its identity
// and flags. Restore operations bypass undo history and notifications.
func (b *Book) RestoreAccount(a *Account) error { return b.accounts.add(a) }

// RestoreTransaction re-commits a persisted transaction as-is, keeping its
// manual position.
func (b *Book) RestoreTransaction(t *Transaction) error {
	for _, s := range t.Splits {
		if s.Account == nil {
			return errs.ErrInvalid
		}
		if _, ok := b.accounts.ByID(s.Account.ID); !ok {
			return errs.ErrInvalid
		}
	}
	return b.oven.Insert(t)
}

// ClearHistory drops the undo history, typically right after loading.
func (b *Book) ClearHistory() { b.history.Clear() }

// SetRevision installs a persisted revision counter.
func (b *Book) SetRevision(rev uint64) { b.revision = rev }

// --- internals ---

// referencingTransactions returns committed transactions with at least one
// split posted to the account.
func (b *Book) referencingTransactions(accountID uuid.UUID) []*Transaction {
	var out []*Transaction
	for _, t := range b.oven.Transactions() {
		if t.References(accountID) {
			out = append(out, t)
		}
	}
	return out
}

func (b *Book) referencingDrafts(accountID uuid.UUID) []*Transaction {
	var out []*Transaction
	for _, d := range b.drafts {
		if d.txn.References(accountID) {
			out = append(out, d.txn)
		}
		if d.original != nil && d.original.References(accountID) {
			out = append(out, d.original)
		}
	}
	return out
}

// purgeAutocreated opportunistically drops autocreated accounts that no
// committed or draft split references anymore.
func (b *Book) purgeAutocreated() {
	for _, a := range b.accounts.List() {
		if !a.Autocreated {
			continue
		}
		if len(b.referencingTransactions(a.ID)) > 0 || len(b.referencingDrafts(a.ID)) > 0 {
			continue
		}
		b.accounts.Remove(a.ID)
	}
}

// snapshot captures a value copy of the account and committed transaction
// graphs, with split account references remapped onto the cloned accounts.
type snapshot struct {
	accounts []*Account
	txns     []*Transaction
}

func (b *Book) snapshot() *snapshot {
	accs, txns := cloneGraph(b.accounts.List(), b.CommittedTransactions())
	return &snapshot{accounts: accs, txns: txns}
}

// restore installs a fresh clone of s, so the stored state stays pristine
// for further undo/redo swaps. Open drafts are dropped. Reinsertion cannot
// fail: rates are append-only, so anything cooked before cooks again.
func (b *Book) restore(s *snapshot) {
	accs, txns := cloneGraph(s.accounts, s.txns)
	b.accounts = NewAccounts()
	for _, a := range accs {
		_ = b.accounts.add(a)
	}
	b.oven = NewOven(b.reg)
	for _, t := range txns {
		_ = b.oven.Insert(t)
	}
	b.drafts = make(map[uuid.UUID]*draft)
}

// cloneGraph deep-copies accounts and transactions together, keeping split
// account references pointed at the copied accounts.
func cloneGraph(accounts []*Account, txns []*Transaction) ([]*Account, []*Transaction) {
	accClones := make(map[uuid.UUID]*Account, len(accounts))
	accOut := make([]*Account, len(accounts))
	for i, a := range accounts {
		c := a.Clone()
		accClones[a.ID] = c
		accOut[i] = c
	}
	txnOut := make([]*Transaction, len(txns))
	for i, t := range txns {
		c := t.Clone()
		for _, s := range c.Splits {
			if s.Account != nil {
				if mapped, ok := accClones[s.Account.ID]; ok {
					s.Account = mapped
				}
			}
		}
		txnOut[i] = c
	}
	return accOut, txnOut
}
