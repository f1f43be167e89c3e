package book

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/amount"
	"github.com/davmoss/moneybook/internal/currency"
	"github.com/davmoss/moneybook/internal/errs"
)

// Entry is one row of an account's ledger view: a split seen from its
// account, with the split amount normalized into the account currency and
// the running balance after applying it.
type Entry struct {
	txn        *Transaction
	split      *Split
	normalized amount.Amount
	balance    amount.Amount
}

// Transaction returns the transaction the entry belongs to.
func (e *Entry) Transaction() *Transaction { return e.txn }

// Split returns the underlying split.
func (e *Entry) Split() *Split { return e.split }

// Date returns the transaction date.
func (e *Entry) Date() time.Time { return e.txn.Date }

// Amount returns the split amount in its original currency.
func (e *Entry) Amount() amount.Amount { return e.split.Amount }

// Normalized returns the split amount in the account's default currency,
// converted at the transaction date.
func (e *Entry) Normalized() amount.Amount { return e.normalized }

// Balance returns the account's running balance after this entry.
func (e *Entry) Balance() amount.Amount { return e.balance }

// Oven cooks the committed transaction sequence into per-account entry
// lists with running balances. Transactions are kept in (date, position)
// order; insertions recompute only the affected suffix of each touched
// account.
type Oven struct {
	reg     *currency.Registry
	txns    []*Transaction
	entries map[uuid.UUID][]*Entry
}

// NewOven returns an empty engine converting through reg.
func NewOven(reg *currency.Registry) *Oven {
	return &Oven{reg: reg, entries: make(map[uuid.UUID][]*Entry)}
}

// txnLess orders transactions by date, then manual position, then id for a
// stable total order.
func txnLess(a, b *Transaction) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	return a.ID.String() < b.ID.String()
}

// Transactions returns the committed transactions in ledger order.
func (o *Oven) Transactions() []*Transaction { return o.txns }

// Len returns the number of committed transactions.
func (o *Oven) Len() int { return len(o.txns) }

// ByID returns the committed transaction with the given id.
func (o *Oven) ByID(id uuid.UUID) (*Transaction, bool) {
	for _, t := range o.txns {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// IndexOf returns the ledger-order index of the transaction, or -1.
func (o *Oven) IndexOf(id uuid.UUID) int {
	for i, t := range o.txns {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// EntriesFor returns the ordered ledger rows of an account.
func (o *Oven) EntriesFor(accountID uuid.UUID) []*Entry { return o.entries[accountID] }

// Insert adds a committed transaction at its date-ordered place, assigning a
// manual position at the end of its date bucket when none is set. Running
// balances of the touched accounts are recomputed from the insertion point
// forward only. If any split cannot be normalized into its account currency
// the oven is left untouched.
func (o *Oven) Insert(t *Transaction) error {
	t.Date = currency.DateOnly(t.Date)
	if t.Position == 0 {
		t.Position = o.nextPosition(t.Date)
	}
	norms := make([]amount.Amount, len(t.Splits))
	for i, s := range t.Splits {
		if s.Account == nil {
			return errs.ErrInvalid
		}
		n, err := s.Account.NormalizeAmount(o.reg, s.Amount, t.Date)
		if err != nil {
			return err
		}
		norms[i] = n
	}
	idx := sort.Search(len(o.txns), func(i int) bool { return txnLess(t, o.txns[i]) })
	o.txns = append(o.txns, nil)
	copy(o.txns[idx+1:], o.txns[idx:])
	o.txns[idx] = t
	for i, s := range t.Splits {
		o.insertEntry(&Entry{txn: t, split: s, normalized: norms[i]})
	}
	return nil
}

// Remove drops a committed transaction, recomputing the suffix balances of
// every account it touched.
func (o *Oven) Remove(id uuid.UUID) (*Transaction, bool) {
	idx := o.IndexOf(id)
	if idx < 0 {
		return nil, false
	}
	t := o.txns[idx]
	o.txns = append(o.txns[:idx], o.txns[idx+1:]...)
	for _, s := range t.Splits {
		accID := s.Account.ID
		list := o.entries[accID]
		for i, e := range list {
			if e.split == s {
				list = append(list[:i], list[i+1:]...)
				if len(list) == 0 {
					delete(o.entries, accID)
				} else {
					o.entries[accID] = list
					o.recookFrom(accID, i)
				}
				break
			}
		}
	}
	return t, true
}

// nextPosition returns one past the highest manual position in the date's
// bucket.
func (o *Oven) nextPosition(date time.Time) int {
	max := 0
	for _, t := range o.txns {
		if t.Date.Equal(date) && t.Position > max {
			max = t.Position
		}
	}
	return max + 1
}

// insertEntry places e into its account list at ledger order and recomputes
// balances from there.
func (o *Oven) insertEntry(e *Entry) {
	accID := e.split.Account.ID
	list := o.entries[accID]
	idx := sort.Search(len(list), func(i int) bool { return txnLess(e.txn, list[i].txn) })
	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = e
	o.entries[accID] = list
	o.recookFrom(accID, idx)
}

// recookFrom recomputes running balances of an account from index from to
// the end. Balances before from are untouched.
func (o *Oven) recookFrom(accountID uuid.UUID, from int) {
	list := o.entries[accountID]
	if len(list) == 0 {
		return
	}
	bal := amount.Zero(list[0].split.Account.Currency)
	if from > 0 {
		bal = list[from-1].balance
	}
	for i := from; i < len(list); i++ {
		// Same currency throughout; Add cannot fail here.
		bal, _ = bal.Add(list[i].normalized)
		list[i].balance = bal
	}
}

// Recook rebuilds every entry list from scratch, re-normalizing amounts
// with the current rates. Used after a rate change. The swap is atomic: on
// error the previous cooked state stays in place.
func (o *Oven) Recook() error {
	fresh := make(map[uuid.UUID][]*Entry, len(o.entries))
	for _, t := range o.txns {
		for _, s := range t.Splits {
			n, err := s.Account.NormalizeAmount(o.reg, s.Amount, t.Date)
			if err != nil {
				return err
			}
			fresh[s.Account.ID] = append(fresh[s.Account.ID], &Entry{txn: t, split: s, normalized: n})
		}
	}
	o.entries = fresh
	for accID := range o.entries {
		o.recookFrom(accID, 0)
	}
	return nil
}

// BalanceAt returns the running balance of an account after the entry at
// row, in the account's default currency.
func (o *Oven) BalanceAt(accountID uuid.UUID, row int) (amount.Amount, error) {
	list := o.entries[accountID]
	if row < 0 || row >= len(list) {
		return amount.Amount{}, errs.ErrNotFound
	}
	return list[row].balance, nil
}

// IsBalanceNegativeAtRow reports whether the account balance is below zero
// after applying the entry at row.
func (o *Oven) IsBalanceNegativeAtRow(accountID uuid.UUID, row int) bool {
	list := o.entries[accountID]
	if row < 0 || row >= len(list) {
		return false
	}
	return list[row].balance.IsNegative()
}

// CanMoveRows reports whether the transactions can be manually reordered to
// destRow in ledger order. A move is permitted only among transactions
// sharing one date, with destRow inside that date's bucket, and none of the
// moved transactions carrying a reconciled split.
func (o *Oven) CanMoveRows(ids []uuid.UUID, destRow int) bool {
	if len(ids) == 0 {
		return false
	}
	var date time.Time
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for i, id := range ids {
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
		t, ok := o.ByID(id)
		if !ok || t.HasReconciledSplit() {
			return false
		}
		if i == 0 {
			date = t.Date
		} else if !t.Date.Equal(date) {
			return false
		}
	}
	start, end := o.dateBucket(date)
	return destRow >= start && destRow <= end
}

// MoveRows reorders the transactions to destRow, renumbering manual
// positions across the date bucket and recomputing the affected balances.
// Fails with ErrInvalidMove, mutating nothing, when CanMoveRows is false.
func (o *Oven) MoveRows(ids []uuid.UUID, destRow int) error {
	if !o.CanMoveRows(ids, destRow) {
		return errs.ErrInvalidMove
	}
	date := mustTxn(o, ids[0]).Date
	start, end := o.dateBucket(date)
	bucket := o.txns[start:end]

	moving := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		moving[id] = struct{}{}
	}
	kept := make([]*Transaction, 0, len(bucket))
	moved := make([]*Transaction, 0, len(ids))
	dest := destRow - start
	offset := dest
	for i, t := range bucket {
		if _, ok := moving[t.ID]; ok {
			moved = append(moved, t)
			if i < dest {
				offset--
			}
		} else {
			kept = append(kept, t)
		}
	}
	if offset > len(kept) {
		offset = len(kept)
	}
	reordered := make([]*Transaction, 0, len(bucket))
	reordered = append(reordered, kept[:offset]...)
	reordered = append(reordered, moved...)
	reordered = append(reordered, kept[offset:]...)
	for i, t := range reordered {
		t.Position = i + 1
		o.txns[start+i] = t
	}

	// Entry order inside the bucket changed for every account the bucket
	// touches; rebuild those subranges and recook from there.
	touched := make(map[uuid.UUID]struct{})
	for _, t := range reordered {
		for _, s := range t.Splits {
			touched[s.Account.ID] = struct{}{}
		}
	}
	for accID := range touched {
		o.reorderDateBucket(accID, date, reordered)
	}
	return nil
}

// reorderDateBucket rewrites the slice of an account's entries falling on
// date so it matches the new transaction order, then recomputes balances
// from the start of that slice.
func (o *Oven) reorderDateBucket(accountID uuid.UUID, date time.Time, order []*Transaction) {
	list := o.entries[accountID]
	lo := sort.Search(len(list), func(i int) bool { return !list[i].Date().Before(date) })
	hi := sort.Search(len(list), func(i int) bool { return list[i].Date().After(date) })
	if lo >= hi {
		return
	}
	bySplit := make(map[uuid.UUID]*Entry, hi-lo)
	for _, e := range list[lo:hi] {
		bySplit[e.split.ID] = e
	}
	i := lo
	for _, t := range order {
		for _, s := range t.Splits {
			if e, ok := bySplit[s.ID]; ok {
				list[i] = e
				i++
			}
		}
	}
	o.recookFrom(accountID, lo)
}

// dateBucket returns the [start, end) ledger-order range of transactions
// sharing date.
func (o *Oven) dateBucket(date time.Time) (int, int) {
	start := sort.Search(len(o.txns), func(i int) bool { return !o.txns[i].Date.Before(date) })
	end := sort.Search(len(o.txns), func(i int) bool { return o.txns[i].Date.After(date) })
	return start, end
}

func mustTxn(o *Oven, id uuid.UUID) *Transaction {
	t, _ := o.ByID(id)
	return t
}

// Totals summarizes the visible subset of an account's ledger rows.
type Totals struct {
	Shown   int
	Total   int
	Debits  amount.Amount
	Credits amount.Amount
	Net     amount.Amount
}

// String renders the summary as the multi-line text shown below a filtered
// entry listing.
func (t Totals) String() string {
	code := ""
	if t.Net.Currency() != nil {
		code = " " + t.Net.Currency().Code()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "showing %d of %d entries\n", t.Shown, t.Total)
	fmt.Fprintf(&b, "debits: %s%s\n", t.Debits.String(), code)
	fmt.Fprintf(&b, "credits: %s%s\n", t.Credits.String(), code)
	fmt.Fprintf(&b, "net: %s%s", t.Net.String(), code)
	return b.String()
}

// TotalsFor computes totals over the rows of an account for which keep
// returns true, in the account's default currency. A nil keep means every
// row is visible. The full ledger is never duplicated; rows outside the
// subset only bump the total count.
func (o *Oven) TotalsFor(accountID uuid.UUID, cur *currency.Currency, keep func(*Entry) bool) Totals {
	t := Totals{
		Debits:  amount.Zero(cur),
		Credits: amount.Zero(cur),
		Net:     amount.Zero(cur),
	}
	for _, e := range o.entries[accountID] {
		t.Total++
		if keep != nil && !keep(e) {
			continue
		}
		t.Shown++
		if e.normalized.IsNegative() {
			t.Credits, _ = t.Credits.Add(e.normalized.Neg())
		} else {
			t.Debits, _ = t.Debits.Add(e.normalized)
		}
		t.Net, _ = t.Net.Add(e.normalized)
	}
	return t
}
