package book

import (
	"sort"

	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/collate"
	"github.com/davmoss/moneybook/internal/currency"
	"github.com/davmoss/moneybook/internal/errs"
	"github.com/davmoss/moneybook/internal/meta"
)

// Accounts is the document-scoped account index. It enforces name
// uniqueness under case-insensitive collation and is the sole mutator of
// account names.
type Accounts struct {
	byID  map[uuid.UUID]*Account
	byKey map[string]*Account
}

// NewAccounts returns an empty index.
func NewAccounts() *Accounts {
	return &Accounts{
		byID:  make(map[uuid.UUID]*Account),
		byKey: make(map[string]*Account),
	}
}

// Create adds a new account. Fails with ErrDuplicateAccountName when another
// account collates to the same name key.
func (ac *Accounts) Create(name string, cur *currency.Currency, typ AccountType) (*Account, error) {
	if cur == nil || !typ.IsValid() {
		return nil, errs.ErrInvalid
	}
	key := collate.Key(name)
	if key == "" {
		return nil, errs.ErrInvalid
	}
	if _, ok := ac.byKey[key]; ok {
		return nil, errs.ErrDuplicateAccountName
	}
	a := &Account{
		ID:       uuid.New(),
		Type:     typ,
		Currency: cur,
		Metadata: meta.Metadata{},
	}
	a.setName(name)
	ac.byID[a.ID] = a
	ac.byKey[a.nameKey] = a
	return a, nil
}

// add indexes an already-built account, used when restoring a persisted
// book. The account keeps its identity and flags.
func (ac *Accounts) add(a *Account) error {
	if a == nil || a.ID == uuid.Nil || a.Currency == nil || !a.Type.IsValid() {
		return errs.ErrInvalid
	}
	a.setName(a.Name)
	if a.nameKey == "" {
		return errs.ErrInvalid
	}
	if _, ok := ac.byID[a.ID]; ok {
		return errs.ErrConflict
	}
	if _, ok := ac.byKey[a.nameKey]; ok {
		return errs.ErrDuplicateAccountName
	}
	if a.Metadata == nil {
		a.Metadata = meta.Metadata{}
	}
	ac.byID[a.ID] = a
	ac.byKey[a.nameKey] = a
	return nil
}

// ByID returns the account with the given id.
func (ac *Accounts) ByID(id uuid.UUID) (*Account, bool) {
	a, ok := ac.byID[id]
	return a, ok
}

// FindByName resolves an account by case-insensitive name.
func (ac *Accounts) FindByName(name string) (*Account, bool) {
	a, ok := ac.byKey[collate.Key(name)]
	return a, ok
}

// Rename changes an account's name, recomputing the collation key
// atomically with it. Renaming to a name held by another account fails with
// ErrDuplicateAccountName and leaves the original name unchanged. Renaming
// to a different casing of the same name is allowed.
func (ac *Accounts) Rename(id uuid.UUID, newName string) error {
	a, ok := ac.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	key := collate.Key(newName)
	if key == "" {
		return errs.ErrInvalid
	}
	if other, ok := ac.byKey[key]; ok && other != a {
		return errs.ErrDuplicateAccountName
	}
	delete(ac.byKey, a.nameKey)
	a.setName(newName)
	ac.byKey[a.nameKey] = a
	return nil
}

// Remove drops the account from the index. The caller is responsible for
// making sure no split references it.
func (ac *Accounts) Remove(id uuid.UUID) bool {
	a, ok := ac.byID[id]
	if !ok {
		return false
	}
	delete(ac.byID, id)
	delete(ac.byKey, a.nameKey)
	return true
}

// List returns all accounts ordered by collation key.
func (ac *Accounts) List() []*Account {
	out := make([]*Account, 0, len(ac.byID))
	for _, a := range ac.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].nameKey < out[j].nameKey })
	return out
}

// Len returns the number of indexed accounts.
func (ac *Accounts) Len() int { return len(ac.byID) }
