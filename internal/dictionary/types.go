// Package dictionary exposes the curated lists the presentation layer uses
// to populate pickers: account types with their display traits, and
// suggested group names per type.
package dictionary

import "github.com/davmoss/moneybook/internal/book"

// TypeDef describes one account type for the UI.
type TypeDef struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	// BalanceSheet reports whether a running balance column is meaningful
	// for accounts of this type.
	BalanceSheet bool `json:"balance_sheet"`
	// NaturalSide is "debit" or "credit", the side the type increases on.
	NaturalSide string `json:"natural_side"`
}

var types = []TypeDef{
	{Code: string(book.AccountTypeAsset), Label: "Asset", BalanceSheet: true, NaturalSide: "debit"},
	{Code: string(book.AccountTypeLiability), Label: "Liability", BalanceSheet: true, NaturalSide: "credit"},
	{Code: string(book.AccountTypeIncome), Label: "Income", BalanceSheet: false, NaturalSide: "credit"},
	{Code: string(book.AccountTypeExpense), Label: "Expense", BalanceSheet: false, NaturalSide: "debit"},
}

// Types returns the four account types in display order.
func Types() []TypeDef {
	out := make([]TypeDef, len(types))
	copy(out, types)
	return out
}

var groups = map[book.AccountType][]string{
	book.AccountTypeAsset:     {"Bank", "Cash", "Savings", "Investment", "Receivable"},
	book.AccountTypeLiability: {"Credit Card", "Loan", "Payable"},
	book.AccountTypeIncome:    {"Salary", "Interest", "Refund", "Other Income"},
	book.AccountTypeExpense:   {"Groceries", "Eating Out", "Rent", "Utilities", "Transport", "Entertainment", "General"},
}

// GroupsFor returns suggested group names for an account type. A nil type
// yields the suggestions for every type.
func GroupsFor(t *book.AccountType) []string {
	if t == nil {
		out := make([]string, 0)
		for _, def := range types {
			out = append(out, groups[book.AccountType(def.Code)]...)
		}
		return out
	}
	list := groups[*t]
	out := make([]string, len(list))
	copy(out, list)
	return out
}
