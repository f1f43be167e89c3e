package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/service/entry"
)

const dateLayout = "2006-01-02"

// Books

type postBookRequest struct {
	Name string `json:"name"`
}

type bookResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type bookStateResponse struct {
	ID              uuid.UUID `json:"id"`
	Revision        uint64    `json:"revision"`
	CanUndo         bool      `json:"can_undo"`
	CanRedo         bool      `json:"can_redo"`
	UndoDescription string    `json:"undo_description,omitempty"`
	RedoDescription string    `json:"redo_description,omitempty"`
}

// Currencies and rates

type postCurrencyRequest struct {
	Code string `json:"code"`
	// Exponent is optional; when nil the ISO 4217 exponent is used.
	Exponent *int `json:"exponent,omitempty"`
}

type currencyResponse struct {
	Code     string `json:"code"`
	Exponent int    `json:"exponent"`
}

type postRateRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Date string `json:"date"`
	Rate string `json:"rate"`
}

// Accounts

type postAccountRequest struct {
	Name     string           `json:"name"`
	Currency string           `json:"currency"`
	Type     book.AccountType `json:"type"`
}

type patchAccountRequest struct {
	Name          *string `json:"name,omitempty"`
	Reference     *string `json:"reference,omitempty"`
	Group         *string `json:"group,omitempty"`
	AccountNumber *string `json:"account_number,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	Inactive      *bool   `json:"inactive,omitempty"`
}

type accountResponse struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Type          book.AccountType  `json:"type"`
	Currency      string            `json:"currency"`
	Reference     string            `json:"reference,omitempty"`
	Group         string            `json:"group,omitempty"`
	AccountNumber string            `json:"account_number,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Inactive      bool              `json:"inactive"`
	Autocreated   bool              `json:"autocreated"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func toAccountResponse(a *book.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		Name:          a.Name,
		Type:          a.Type,
		Currency:      a.Currency.Code(),
		Reference:     a.Reference,
		Group:         a.Group,
		AccountNumber: a.AccountNumber,
		Notes:         a.Notes,
		Inactive:      a.Inactive,
		Autocreated:   a.Autocreated,
		Metadata:      a.Metadata,
	}
}

// Transactions

type postSplitRequest struct {
	AccountID   uuid.UUID        `json:"account_id,omitempty"`
	AccountName string           `json:"account_name,omitempty"`
	AccountType book.AccountType `json:"account_type,omitempty"`
	Currency    string           `json:"currency"`
	Amount      string           `json:"amount"`
}

type postTransactionRequest struct {
	Date        string             `json:"date"`
	Description string             `json:"description"`
	Payee       string             `json:"payee,omitempty"`
	CheckNumber string             `json:"check_number,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	Splits      []postSplitRequest `json:"splits"`
}

type patchDraftRequest struct {
	Date         *string            `json:"date,omitempty"`
	Description  *string            `json:"description,omitempty"`
	Payee        *string            `json:"payee,omitempty"`
	CheckNumber  *string            `json:"check_number,omitempty"`
	Notes        *string            `json:"notes,omitempty"`
	AddSplits    []postSplitRequest `json:"add_splits,omitempty"`
	RemoveSplits []uuid.UUID        `json:"remove_splits,omitempty"`
}

type splitResponse struct {
	ID                 uuid.UUID  `json:"id"`
	AccountID          uuid.UUID  `json:"account_id"`
	AccountName        string     `json:"account_name"`
	Amount             string     `json:"amount"`
	AmountMinor        int64      `json:"amount_minor"`
	Currency           string     `json:"currency"`
	Reconciled         bool       `json:"reconciled"`
	ReconciliationDate *time.Time `json:"reconciliation_date,omitempty"`
}

type transactionResponse struct {
	ID            uuid.UUID         `json:"id"`
	Date          string            `json:"date"`
	Description   string            `json:"description"`
	Payee         string            `json:"payee,omitempty"`
	CheckNumber   string            `json:"check_number,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Position      int               `json:"position"`
	MultiCurrency bool              `json:"multi_currency"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Splits        []splitResponse   `json:"splits"`
}

func toTransactionResponse(t *book.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:            t.ID,
		Date:          t.Date.Format(dateLayout),
		Description:   t.Description,
		Payee:         t.Payee,
		CheckNumber:   t.CheckNumber,
		Notes:         t.Notes,
		Position:      t.Position,
		MultiCurrency: t.IsMultiCurrency(),
		Metadata:      t.Metadata,
		Splits:        make([]splitResponse, 0, len(t.Splits)),
	}
	for _, sp := range t.Splits {
		resp.Splits = append(resp.Splits, splitResponse{
			ID:                 sp.ID,
			AccountID:          sp.Account.ID,
			AccountName:        sp.Account.Name,
			Amount:             sp.Amount.String(),
			AmountMinor:        sp.Amount.MinorUnits(),
			Currency:           sp.Amount.Currency().Code(),
			Reconciled:         sp.Reconciled,
			ReconciliationDate: sp.ReconciliationDate,
		})
	}
	return resp
}

// Row ordering commands

type moveRowsRequest struct {
	TransactionIDs []uuid.UUID `json:"transaction_ids"`
	DestRow        int         `json:"dest_row"`
}

// Reconciliation

type reconcileRef struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	SplitID       uuid.UUID `json:"split_id"`
}

type reconcileRequest struct {
	Refs []reconcileRef `json:"refs"`
	Date string         `json:"date,omitempty"`
}

// Rows and totals

type rowResponse struct {
	Index              int        `json:"index"`
	TransactionID      uuid.UUID  `json:"transaction_id"`
	SplitID            uuid.UUID  `json:"split_id"`
	Date               string     `json:"date"`
	Description        string     `json:"description"`
	Payee              string     `json:"payee,omitempty"`
	CheckNumber        string     `json:"check_number,omitempty"`
	Amount             string     `json:"amount"`
	AmountCurrency     string     `json:"amount_currency"`
	Normalized         string     `json:"normalized"`
	Balance            string     `json:"balance,omitempty"`
	BalanceNegative    bool       `json:"balance_negative"`
	Reconciled         bool       `json:"reconciled"`
	ReconciliationDate *time.Time `json:"reconciliation_date,omitempty"`
	MultiCurrency      bool       `json:"multi_currency"`
	CanReconcile       bool       `json:"can_reconcile"`
}

type rowsResponse struct {
	ShowBalance bool          `json:"show_balance"`
	Rows        []rowResponse `json:"rows"`
}

func toRowResponse(r entry.Row, showBalance bool) rowResponse {
	out := rowResponse{
		Index:              r.Index,
		TransactionID:      r.TransactionID,
		SplitID:            r.SplitID,
		Date:               r.Date.Format(dateLayout),
		Description:        r.Description,
		Payee:              r.Payee,
		CheckNumber:        r.CheckNumber,
		Amount:             r.Amount,
		AmountCurrency:     r.AmountCurrency,
		Normalized:         r.Normalized,
		BalanceNegative:    r.BalanceNegative,
		Reconciled:         r.Reconciled,
		ReconciliationDate: r.ReconciliationDate,
		MultiCurrency:      r.MultiCurrency,
		CanReconcile:       r.CanReconcile,
	}
	if showBalance {
		out.Balance = r.Balance
	}
	return out
}

type totalsResponse struct {
	Text string `json:"text"`
}

type undoResponse struct {
	Applied     bool   `json:"applied"`
	Description string `json:"description,omitempty"`
}
