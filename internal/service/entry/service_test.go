package entry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/errs"
	"github.com/davmoss/moneybook/internal/storage/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func setup(t *testing.T) (Service, uuid.UUID, *book.Account, *book.Account) {
	t.Helper()
	store := memory.New()
	bk := book.New()
	_, err := bk.RegisterCurrency("USD", 2)
	require.NoError(t, err)
	checking, err := bk.CreateAccount("Checking", "USD", book.AccountTypeAsset)
	require.NoError(t, err)
	salary, err := bk.CreateAccount("Salary", "USD", book.AccountTypeIncome)
	require.NoError(t, err)
	bk.ClearHistory()
	bookID := store.SeedBook("test", bk)
	return New(store), bookID, checking, salary
}

func TestCreateAndRows(t *testing.T) {
	svc, bookID, checking, salary := setup(t)
	ctx := context.Background()

	txn, err := svc.Create(ctx, bookID, CreateParams{
		Date:        day(2026, 3, 5),
		Description: "pay",
		Payee:       "Acme",
		Splits: []SplitParams{
			{AccountID: checking.ID, Currency: "USD", Amount: "100.00"},
			{AccountID: salary.ID, Currency: "USD", Amount: "-100.00"},
		},
	})
	require.NoError(t, err)
	require.Len(t, txn.Splits, 2)
	require.Equal(t, int64(10000), txn.Splits[0].Amount.MinorUnits())

	rows, showBalance, err := svc.Rows(ctx, bookID, checking.ID, nil, nil)
	require.NoError(t, err)
	require.True(t, showBalance)
	require.Len(t, rows, 1)
	require.Equal(t, "pay", rows[0].Description)
	require.Equal(t, "Acme", rows[0].Payee)
	require.Equal(t, "100.00", rows[0].Amount)
	require.Equal(t, "100.00", rows[0].Balance)
	require.False(t, rows[0].BalanceNegative)
	require.True(t, rows[0].CanReconcile)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, bookID, checking, salary := setup(t)
	ctx := context.Background()

	// fewer than two legs
	_, err := svc.Create(ctx, bookID, CreateParams{
		Date:   day(2026, 3, 5),
		Splits: []SplitParams{{AccountID: checking.ID, Currency: "USD", Amount: "5.00"}},
	})
	require.ErrorIs(t, err, errs.ErrInvalid)

	// unknown currency
	_, err = svc.Create(ctx, bookID, CreateParams{
		Date: day(2026, 3, 5),
		Splits: []SplitParams{
			{AccountID: checking.ID, Currency: "GBP", Amount: "5.00"},
			{AccountID: salary.ID, Currency: "GBP", Amount: "-5.00"},
		},
	})
	require.ErrorIs(t, err, errs.ErrInvalid)

	// excess precision
	_, err = svc.Create(ctx, bookID, CreateParams{
		Date: day(2026, 3, 5),
		Splits: []SplitParams{
			{AccountID: checking.ID, Currency: "USD", Amount: "5.005"},
			{AccountID: salary.ID, Currency: "USD", Amount: "-5.005"},
		},
	})
	require.ErrorIs(t, err, errs.ErrInvalid)

	// unbalanced
	_, err = svc.Create(ctx, bookID, CreateParams{
		Date: day(2026, 3, 5),
		Splits: []SplitParams{
			{AccountID: checking.ID, Currency: "USD", Amount: "5.00"},
			{AccountID: salary.ID, Currency: "USD", Amount: "-4.00"},
		},
	})
	require.ErrorIs(t, err, errs.ErrUnbalancedTransaction)

	// nothing leaked into the book
	txns, err := svc.List(ctx, bookID)
	require.NoError(t, err)
	require.Empty(t, txns)
}

func TestAutocreateByName(t *testing.T) {
	svc, bookID, checking, _ := setup(t)
	ctx := context.Background()

	txn, err := svc.Create(ctx, bookID, CreateParams{
		Date:        day(2026, 3, 5),
		Description: "lunch",
		Splits: []SplitParams{
			{AccountName: "Eating Out", Currency: "USD", Amount: "15.00"},
			{AccountID: checking.ID, Currency: "USD", Amount: "-15.00"},
		},
	})
	require.NoError(t, err)

	// a positive amount on an unknown name guesses an expense account
	acc := txn.Splits[0].Account
	require.Equal(t, "Eating Out", acc.Name)
	require.Equal(t, book.AccountTypeExpense, acc.Type)
	require.True(t, acc.Autocreated)

	// a negative amount guesses income
	txn2, err := svc.Create(ctx, bookID, CreateParams{
		Date: day(2026, 3, 6),
		Splits: []SplitParams{
			{AccountID: checking.ID, Currency: "USD", Amount: "20.00"},
			{AccountName: "Side Gig", Currency: "USD", Amount: "-20.00"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, book.AccountTypeIncome, txn2.Splits[1].Account.Type)
}

func TestDraftLifecycle(t *testing.T) {
	svc, bookID, checking, salary := setup(t)
	ctx := context.Background()

	txn, err := svc.Create(ctx, bookID, CreateParams{
		Date:        day(2026, 3, 5),
		Description: "pay",
		Splits: []SplitParams{
			{AccountID: checking.ID, Currency: "USD", Amount: "100.00"},
			{AccountID: salary.ID, Currency: "USD", Amount: "-100.00"},
		},
	})
	require.NoError(t, err)

	_, err = svc.BeginEdit(ctx, bookID, txn.ID)
	require.NoError(t, err)

	// the transaction is out of the ledger while the draft is open
	rows, _, err := svc.Rows(ctx, bookID, checking.ID, nil, nil)
	require.NoError(t, err)
	require.Empty(t, rows)

	desc := "bonus"
	draft, err := svc.PatchDraft(ctx, bookID, txn.ID, DraftPatch{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "bonus", draft.Description)

	committed, err := svc.CommitEdit(ctx, bookID, txn.ID)
	require.NoError(t, err)
	require.Equal(t, "bonus", committed.Description)

	rows, _, err = svc.Rows(ctx, bookID, checking.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "bonus", rows[0].Description)
}

func TestDraftSplitPatch(t *testing.T) {
	svc, bookID, checking, salary := setup(t)
	ctx := context.Background()

	txn, err := svc.Create(ctx, bookID, CreateParams{
		Date:        day(2026, 3, 5),
		Description: "pay",
		Splits: []SplitParams{
			{AccountID: checking.ID, Currency: "USD", Amount: "100.00"},
			{AccountID: salary.ID, Currency: "USD", Amount: "-100.00"},
		},
	})
	require.NoError(t, err)

	draft, err := svc.BeginEdit(ctx, bookID, txn.ID)
	require.NoError(t, err)

	// swap the checking leg for a bigger one
	draft, err = svc.PatchDraft(ctx, bookID, txn.ID, DraftPatch{
		RemoveSplits: []uuid.UUID{draft.Splits[0].ID},
		AddSplits: []SplitParams{
			{AccountID: checking.ID, Currency: "USD", Amount: "120.00"},
		},
	})
	require.NoError(t, err)
	require.Len(t, draft.Splits, 2)

	// now unbalanced: commit refused, draft stays open
	_, err = svc.CommitEdit(ctx, bookID, txn.ID)
	require.ErrorIs(t, err, errs.ErrUnbalancedTransaction)

	_, err = svc.PatchDraft(ctx, bookID, txn.ID, DraftPatch{
		RemoveSplits: []uuid.UUID{draft.Splits[0].ID},
		AddSplits: []SplitParams{
			{AccountID: salary.ID, Currency: "USD", Amount: "-120.00"},
		},
	})
	require.NoError(t, err)
	_, err = svc.CommitEdit(ctx, bookID, txn.ID)
	require.NoError(t, err)

	rows, _, err := svc.Rows(ctx, bookID, checking.ID, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "120.00", rows[0].Balance)
}

func TestCancelEditRestores(t *testing.T) {
	svc, bookID, checking, salary := setup(t)
	ctx := context.Background()

	txn, err := svc.Create(ctx, bookID, CreateParams{
		Date:        day(2026, 3, 5),
		Description: "pay",
		Splits: []SplitParams{
			{AccountID: checking.ID, Currency: "USD", Amount: "100.00"},
			{AccountID: salary.ID, Currency: "USD", Amount: "-100.00"},
		},
	})
	require.NoError(t, err)

	_, err = svc.BeginEdit(ctx, bookID, txn.ID)
	require.NoError(t, err)
	desc := "changed"
	_, err = svc.PatchDraft(ctx, bookID, txn.ID, DraftPatch{Description: &desc})
	require.NoError(t, err)

	require.NoError(t, svc.CancelEdit(ctx, bookID, txn.ID))
	got, err := svc.Get(ctx, bookID, txn.ID)
	require.NoError(t, err)
	require.Equal(t, "pay", got.Description)
}

func TestUndoRedoThroughService(t *testing.T) {
	svc, bookID, checking, salary := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookID, CreateParams{
		Date: day(2026, 3, 5),
		Splits: []SplitParams{
			{AccountID: checking.ID, Currency: "USD", Amount: "100.00"},
			{AccountID: salary.ID, Currency: "USD", Amount: "-100.00"},
		},
	})
	require.NoError(t, err)

	desc, applied, err := svc.Undo(ctx, bookID)
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, "add transaction", desc)

	txns, err := svc.List(ctx, bookID)
	require.NoError(t, err)
	require.Empty(t, txns)

	_, applied, err = svc.Redo(ctx, bookID)
	require.NoError(t, err)
	require.True(t, applied)
	txns, err = svc.List(ctx, bookID)
	require.NoError(t, err)
	require.Len(t, txns, 1)

	// nothing left to redo
	_, applied, err = svc.Redo(ctx, bookID)
	require.NoError(t, err)
	require.False(t, applied)
}

func TestTotalsText(t *testing.T) {
	svc, bookID, checking, salary := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookID, CreateParams{
		Date: day(2026, 3, 5),
		Splits: []SplitParams{
			{AccountID: checking.ID, Currency: "USD", Amount: "100.00"},
			{AccountID: salary.ID, Currency: "USD", Amount: "-100.00"},
		},
	})
	require.NoError(t, err)

	text, err := svc.TotalsText(ctx, bookID, checking.ID, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "showing 1 of 1 entries\ndebits: 100.00 USD\ncredits: 0.00 USD\nnet: 100.00 USD", text)
}

func TestUnknownBook(t *testing.T) {
	svc, _, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.List(ctx, uuid.New())
	require.ErrorIs(t, err, errs.ErrNotFound)
}
