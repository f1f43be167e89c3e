package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/errs"
	"github.com/davmoss/moneybook/internal/storage/memory"
)

func setup(t *testing.T) (Service, uuid.UUID) {
	t.Helper()
	store := memory.New()
	bk := book.New()
	_, err := bk.RegisterCurrency("USD", 2)
	require.NoError(t, err)
	bk.ClearHistory()
	return New(store), store.SeedBook("test", bk)
}

func TestCreateGetList(t *testing.T) {
	svc, bookID := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, bookID, CreateParams{Name: "Checking", Currency: "USD", Type: book.AccountTypeAsset})
	require.NoError(t, err)
	require.Equal(t, "Checking", a.Name)
	require.Equal(t, "USD", a.Currency.Code())

	got, err := svc.Get(ctx, bookID, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	_, err = svc.Create(ctx, bookID, CreateParams{Name: "Savings", Currency: "USD", Type: book.AccountTypeAsset})
	require.NoError(t, err)

	list, err := svc.List(ctx, bookID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Checking", list[0].Name)
	require.Equal(t, "Savings", list[1].Name)
}

func TestCreateDuplicateName(t *testing.T) {
	svc, bookID := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookID, CreateParams{Name: "Checking", Currency: "USD", Type: book.AccountTypeAsset})
	require.NoError(t, err)
	_, err = svc.Create(ctx, bookID, CreateParams{Name: " checking ", Currency: "USD", Type: book.AccountTypeAsset})
	require.ErrorIs(t, err, errs.ErrDuplicateAccountName)
}

func TestCreateRejectsUnknownCurrencyAndType(t *testing.T) {
	svc, bookID := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookID, CreateParams{Name: "Checking", Currency: "GBP", Type: book.AccountTypeAsset})
	require.ErrorIs(t, err, errs.ErrInvalid)
	_, err = svc.Create(ctx, bookID, CreateParams{Name: "Checking", Currency: "USD", Type: book.AccountType("equity")})
	require.ErrorIs(t, err, errs.ErrInvalid)
}

func TestRenameAndEdit(t *testing.T) {
	svc, bookID := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, bookID, CreateParams{Name: "Checking", Currency: "USD", Type: book.AccountTypeAsset})
	require.NoError(t, err)

	renamed, err := svc.Rename(ctx, bookID, a.ID, "Main Checking")
	require.NoError(t, err)
	require.Equal(t, "Main Checking", renamed.Name)

	group := "Bank"
	notes := "joint account"
	inactive := true
	edited, err := svc.Edit(ctx, bookID, a.ID, book.AccountDetails{Group: &group, Notes: &notes, Inactive: &inactive})
	require.NoError(t, err)
	require.Equal(t, "Bank", edited.Group)
	require.Equal(t, "joint account", edited.Notes)
	require.True(t, edited.Inactive)
	// untouched fields stay put
	require.Equal(t, "Main Checking", edited.Name)
}

func TestReturnedAccountsAreCopies(t *testing.T) {
	svc, bookID := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, bookID, CreateParams{Name: "Checking", Currency: "USD", Type: book.AccountTypeAsset})
	require.NoError(t, err)
	a.Name = "scribbled"

	got, err := svc.Get(ctx, bookID, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Checking", got.Name)
}

func TestDelete(t *testing.T) {
	svc, bookID := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, bookID, CreateParams{Name: "Checking", Currency: "USD", Type: book.AccountTypeAsset})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, bookID, a.ID, uuid.Nil))

	_, err = svc.Get(ctx, bookID, a.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
