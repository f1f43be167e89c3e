package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davmoss/moneybook/internal/amount"
	"github.com/davmoss/moneybook/internal/book"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func applyInitSQL(t *testing.T, dsn string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s := mustOpen(t, dsn)
	defer s.Close()
	// Resolve init SQL path relative to this test file so CWD doesn't matter
	_, thisFile, _, _ := runtime.Caller(0)
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../"))
	path := filepath.Join(repoRoot, "db", "migrations", "0001_init.sql")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, string(b)); err != nil {
		t.Fatalf("apply init sql: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := mustOpen(t, dsn)
	defer s.Close()

	id, err := s.CreateBook(ctx, "roundtrip")
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	defer func() { _ = s.DeleteBook(ctx, id) }()

	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	err = s.WithBook(ctx, id, func(b *book.Book) error {
		if _, err := b.RegisterCurrency("USD", 2); err != nil {
			return err
		}
		if _, err := b.RegisterCurrency("EUR", 2); err != nil {
			return err
		}
		if err := b.SetRate("EUR", "USD", date, decimal.RequireFromString("1.25")); err != nil {
			return err
		}
		checking, err := b.CreateAccount("Checking", "USD", book.AccountTypeAsset)
		if err != nil {
			return err
		}
		salary, err := b.CreateAccount("Salary", "USD", book.AccountTypeIncome)
		if err != nil {
			return err
		}
		txn := book.NewTransaction(date, "pay")
		txn.AddSplit(checking, amount.New(checking.Currency, 10000))
		txn.AddSplit(salary, amount.New(salary.Currency, -10000))
		return b.AddTransaction(txn)
	})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}

	// Drop the cache so the next access loads from the database.
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()

	err = s.ViewBook(ctx, id, func(b *book.Book) error {
		if got := len(b.Currencies().List()); got != 2 {
			t.Fatalf("currencies: got %d, want 2", got)
		}
		if got := len(b.Currencies().Rates()); got != 1 {
			t.Fatalf("rates: got %d, want 1", got)
		}
		checking, ok := b.Accounts().FindByName("Checking")
		if !ok {
			t.Fatalf("checking account missing after reload")
		}
		rows := b.EntriesFor(checking.ID)
		if len(rows) != 1 {
			t.Fatalf("entries: got %d, want 1", len(rows))
		}
		if rows[0].Balance().MinorUnits() != 10000 {
			t.Fatalf("balance: got %d, want 10000", rows[0].Balance().MinorUnits())
		}
		if b.CanUndo() {
			t.Fatalf("history should be cleared after load")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestFailedCommandPersistsNothing(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := mustOpen(t, dsn)
	defer s.Close()

	id, err := s.CreateBook(ctx, "reject")
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	defer func() { _ = s.DeleteBook(ctx, id) }()

	err = s.WithBook(ctx, id, func(b *book.Book) error {
		_, err := b.RegisterCurrency("USD", 2)
		return err
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// an unbalanced transaction is rejected before the save runs
	err = s.WithBook(ctx, id, func(b *book.Book) error {
		checking, err := b.CreateAccount("Checking", "USD", book.AccountTypeAsset)
		if err != nil {
			return err
		}
		txn := book.NewTransaction(time.Now(), "skewed")
		txn.AddSplit(checking, amount.New(checking.Currency, 100))
		return b.AddTransaction(txn)
	})
	if err == nil {
		t.Fatalf("expected rejection")
	}

	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()

	err = s.ViewBook(ctx, id, func(b *book.Book) error {
		if b.Accounts().Len() != 0 {
			t.Fatalf("rejected command must not persist the account")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestBeginEditKeepsCommittedRow(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := mustOpen(t, dsn)
	defer s.Close()

	id, err := s.CreateBook(ctx, "drafted")
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	defer func() { _ = s.DeleteBook(ctx, id) }()

	date := time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)
	var txnID uuid.UUID
	err = s.WithBook(ctx, id, func(b *book.Book) error {
		if _, err := b.RegisterCurrency("USD", 2); err != nil {
			return err
		}
		checking, err := b.CreateAccount("Checking", "USD", book.AccountTypeAsset)
		if err != nil {
			return err
		}
		salary, err := b.CreateAccount("Salary", "USD", book.AccountTypeIncome)
		if err != nil {
			return err
		}
		txn := book.NewTransaction(date, "pay")
		txn.AddSplit(checking, amount.New(checking.Currency, 5000))
		txn.AddSplit(salary, amount.New(salary.Currency, -5000))
		txnID = txn.ID
		return b.AddTransaction(txn)
	})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}

	// Opening an edit rewrites the book; the checked-out transaction must
	// stay in durable storage under its committed values.
	err = s.WithBook(ctx, id, func(b *book.Book) error {
		work, err := b.BeginEdit(txnID)
		if err != nil {
			return err
		}
		work.Description = "unsaved edit"
		return nil
	})
	if err != nil {
		t.Fatalf("begin edit: %v", err)
	}

	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()

	err = s.ViewBook(ctx, id, func(b *book.Book) error {
		txn, ok := b.TransactionByID(txnID)
		if !ok {
			t.Fatalf("committed transaction missing after reload")
		}
		if txn.Description != "pay" {
			t.Fatalf("description: got %q, want %q", txn.Description, "pay")
		}
		if len(txn.Splits) != 2 {
			t.Fatalf("splits: got %d, want 2", len(txn.Splits))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := mustOpen(t, dsn)
	defer s.Close()

	id, err := s.CreateBook(ctx, "listed")
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	names, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if names[id] != "listed" {
		t.Fatalf("book missing from listing: %+v", names)
	}
	if err := s.DeleteBook(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	names, err = s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, ok := names[id]; ok {
		t.Fatalf("book still listed after delete")
	}
}
