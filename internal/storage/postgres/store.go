// Package postgres persists books through a pgx pool. It is the
// serialization boundary the core assumes exists: documents are loaded
// whole into memory on first access, commands run against the in-memory
// book under its coarse lock, and the full snapshot is written back in one
// transaction when a command succeeds.
//
// The expected schema lives under db/migrations.
package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/davmoss/moneybook/internal/amount"
	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/errs"
	"github.com/davmoss/moneybook/internal/meta"
)

type document struct {
	mu   sync.RWMutex
	name string
	bk   *book.Book
}

// Store holds a pgx pool and the cache of loaded books.
type Store struct {
	pool *pgxpool.Pool

	mu   sync.Mutex
	docs map[uuid.UUID]*document
}

// Open establishes a pgx pool for dsn and verifies connectivity.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, docs: make(map[uuid.UUID]*document)}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// CreateBook inserts an empty book row and caches a fresh book.
func (s *Store) CreateBook(ctx context.Context, name string) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := s.pool.Exec(ctx, `insert into books (id, name, revision) values ($1, $2, 0)`, id, name); err != nil {
		return uuid.Nil, err
	}
	s.mu.Lock()
	s.docs[id] = &document{name: name, bk: book.New()}
	s.mu.Unlock()
	return id, nil
}

// DeleteBook removes the book row (child rows cascade) and evicts the cache.
func (s *Store) DeleteBook(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from books where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
	return nil
}

// ListBooks returns persisted books' names by id.
func (s *Store) ListBooks(ctx context.Context) (map[uuid.UUID]string, error) {
	rows, err := s.pool.Query(ctx, `select id, name from books`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]string)
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

// WithBook runs fn with exclusive access to the book and, when fn
// succeeds, writes the whole snapshot back in one transaction.
func (s *Store) WithBook(ctx context.Context, id uuid.UUID, fn func(*book.Book) error) error {
	d, err := s.doc(ctx, id)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := fn(d.bk); err != nil {
		return err
	}
	return s.save(ctx, id, d)
}

// ViewBook runs fn with shared access to the book.
func (s *Store) ViewBook(ctx context.Context, id uuid.UUID, fn func(*book.Book) error) error {
	d, err := s.doc(ctx, id)
	if err != nil {
		return err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn(d.bk)
}

// doc returns the cached document, loading it from the database on first
// access.
func (s *Store) doc(ctx context.Context, id uuid.UUID) (*document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[id]; ok {
		return d, nil
	}
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.docs[id] = d
	return d, nil
}

func (s *Store) load(ctx context.Context, id uuid.UUID) (*document, error) {
	var name string
	var revision int64
	err := s.pool.QueryRow(ctx, `select name, revision from books where id = $1`, id).Scan(&name, &revision)
	if err == pgx.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	bk := book.New()
	reg := bk.Currencies()

	rows, err := s.pool.Query(ctx, `select code, exponent from currencies where book_id = $1`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var code string
		var exponent int
		if err := rows.Scan(&code, &exponent); err != nil {
			rows.Close()
			return nil, err
		}
		if _, err := reg.Register(code, exponent); err != nil {
			rows.Close()
			return nil, err
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `select from_code, to_code, effective, rate from rates where book_id = $1`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var fromCode, toCode string
		var effective time.Time
		var rate decimal.Decimal
		if err := rows.Scan(&fromCode, &toCode, &effective, &rate); err != nil {
			rows.Close()
			return nil, err
		}
		from, ok1 := reg.Get(fromCode)
		to, ok2 := reg.Get(toCode)
		if !ok1 || !ok2 {
			rows.Close()
			return nil, errs.ErrInvalid
		}
		if err := reg.SetRate(from, to, effective, rate); err != nil {
			rows.Close()
			return nil, err
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `
		select id, name, type, currency, reference, group_name, account_number, notes, inactive, autocreated, metadata
		from accounts where book_id = $1`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		a := &book.Account{}
		var currencyCode string
		var md []byte
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &currencyCode, &a.Reference, &a.Group, &a.AccountNumber, &a.Notes, &a.Inactive, &a.Autocreated, &md); err != nil {
			rows.Close()
			return nil, err
		}
		cur, ok := reg.Get(currencyCode)
		if !ok {
			rows.Close()
			return nil, errs.ErrInvalid
		}
		a.Currency = cur
		a.Metadata = meta.Metadata{}
		if len(md) > 0 {
			if err := a.Metadata.UnmarshalJSON(md); err != nil {
				rows.Close()
				return nil, err
			}
		}
		if err := bk.RestoreAccount(a); err != nil {
			rows.Close()
			return nil, err
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	txns, err := s.loadTransactions(ctx, id, bk)
	if err != nil {
		return nil, err
	}
	for _, t := range txns {
		if err := bk.RestoreTransaction(t); err != nil {
			return nil, err
		}
	}
	bk.ClearHistory()
	bk.SetRevision(uint64(revision))
	return &document{name: name, bk: bk}, nil
}

func (s *Store) loadTransactions(ctx context.Context, id uuid.UUID, bk *book.Book) ([]*book.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		select id, date, description, payee, check_number, notes, position, metadata
		from transactions where book_id = $1 order by date, position`, id)
	if err != nil {
		return nil, err
	}
	var txns []*book.Transaction
	byID := make(map[uuid.UUID]*book.Transaction)
	for rows.Next() {
		t := &book.Transaction{}
		var md []byte
		if err := rows.Scan(&t.ID, &t.Date, &t.Description, &t.Payee, &t.CheckNumber, &t.Notes, &t.Position, &md); err != nil {
			rows.Close()
			return nil, err
		}
		t.Metadata = meta.Metadata{}
		if len(md) > 0 {
			if err := t.Metadata.UnmarshalJSON(md); err != nil {
				rows.Close()
				return nil, err
			}
		}
		txns = append(txns, t)
		byID[t.ID] = t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srows, err := s.pool.Query(ctx, `
		select id, transaction_id, account_id, amount_minor, currency, reconciled, reconciliation_date
		from splits where book_id = $1 order by transaction_id, position`, id)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var sid, tid, aid uuid.UUID
		var minor int64
		var code string
		var reconciled bool
		var recDate *time.Time
		if err := srows.Scan(&sid, &tid, &aid, &minor, &code, &reconciled, &recDate); err != nil {
			return nil, err
		}
		t, ok := byID[tid]
		if !ok {
			return nil, errs.ErrInvalid
		}
		acc, ok := bk.Accounts().ByID(aid)
		if !ok {
			return nil, errs.ErrInvalid
		}
		cur, ok := bk.Currencies().Get(code)
		if !ok {
			return nil, errs.ErrInvalid
		}
		sp := &book.Split{ID: sid, Account: acc, Amount: amount.New(cur, minor), Reconciled: reconciled}
		if recDate != nil {
			d := *recDate
			sp.ReconciliationDate = &d
		}
		t.Splits = append(t.Splits, sp)
	}
	return txns, srows.Err()
}

// save rewrites the whole book snapshot in one transaction.
func (s *Store) save(ctx context.Context, id uuid.UUID, d *document) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	bk := d.bk
	if _, err := tx.Exec(ctx, `update books set name = $2, revision = $3 where id = $1`, id, d.name, int64(bk.Revision())); err != nil {
		return err
	}
	for _, table := range []string{"splits", "transactions", "accounts", "rates", "currencies"} {
		if _, err := tx.Exec(ctx, `delete from `+table+` where book_id = $1`, id); err != nil {
			return err
		}
	}

	for _, c := range bk.Currencies().List() {
		if _, err := tx.Exec(ctx, `insert into currencies (book_id, code, exponent) values ($1, $2, $3)`, id, c.Code(), c.Exponent()); err != nil {
			return err
		}
	}
	for _, r := range bk.Currencies().Rates() {
		if _, err := tx.Exec(ctx, `
			insert into rates (book_id, from_code, to_code, effective, rate)
			values ($1, $2, $3, $4, $5)`, id, r.From, r.To, r.Date, r.Value); err != nil {
			return err
		}
	}
	for _, a := range bk.Accounts().List() {
		md, _ := a.Metadata.MarshalJSON()
		if _, err := tx.Exec(ctx, `
			insert into accounts (book_id, id, name, type, currency, reference, group_name, account_number, notes, inactive, autocreated, metadata)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			id, a.ID, a.Name, a.Type, a.Currency.Code(), a.Reference, a.Group, a.AccountNumber, a.Notes, a.Inactive, a.Autocreated, md); err != nil {
			return err
		}
	}
	// CommittedTransactions keeps rows checked out as drafts in the durable
	// set under their last committed values.
	for _, t := range bk.CommittedTransactions() {
		md, _ := t.Metadata.MarshalJSON()
		if _, err := tx.Exec(ctx, `
			insert into transactions (book_id, id, date, description, payee, check_number, notes, position, metadata)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			id, t.ID, t.Date, t.Description, t.Payee, t.CheckNumber, t.Notes, t.Position, md); err != nil {
			return err
		}
		for i, sp := range t.Splits {
			if _, err := tx.Exec(ctx, `
				insert into splits (book_id, id, transaction_id, position, account_id, amount_minor, currency, reconciled, reconciliation_date)
				values ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
				id, sp.ID, t.ID, i, sp.Account.ID, sp.Amount.MinorUnits(), sp.Amount.Currency().Code(), sp.Reconciled, sp.ReconciliationDate); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}
