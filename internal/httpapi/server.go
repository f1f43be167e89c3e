// Package httpapi wires the HTTP surface of the book service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"log/slog"

	"github.com/davmoss/moneybook/internal/service/account"
	"github.com/davmoss/moneybook/internal/service/entry"
)

// Server wires handlers and middleware using Chi.
// All book mutations go through the services, which take the document
// lock via the store and apply each command all-or-nothing.
type Server struct {
	store      Store
	accountSvc account.Service
	entrySvc   entry.Service
	log        *slog.Logger
	rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by basic request/response logging and panic recovery.
func New(store Store, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		store:      store,
		accountSvc: account.New(store),
		entrySvc:   entry.New(store),
		log:        logger,
		rt:         r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	// Books (v1)
	s.rt.Post("/v1/books", s.postBook)
	s.rt.Get("/v1/books", s.listBooks)
	s.rt.Get("/v1/books/{bookID}", s.getBook)
	s.rt.Delete("/v1/books/{bookID}", s.deleteBook)
	// Currencies and rates (v1)
	s.rt.Post("/v1/books/{bookID}/currencies", s.postCurrency)
	s.rt.Get("/v1/books/{bookID}/currencies", s.listCurrencies)
	s.rt.Post("/v1/books/{bookID}/rates", s.postRate)
	// Accounts (v1)
	s.rt.Post("/v1/books/{bookID}/accounts", s.postAccount)
	s.rt.Get("/v1/books/{bookID}/accounts", s.listAccounts)
	s.rt.Get("/v1/books/{bookID}/accounts/{accountID}", s.getAccount)
	s.rt.Patch("/v1/books/{bookID}/accounts/{accountID}", s.patchAccount)
	s.rt.Delete("/v1/books/{bookID}/accounts/{accountID}", s.deleteAccount)
	s.rt.Get("/v1/books/{bookID}/accounts/{accountID}/rows", s.getRows)
	s.rt.Get("/v1/books/{bookID}/accounts/{accountID}/totals", s.getTotals)
	// Transactions (v1)
	s.rt.Post("/v1/books/{bookID}/transactions", s.postTransaction)
	s.rt.Get("/v1/books/{bookID}/transactions", s.listTransactions)
	s.rt.Get("/v1/books/{bookID}/transactions/{txnID}", s.getTransaction)
	s.rt.Delete("/v1/books/{bookID}/transactions/{txnID}", s.deleteTransaction)
	s.rt.Post("/v1/books/{bookID}/transactions/move", s.moveRows)
	// Draft editing lifecycle (v1)
	s.rt.Post("/v1/books/{bookID}/transactions/{txnID}/edit", s.beginEdit)
	s.rt.Patch("/v1/books/{bookID}/transactions/{txnID}/draft", s.patchDraft)
	s.rt.Post("/v1/books/{bookID}/transactions/{txnID}/commit", s.commitEdit)
	s.rt.Post("/v1/books/{bookID}/transactions/{txnID}/cancel", s.cancelEdit)
	// Reconciliation, undo (v1)
	s.rt.Post("/v1/books/{bookID}/reconcile", s.reconcile)
	s.rt.Post("/v1/books/{bookID}/undo", s.undo)
	s.rt.Post("/v1/books/{bookID}/redo", s.redo)
	// Dictionary (v1)
	s.rt.Get("/v1/dictionary/account-types", s.accountTypes)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())
}
