package httpapi

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/currency"
)

func (s *Server) postCurrency(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	var req postCurrencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		badRequest(w, "code is required")
		return
	}
	var resp currencyResponse
	err := s.store.WithBook(r.Context(), bookID, func(b *book.Book) error {
		var (
			c   *currency.Currency
			err error
		)
		if req.Exponent != nil {
			c, err = b.RegisterCurrency(req.Code, *req.Exponent)
		} else {
			c, err = b.RegisterISOCurrency(req.Code)
		}
		if err != nil {
			return err
		}
		resp = currencyResponse{Code: c.Code(), Exponent: c.Exponent()}
		return nil
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, resp)
}

func (s *Server) listCurrencies(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	var out []currencyResponse
	err := s.store.ViewBook(r.Context(), bookID, func(b *book.Book) error {
		for _, c := range b.Currencies().List() {
			out = append(out, currencyResponse{Code: c.Code(), Exponent: c.Exponent()})
		}
		return nil
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if out == nil {
		out = []currencyResponse{}
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) postRate(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	var req postRateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		badRequest(w, "invalid date, want YYYY-MM-DD")
		return
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		badRequest(w, "invalid rate")
		return
	}
	err = s.store.WithBook(r.Context(), bookID, func(b *book.Book) error {
		return b.SetRate(req.From, req.To, date, rate)
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
