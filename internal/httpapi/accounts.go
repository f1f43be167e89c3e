package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/service/account"
)

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	var req postAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := s.accountSvc.Create(r.Context(), bookID, account.CreateParams{
		Name:     req.Name,
		Currency: req.Currency,
		Type:     req.Type,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(a))
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	accounts, err := s.accountSvc.List(r.Context(), bookID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, r, "accountID")
	if !ok {
		return
	}
	a, err := s.accountSvc.Get(r.Context(), bookID, accountID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(a))
}

// patchAccount applies a rename and/or descriptive field edits. The rename
// runs first; a name collision rejects the whole request before any detail
// change is applied.
func (s *Server) patchAccount(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, r, "accountID")
	if !ok {
		return
	}
	var req patchAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		a   *book.Account
		err error
	)
	if req.Name != nil {
		a, err = s.accountSvc.Rename(r.Context(), bookID, accountID, *req.Name)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
	}
	d := book.AccountDetails{
		Reference:     req.Reference,
		Group:         req.Group,
		AccountNumber: req.AccountNumber,
		Notes:         req.Notes,
		Inactive:      req.Inactive,
	}
	if d != (book.AccountDetails{}) || a == nil {
		a, err = s.accountSvc.Edit(r.Context(), bookID, accountID, d)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
	}
	toJSON(w, http.StatusOK, toAccountResponse(a))
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, r, "accountID")
	if !ok {
		return
	}
	transferTo := uuid.Nil
	if raw := r.URL.Query().Get("transfer_to"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "invalid transfer_to")
			return
		}
		transferTo = id
	}
	if err := s.accountSvc.Delete(r.Context(), bookID, accountID, transferTo); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseDateRange reads optional from/to query params as YYYY-MM-DD dates.
func parseDateRange(w http.ResponseWriter, r *http.Request) (from, to *time.Time, ok bool) {
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			badRequest(w, "invalid from, want YYYY-MM-DD")
			return nil, nil, false
		}
		from = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			badRequest(w, "invalid to, want YYYY-MM-DD")
			return nil, nil, false
		}
		to = &t
	}
	return from, to, true
}

func (s *Server) getRows(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, r, "accountID")
	if !ok {
		return
	}
	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}
	rows, showBalance, err := s.entrySvc.Rows(r.Context(), bookID, accountID, from, to)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	resp := rowsResponse{ShowBalance: showBalance, Rows: make([]rowResponse, 0, len(rows))}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, toRowResponse(row, showBalance))
	}
	toJSON(w, http.StatusOK, resp)
}

func (s *Server) getTotals(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	accountID, ok := pathUUID(w, r, "accountID")
	if !ok {
		return
	}
	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}
	text, err := s.entrySvc.TotalsText(r.Context(), bookID, accountID, from, to)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, totalsResponse{Text: text})
}
