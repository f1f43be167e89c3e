package httpapi

import (
	"net/http"
	"time"

	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/service/entry"
)

func toSplitParams(reqs []postSplitRequest) []entry.SplitParams {
	out := make([]entry.SplitParams, 0, len(reqs))
	for _, sp := range reqs {
		out = append(out, entry.SplitParams{
			AccountID:   sp.AccountID,
			AccountName: sp.AccountName,
			AccountType: sp.AccountType,
			Currency:    sp.Currency,
			Amount:      sp.Amount,
		})
	}
	return out
}

func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	var req postTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		badRequest(w, "invalid date, want YYYY-MM-DD")
		return
	}
	t, err := s.entrySvc.Create(r.Context(), bookID, entry.CreateParams{
		Date:        date,
		Description: req.Description,
		Payee:       req.Payee,
		CheckNumber: req.CheckNumber,
		Notes:       req.Notes,
		Splits:      toSplitParams(req.Splits),
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	txns, err := s.entrySvc.List(r.Context(), bookID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	txnID, ok := pathUUID(w, r, "txnID")
	if !ok {
		return
	}
	t, err := s.entrySvc.Get(r.Context(), bookID, txnID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	txnID, ok := pathUUID(w, r, "txnID")
	if !ok {
		return
	}
	if err := s.entrySvc.Delete(r.Context(), bookID, txnID); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// beginEdit opens a draft for an existing transaction. While the draft is
// open the transaction is excluded from balances until commit or cancel.
func (s *Server) beginEdit(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	txnID, ok := pathUUID(w, r, "txnID")
	if !ok {
		return
	}
	t, err := s.entrySvc.BeginEdit(r.Context(), bookID, txnID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) patchDraft(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	txnID, ok := pathUUID(w, r, "txnID")
	if !ok {
		return
	}
	var req patchDraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p := entry.DraftPatch{
		Description:  req.Description,
		Payee:        req.Payee,
		CheckNumber:  req.CheckNumber,
		Notes:        req.Notes,
		AddSplits:    toSplitParams(req.AddSplits),
		RemoveSplits: req.RemoveSplits,
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			badRequest(w, "invalid date, want YYYY-MM-DD")
			return
		}
		p.Date = &date
	}
	t, err := s.entrySvc.PatchDraft(r.Context(), bookID, txnID, p)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) commitEdit(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	txnID, ok := pathUUID(w, r, "txnID")
	if !ok {
		return
	}
	t, err := s.entrySvc.CommitEdit(r.Context(), bookID, txnID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) cancelEdit(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	txnID, ok := pathUUID(w, r, "txnID")
	if !ok {
		return
	}
	if err := s.entrySvc.CancelEdit(r.Context(), bookID, txnID); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) moveRows(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	var req moveRowsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.TransactionIDs) == 0 {
		badRequest(w, "transaction_ids is required")
		return
	}
	if err := s.entrySvc.Move(r.Context(), bookID, req.TransactionIDs, req.DestRow); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reconcile toggles the reconciled flag on the referenced splits. The whole
// batch is validated first; one bad reference rejects all of them.
func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	var req reconcileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Refs) == 0 {
		badRequest(w, "refs is required")
		return
	}
	date := time.Now().UTC()
	if req.Date != "" {
		t, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			badRequest(w, "invalid date, want YYYY-MM-DD")
			return
		}
		date = t
	}
	refs := make([]book.SplitRef, 0, len(req.Refs))
	for _, ref := range req.Refs {
		refs = append(refs, book.SplitRef{TransactionID: ref.TransactionID, SplitID: ref.SplitID})
	}
	if err := s.entrySvc.Reconcile(r.Context(), bookID, refs, date); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	desc, applied, err := s.entrySvc.Undo(r.Context(), bookID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, undoResponse{Applied: applied, Description: desc})
}

func (s *Server) redo(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	desc, applied, err := s.entrySvc.Redo(r.Context(), bookID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, undoResponse{Applied: applied, Description: desc})
}
