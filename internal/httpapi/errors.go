package httpapi

import (
	"errors"
	"net/http"

	"github.com/davmoss/moneybook/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func notFound(w http.ResponseWriter)               { writeErr(w, http.StatusNotFound, "not_found", "not_found") }

// writeDomainErr maps domain sentinel errors onto HTTP statuses. Rejected
// commands leave the book untouched, so everything below 500 is safe to
// retry after correcting the request.
func writeDomainErr(w http.ResponseWriter, err error) {
	code := err.Error()
	switch {
	case errors.Is(err, errs.ErrNotFound):
		writeErr(w, http.StatusNotFound, code, "not_found")
	case errors.Is(err, errs.ErrInvalid):
		writeErr(w, http.StatusBadRequest, code, "invalid")
	case errors.Is(err, errs.ErrConflict),
		errors.Is(err, errs.ErrDuplicateCurrency),
		errors.Is(err, errs.ErrDuplicateAccountName):
		writeErr(w, http.StatusConflict, code, code)
	case errors.Is(err, errs.ErrCurrencyMismatch),
		errors.Is(err, errs.ErrNoRateAvailable),
		errors.Is(err, errs.ErrNotReconcilable),
		errors.Is(err, errs.ErrInvalidMove),
		errors.Is(err, errs.ErrUnbalancedTransaction):
		writeErr(w, http.StatusUnprocessableEntity, code, code)
	default:
		writeErr(w, http.StatusInternalServerError, "internal error", "internal")
	}
}
