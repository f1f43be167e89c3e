package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/davmoss/moneybook/internal/book"
	"github.com/davmoss/moneybook/internal/dictionary"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// If the store implements ReadyChecker, call it with a short timeout.
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	if rc, ok := s.store.(ReadyChecker); ok {
		if err := rc.Ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

type accountTypeResponse struct {
	Code         string   `json:"code"`
	Label        string   `json:"label"`
	BalanceSheet bool     `json:"balance_sheet"`
	NaturalSide  string   `json:"natural_side"`
	Groups       []string `json:"groups,omitempty"`
}

// accountTypes serves the static account type dictionary the UI builds its
// pickers from.
func (s *Server) accountTypes(w http.ResponseWriter, r *http.Request) {
	defs := dictionary.Types()
	out := make([]accountTypeResponse, 0, len(defs))
	for _, d := range defs {
		t := book.AccountType(d.Code)
		out = append(out, accountTypeResponse{
			Code:         d.Code,
			Label:        d.Label,
			BalanceSheet: d.BalanceSheet,
			NaturalSide:  d.NaturalSide,
			Groups:       dictionary.GroupsFor(&t),
		})
	}
	toJSON(w, http.StatusOK, out)
}
