package httpapi

import (
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/davmoss/moneybook/internal/book"
)

// pathUUID parses a chi URL parameter as a UUID. Writes 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		badRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) postBook(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req postBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(w, "name is required")
		return
	}
	id, err := s.store.CreateBook(r.Context(), req.Name)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, bookResponse{ID: id, Name: req.Name})
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.ListBooks(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]bookResponse, 0, len(names))
	for id, name := range names {
		out = append(out, bookResponse{ID: id, Name: name})
	}
	toJSON(w, http.StatusOK, out)
}

// getBook reports the book's revision and undo state. Clients poll the
// revision to learn when a refresh of their cached views is due.
func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	var resp bookStateResponse
	err := s.store.ViewBook(r.Context(), bookID, func(b *book.Book) error {
		resp = bookStateResponse{
			ID:              bookID,
			Revision:        b.Revision(),
			CanUndo:         b.CanUndo(),
			CanRedo:         b.CanRedo(),
			UndoDescription: b.UndoDescription(),
			RedoDescription: b.RedoDescription(),
		}
		return nil
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}
	if err := s.store.DeleteBook(r.Context(), bookID); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
