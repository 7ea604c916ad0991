package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/bookflow/internal/highlights"
)

func (s *Server) handleListHighlights(w http.ResponseWriter, r *http.Request) {
	if s.highlights == nil {
		jsonError(w, "highlights unavailable", http.StatusServiceUnavailable)
		return
	}
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	list, err := s.highlights.List(r.Context(), doc.ID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"highlights": list})
}

func (s *Server) handleAddHighlight(w http.ResponseWriter, r *http.Request) {
	if s.highlights == nil {
		jsonError(w, "highlights unavailable", http.StatusServiceUnavailable)
		return
	}
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	var req highlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	saved, err := s.highlights.Add(r.Context(), doc.ID, req.highlight())
	if err != nil {
		jsonError(w, err.Error(), highlightErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteHighlight(w http.ResponseWriter, r *http.Request) {
	if s.highlights == nil {
		jsonError(w, "highlights unavailable", http.StatusServiceUnavailable)
		return
	}
	docID := chi.URLParam(r, "docID")
	id := chi.URLParam(r, "highlightID")
	if err := s.highlights.Delete(r.Context(), docID, id); err != nil {
		if errors.Is(err, highlights.ErrNotFound) {
			jsonError(w, "highlight not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func highlightErrorStatus(err error) int {
	if errors.Is(err, highlights.ErrInvalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
