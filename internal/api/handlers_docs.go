package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/bookflow/internal/pipeline"
	"github.com/dgallion1/bookflow/internal/toc"
)

// document loads the document named in the URL or answers 404.
func (s *Server) document(w http.ResponseWriter, r *http.Request) (*pipeline.Document, bool) {
	docID := chi.URLParam(r, "docID")
	doc, ok := s.orchestrator.Library().Get(docID)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return nil, false
	}
	return doc, true
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"documents": s.orchestrator.Library().List()})
}

// handleDeleteDocument removes a document and its saved highlights.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.orchestrator.Library().Delete(docID); err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.metrics.Documents.Set(float64(s.orchestrator.Library().Len()))

	var removed int64
	if s.highlights != nil {
		n, err := s.highlights.DeleteDocument(r.Context(), docID)
		if err != nil {
			s.log.Error("delete highlights failed", "doc_id", docID, "error", err)
		}
		removed = n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":             docID,
		"deleted":            true,
		"highlights_deleted": removed,
	})
}

func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	entries := toc.Build(doc.Book, toc.DefaultConfig())
	if entries == nil {
		entries = []toc.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":  doc.ID,
		"title":   doc.Title,
		"entries": entries,
	})
}
