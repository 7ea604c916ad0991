package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/bookflow/internal/address"
	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/dgallion1/bookflow/internal/highlights"
	"github.com/dgallion1/bookflow/internal/layout"
	"github.com/dgallion1/bookflow/internal/pipeline"
	"github.com/dgallion1/bookflow/internal/richtext"
)

// highlightRequest is a highlight in the wire form used by clients. A missing
// or empty end runs to the end of the book.
type highlightRequest struct {
	Start booktree.Path `json:"start"`
	End   booktree.Path `json:"end,omitempty"`
	Color string        `json:"color"`
}

func (h highlightRequest) highlight() layout.Highlight {
	end := h.End
	if len(end) == 0 {
		end = nil
	}
	return layout.Highlight{
		Range: booktree.Range{Start: h.Start, End: end},
		Color: h.Color,
	}
}

type renderRequest struct {
	Highlights []highlightRequest `json:"highlights"`
	Saved      bool               `json:"saved"`
	FontSize   float64            `json:"font_size"`
}

type renderResponse struct {
	DocID  string           `json:"doc_id"`
	Title  string           `json:"title"`
	Blocks []richtext.Block `json:"blocks"`
	Paths  []booktree.Path  `json:"paths"`
}

func (s *Server) env(fontSize float64, hs []layout.Highlight) layout.Env {
	if fontSize <= 0 {
		fontSize = s.cfg.FontSize
	}
	return layout.Env{
		FontSize:      fontSize,
		RefColor:      s.cfg.RefColor,
		RefHoverColor: s.cfg.RefHoverColor,
		Highlights:    hs,
	}
}

// translator builds the path table of doc. Paths do not depend on highlights
// or font size, so the default environment is enough.
func (s *Server) translator(doc *pipeline.Document) *address.Translator {
	return address.NewTranslator(layout.Build(doc.Book, s.env(0, nil)).Paths)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	doc, ok := s.document(w, r)
	if !ok {
		return
	}

	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	hs := make([]layout.Highlight, 0, len(req.Highlights))
	if req.Saved && s.highlights != nil {
		saved, err := s.highlights.List(r.Context(), doc.ID)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		for _, h := range saved {
			hs = append(hs, h.Highlight())
		}
	}
	for i, hr := range req.Highlights {
		h := hr.highlight()
		if err := highlights.Validate(h); err != nil {
			jsonError(w, fmt.Sprintf("highlight %d: %s", i, err), http.StatusBadRequest)
			return
		}
		hs = append(hs, h)
	}

	l := layout.Build(doc.Book, s.env(req.FontSize, hs))
	s.metrics.Renders.Inc()
	s.metrics.RenderedBlocks.Observe(float64(len(l.Blocks)))
	s.metrics.ObserveRender(start)

	blocks := l.Blocks
	if blocks == nil {
		blocks = []richtext.Block{}
	}
	paths := l.Paths
	if paths == nil {
		paths = []booktree.Path{}
	}
	writeJSON(w, http.StatusOK, renderResponse{
		DocID:  doc.ID,
		Title:  doc.Title,
		Blocks: blocks,
		Paths:  paths,
	})
}

// handleLocate translates a structural path into a block address.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	path, err := booktree.ParsePath(r.URL.Query().Get("path"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	addr, ok := s.translator(doc).ToAddress(path)
	if !ok {
		jsonError(w, "path not rendered", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":       path,
		"address":    addr,
		"element_id": address.ElementID(addr),
	})
}

// handleResolve translates a block address, or an element id, into a
// structural path.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	addr, err := parseAnyAddress(r.URL.Query().Get("address"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	path, ok := s.translator(doc).ToPath(addr)
	if !ok {
		jsonError(w, "address out of range", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address": addr,
		"path":    path,
	})
}

type selectionRequest struct {
	address.RenderSelection
	// Color, when set, saves the selection as a highlight.
	Color string `json:"color,omitempty"`
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	sel, ok := address.MapSelection(s.translator(doc), req.RenderSelection)
	if !ok {
		jsonError(w, "selection out of range", http.StatusNotFound)
		return
	}

	resp := map[string]any{"selection": sel}
	if req.Color != "" {
		if s.highlights == nil {
			jsonError(w, "highlights unavailable", http.StatusServiceUnavailable)
			return
		}
		saved, err := s.highlights.Add(r.Context(), doc.ID, layout.Highlight{Range: sel.Range(), Color: req.Color})
		if err != nil {
			jsonError(w, err.Error(), highlightErrorStatus(err))
			return
		}
		resp["highlight"] = saved
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseAnyAddress(s string) (address.BlockAddress, error) {
	if strings.HasPrefix(s, address.ElementPrefix) {
		return address.ParseElementID(s)
	}
	return address.ParseAddress(s)
}
