package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/dgallion1/bookflow/internal/config"
	"github.com/dgallion1/bookflow/internal/highlights"
	"github.com/dgallion1/bookflow/internal/metrics"
	"github.com/dgallion1/bookflow/internal/pipeline"
)

const testAPIKey = "secret"

// testBook renders to blocks with paths 0, 1, 1-0, 1-1, 2, 2-0.
func testBook() *booktree.Book {
	return &booktree.Book{
		Title: "Test Book",
		Nodes: []booktree.Node{
			&booktree.Title{Lines: []string{"Test Book"}, Level: 0},
			&booktree.Chapter{ID: "c1", Title: []string{"One"}, Level: 1, Nodes: []booktree.Node{
				booktree.Para("Hello world"),
				booktree.Para("Bye"),
			}},
			&booktree.Group{
				Footnote: &booktree.Footnote{ID: "n1", Title: []string{"1"}},
				Nodes:    []booktree.Node{booktree.Para("Note")},
			},
		},
	}
}

type testEnv struct {
	srv  *Server
	orch *pipeline.Orchestrator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Config{
		BookflowAPIKey:      testAPIKey,
		WorkerCount:         1,
		MaxQueueSize:        4,
		MaxUploadBytes:      1 << 20,
		JobTTL:              time.Hour,
		DocumentTTL:         time.Hour,
		FontSize:            16,
		RefColor:            "blue",
		RefHoverColor:       "navy",
		MaxConcurrentImages: 1,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib := pipeline.NewLibrary(cfg.DocumentTTL)
	lib.Put(&pipeline.Document{
		ID:        "doc",
		Title:     "Test Book",
		Filename:  "test.fb2",
		Book:      testBook(),
		CreatedAt: time.Now(),
	})

	store, err := highlights.Open(":memory:")
	if err != nil {
		t.Fatalf("open highlights: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	m := metrics.New()
	orch := pipeline.NewOrchestrator(cfg, nil, lib, m, log)
	return &testEnv{srv: NewServer(orch, store, m, log, cfg), orch: orch}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	e := newTestEnv(t)
	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		e.srv.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		expectStatus(t, rec, http.StatusOK)
	}
}

func TestAuthRequired(t *testing.T) {
	e := newTestEnv(t)

	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/documents", nil))
	expectStatus(t, rec, http.StatusUnauthorized)

	req := httptest.NewRequest("GET", "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestListDocuments(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, "GET", "/api/documents", nil)
	expectStatus(t, rec, http.StatusOK)

	var resp struct {
		Documents []pipeline.DocumentInfo `json:"documents"`
	}
	decode(t, rec, &resp)
	if len(resp.Documents) != 1 || resp.Documents[0].ID != "doc" {
		t.Errorf("unexpected documents %+v", resp.Documents)
	}
}

func TestRender(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, "POST", "/api/documents/doc/render", map[string]any{
		"highlights": []map[string]string{{"start": "1-0-3", "end": "1-0-7", "color": "yellow"}},
	})
	expectStatus(t, rec, http.StatusOK)

	var resp struct {
		Blocks []json.RawMessage `json:"blocks"`
		Paths  []string          `json:"paths"`
	}
	decode(t, rec, &resp)
	want := []string{"0", "1", "1-0", "1-1", "2", "2-0"}
	if strings.Join(resp.Paths, ",") != strings.Join(want, ",") {
		t.Errorf("expected paths %v, got %v", want, resp.Paths)
	}
	if len(resp.Blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(resp.Blocks))
	}
	if !strings.Contains(string(resp.Blocks[2]), "yellow") {
		t.Errorf("expected highlight in block 2, got %s", resp.Blocks[2])
	}
	if strings.Contains(string(resp.Blocks[3]), "yellow") {
		t.Errorf("expected no highlight in block 3, got %s", resp.Blocks[3])
	}
}

func TestRender_EmptyBodyAndUnknownDocument(t *testing.T) {
	e := newTestEnv(t)
	expectStatus(t, e.do(t, "POST", "/api/documents/doc/render", nil), http.StatusOK)
	expectStatus(t, e.do(t, "POST", "/api/documents/nope/render", nil), http.StatusNotFound)

	req := httptest.NewRequest("POST", "/api/documents/doc/render", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestRender_RejectsInvalidHighlights(t *testing.T) {
	e := newTestEnv(t)
	for name, h := range map[string]map[string]string{
		"markup color":     {"start": "1-0-3", "end": "1-0-7", "color": "red;<script>"},
		"missing color":    {"start": "1-0-3", "end": "1-0-7"},
		"end before start": {"start": "1-1", "end": "1-0", "color": "red"},
	} {
		rec := e.do(t, "POST", "/api/documents/doc/render", map[string]any{
			"highlights": []map[string]string{h},
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d: %s", name, rec.Code, rec.Body.String())
		}
		if strings.Contains(rec.Body.String(), "background") {
			t.Errorf("%s: expected no rendered blocks, got %s", name, rec.Body.String())
		}
	}
}

func TestRender_EmptyEndIsOpen(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, "POST", "/api/documents/doc/render", map[string]any{
		"highlights": []map[string]string{{"start": "2", "end": "", "color": "yellow"}},
	})
	expectStatus(t, rec, http.StatusOK)

	var resp struct {
		Blocks []json.RawMessage `json:"blocks"`
	}
	decode(t, rec, &resp)
	for i, b := range resp.Blocks {
		got := strings.Contains(string(b), "yellow")
		if want := i >= 4; got != want {
			t.Errorf("block %d: highlighted=%v, want %v: %s", i, got, want, b)
		}
	}
}

func TestLocateAndResolve(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		url    string
		status int
		field  string
		want   string
	}{
		{"/api/documents/doc/locate?path=1-0-3", http.StatusOK, "address", "2-3"},
		{"/api/documents/doc/locate?path=1-1", http.StatusOK, "address", "3"},
		{"/api/documents/doc/locate?path=", http.StatusOK, "address", "0"},
		{"/api/documents/doc/locate?path=9", http.StatusNotFound, "", ""},
		{"/api/documents/doc/locate?path=x", http.StatusBadRequest, "", ""},
		{"/api/documents/doc/resolve?address=2-3", http.StatusOK, "path", "1-0-3"},
		{"/api/documents/doc/resolve?address=@id:3", http.StatusOK, "path", "1-1"},
		{"/api/documents/doc/resolve?address=99", http.StatusNotFound, "", ""},
		{"/api/documents/doc/resolve?address=-1", http.StatusBadRequest, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			rec := e.do(t, "GET", tt.url, nil)
			expectStatus(t, rec, tt.status)
			if tt.field == "" {
				return
			}
			var resp map[string]any
			decode(t, rec, &resp)
			if resp[tt.field] != tt.want {
				t.Errorf("expected %s=%q, got %v", tt.field, tt.want, resp[tt.field])
			}
		})
	}
}

func TestSelectionSavesHighlight(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, "POST", "/api/documents/doc/selection", map[string]string{
		"start": "3-1", "end": "2-4", "text": "o world\nB", "color": "pink",
	})
	expectStatus(t, rec, http.StatusOK)

	var resp struct {
		Selection struct {
			Start, End, Text string
		} `json:"selection"`
		Highlight *highlights.Saved `json:"highlight"`
	}
	decode(t, rec, &resp)
	if resp.Selection.Start != "1-0-4" || resp.Selection.End != "1-1-1" {
		t.Errorf("unexpected selection %+v", resp.Selection)
	}
	if resp.Highlight == nil || resp.Highlight.Color != "pink" {
		t.Fatalf("expected saved highlight, got %+v", resp.Highlight)
	}

	rec = e.do(t, "POST", "/api/documents/doc/selection", map[string]string{"start": "40", "end": "2"})
	expectStatus(t, rec, http.StatusNotFound)

	rec = e.do(t, "POST", "/api/documents/doc/render", map[string]any{"saved": true})
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "pink") {
		t.Error("expected saved highlight to be rendered")
	}
}

func TestHighlightsCRUD(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, "POST", "/api/documents/doc/highlights", map[string]string{"start": "1-0", "end": "1-1"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = e.do(t, "POST", "/api/documents/doc/highlights", map[string]string{"start": "1-0", "end": "1-1", "color": "red"})
	expectStatus(t, rec, http.StatusCreated)
	var saved highlights.Saved
	decode(t, rec, &saved)

	rec = e.do(t, "GET", "/api/documents/doc/highlights", nil)
	expectStatus(t, rec, http.StatusOK)
	var list struct {
		Highlights []highlights.Saved `json:"highlights"`
	}
	decode(t, rec, &list)
	if len(list.Highlights) != 1 || list.Highlights[0].ID != saved.ID {
		t.Fatalf("unexpected highlights %+v", list.Highlights)
	}

	expectStatus(t, e.do(t, "DELETE", "/api/documents/doc/highlights/"+saved.ID, nil), http.StatusNoContent)
	expectStatus(t, e.do(t, "DELETE", "/api/documents/doc/highlights/"+saved.ID, nil), http.StatusNotFound)
}

func TestTOCAndDelete(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, "GET", "/api/documents/doc/toc", nil)
	expectStatus(t, rec, http.StatusOK)
	var resp struct {
		Entries []struct {
			Title string `json:"title"`
			Path  string `json:"path"`
		} `json:"entries"`
	}
	decode(t, rec, &resp)
	if len(resp.Entries) != 2 || resp.Entries[1].Title != "One" || resp.Entries[1].Path != "1" {
		t.Errorf("unexpected toc %+v", resp.Entries)
	}

	expectStatus(t, e.do(t, "POST", "/api/documents/doc/highlights", map[string]string{"start": "1", "color": "red"}), http.StatusCreated)

	rec = e.do(t, "DELETE", "/api/documents/doc", nil)
	expectStatus(t, rec, http.StatusOK)
	var del map[string]any
	decode(t, rec, &del)
	if del["highlights_deleted"] != float64(1) {
		t.Errorf("expected one highlight deleted, got %v", del["highlights_deleted"])
	}

	expectStatus(t, e.do(t, "GET", "/api/documents/doc/toc", nil), http.StatusNotFound)
	expectStatus(t, e.do(t, "DELETE", "/api/documents/doc", nil), http.StatusNotFound)
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestIngest(t *testing.T) {
	e := newTestEnv(t)
	e.orch.Start(t.Context())
	defer e.orch.Stop()

	body, ctype := multipartBody(t, "file", "story.md", "# Start\n\nOnce upon a time.")
	req := httptest.NewRequest("POST", "/api/ingest", body)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusAccepted)

	var accepted struct {
		JobID string `json:"job_id"`
		DocID string `json:"doc_id"`
	}
	decode(t, rec, &accepted)

	deadline := time.Now().Add(5 * time.Second)
	var snap pipeline.JobSnapshot
	for time.Now().Before(deadline) {
		rec = e.do(t, "GET", "/api/ingest/"+accepted.JobID+"/status", nil)
		expectStatus(t, rec, http.StatusOK)
		decode(t, rec, &snap)
		if snap.Status.Final() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusReady {
		t.Fatalf("expected ready, got %+v", snap)
	}

	expectStatus(t, e.do(t, "GET", "/api/documents/"+accepted.DocID+"/toc", nil), http.StatusOK)
	expectStatus(t, e.do(t, "GET", "/api/ingest/unknown/status", nil), http.StatusNotFound)
}

func TestIngest_UnsupportedType(t *testing.T) {
	e := newTestEnv(t)
	body, ctype := multipartBody(t, "file", "virus.exe", "MZ")
	req := httptest.NewRequest("POST", "/api/ingest", body)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestStats(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/api/documents/doc/render", nil)

	rec := e.do(t, "GET", "/api/stats", nil)
	expectStatus(t, rec, http.StatusOK)
	var resp struct {
		Documents     int                   `json:"documents"`
		RenderLatency metrics.StatsSnapshot `json:"render_latency"`
	}
	decode(t, rec, &resp)
	if resp.Documents != 1 || resp.RenderLatency.Count != 1 {
		t.Errorf("unexpected stats %+v", resp)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"book.md":          "book.md",
		"../../etc/passwd": "passwd",
		"dir/a..b.txt":     "a_b.txt",
		"":                 "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
