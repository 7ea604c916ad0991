package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleMarkdown = `# Chapter One

Hello world.

Second paragraph.

![Map](map.png)
`

func writeSample(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeOutput(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return out
}

func TestRenderCmd(t *testing.T) {
	file := writeSample(t, "book.md", sampleMarkdown)
	cmd := &RenderCmd{File: file, FontSize: 20, Highlight: []string{"0-0-0:0-0-5:yellow"}}

	var buf bytes.Buffer
	if err := cmd.run(&buf, quietLogger()); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := decodeOutput(t, &buf)
	blocks := out["blocks"].([]any)
	if len(blocks) == 0 {
		t.Fatal("expected blocks")
	}
	first := blocks[0].(map[string]any)
	if first["path"] != "0" {
		t.Errorf("expected first block at path 0, got %v", first["path"])
	}
	if !strings.Contains(buf.String(), "yellow") {
		t.Error("expected highlight in output")
	}
}

func TestRenderCmd_BadHighlight(t *testing.T) {
	file := writeSample(t, "book.md", sampleMarkdown)
	for _, h := range []string{"0-0", "0::", "x:1:red", "0:y:red"} {
		cmd := &RenderCmd{File: file, Highlight: []string{h}}
		if err := cmd.run(io.Discard, quietLogger()); err == nil {
			t.Errorf("expected error for highlight %q", h)
		}
	}
}

func TestParseHighlight_OpenEnd(t *testing.T) {
	h, err := parseHighlight("2-1::#ff0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.Range.Open() || h.Range.Start.String() != "2-1" || h.Color != "#ff0" {
		t.Errorf("unexpected highlight %+v", h)
	}
}

func TestLocateAndResolveCmds(t *testing.T) {
	file := writeSample(t, "book.txt", "First.\n\nSecond one.\n")

	var buf bytes.Buffer
	if err := (&LocateCmd{File: file, Path: "1-4"}).run(&buf, quietLogger()); err != nil {
		t.Fatalf("locate: %v", err)
	}
	out := decodeOutput(t, &buf)
	if out["address"] != "1-4" || out["element_id"] != "@id:1-4" {
		t.Errorf("unexpected locate output %v", out)
	}

	buf.Reset()
	if err := (&ResolveCmd{File: file, Address: "@id:1-4"}).run(&buf, quietLogger()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	out = decodeOutput(t, &buf)
	if out["path"] != "1-4" {
		t.Errorf("unexpected resolve output %v", out)
	}

	if err := (&LocateCmd{File: file, Path: "7"}).run(io.Discard, quietLogger()); err == nil {
		t.Error("expected error for unrendered path")
	}
	if err := (&ResolveCmd{File: file, Address: "9"}).run(io.Discard, quietLogger()); err == nil {
		t.Error("expected error for out of range address")
	}
	if err := (&ResolveCmd{File: file, Address: "1-2-3"}).run(io.Discard, quietLogger()); err == nil {
		t.Error("expected error for malformed address")
	}
}

func TestTOCAndImagesCmds(t *testing.T) {
	file := writeSample(t, "book.md", sampleMarkdown)

	var buf bytes.Buffer
	if err := (&TOCCmd{File: file, ExcerptWords: 5}).run(&buf, quietLogger()); err != nil {
		t.Fatalf("toc: %v", err)
	}
	out := decodeOutput(t, &buf)
	entries := out["entries"].([]any)
	if len(entries) != 1 || entries[0].(map[string]any)["title"] != "Chapter One" {
		t.Errorf("unexpected toc %v", entries)
	}

	buf.Reset()
	if err := (&ImagesCmd{File: file}).run(&buf, quietLogger()); err != nil {
		t.Fatalf("images: %v", err)
	}
	out = decodeOutput(t, &buf)
	if out["embedded"] != float64(1) || len(out["missing"].([]any)) != 0 {
		t.Errorf("unexpected images output %v", out)
	}
}

func TestLoadBook_Errors(t *testing.T) {
	if _, err := loadBook(filepath.Join(t.TempDir(), "missing.md"), quietLogger()); err == nil {
		t.Error("expected error for missing file")
	}
	file := writeSample(t, "book.xyz", "data")
	if _, err := loadBook(file, quietLogger()); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
