package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/bookflow/internal/booktree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available. Every page becomes a chapter
// with id "page-N".
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*booktree.Book, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "bookflow-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := extractPDFText(tmpPath)
	if err != nil && p.FallbackPdftotext {
		text, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return pagesToBook(baseTitle(filename), text), nil
}

// pagesToBook splits form-feed separated page text into page chapters.
func pagesToBook(title, text string) *booktree.Book {
	book := &booktree.Book{Title: title}
	for i, page := range splitPages(text) {
		paras := pageParagraphs(page)
		if len(paras) == 0 {
			continue
		}
		ch := &booktree.Chapter{
			ID:    fmt.Sprintf("page-%d", i+1),
			Title: []string{fmt.Sprintf("Page %d", i+1)},
			Level: 1,
		}
		for _, para := range paras {
			ch.Nodes = append(ch.Nodes, booktree.Para(para))
		}
		book.Nodes = append(book.Nodes, ch)
	}
	return book
}

// pageParagraphs splits a page on blank lines and joins wrapped lines.
func pageParagraphs(page string) []string {
	var out []string
	for _, block := range strings.Split(page, "\n\n") {
		if para := strings.Join(strings.Fields(block), " "); para != "" {
			out = append(out, para)
		}
	}
	return out
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if i > 1 {
			buf.WriteString("\f") // Form feed as page separator.
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func splitPages(text string) []string {
	return strings.Split(text, "\f")
}
