package parser

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/ulikunitz/xz"
)

// Parser converts raw document bytes into a book tree.
type Parser interface {
	Parse(r io.Reader, filename string) (*booktree.Book, error)
}

// SupportedExtensions lists file extensions this service can handle.
// Any of them may carry an additional ".xz" suffix.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
	".fb2":  true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(stripXZ(filename)))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm", ".xhtml":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".fb2":
		return &FB2Parser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(stripXZ(filename)))
	return SupportedExtensions[ext] || ext == ".markdown" || ext == ".xhtml"
}

// Open wraps r in an xz decompressor when filename ends in ".xz" and returns
// the name of the inner document.
func Open(r io.Reader, filename string) (io.Reader, string, error) {
	inner := stripXZ(filename)
	if inner == filename {
		return r, filename, nil
	}
	zr, err := xz.NewReader(bufio.NewReader(r))
	if err != nil {
		return nil, "", fmt.Errorf("open xz: %w", err)
	}
	return zr, inner, nil
}

// ParseFile picks a parser by name, decompressing first if needed.
func ParseFile(r io.Reader, filename string) (*booktree.Book, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	body, name, err := Open(r, filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(body, name)
}

func stripXZ(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".xz") {
		return filename[:len(filename)-len(".xz")]
	}
	return filename
}

// baseTitle strips the directory and extension from filename.
func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
