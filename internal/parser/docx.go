package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Heading styles open chapters and the
// Title and Subtitle styles become title blocks.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*booktree.Book, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "bookflow-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	book := &booktree.Book{
		Title: baseTitle(filename),
	}

	var b sectionBuilder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}

		text := docxParagraphText(para)
		if text == "" {
			continue
		}

		switch style := docxStyle(para); {
		case strings.EqualFold(style, "Title"):
			book.Title = text
			b.add(&booktree.Title{Lines: []string{text}, Level: 0})
		case strings.EqualFold(style, "Subtitle"):
			b.add(&booktree.Title{Lines: []string{text}, Level: -1})
		default:
			if level := docxHeadingLevel(style); level > 0 {
				b.heading(level, text, "")
			} else {
				b.add(booktree.Para(text))
			}
		}
	}

	book.Nodes = b.nodes()
	return book, nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func docxHeadingLevel(style string) int {
	for level := 1; level <= 6; level++ {
		if strings.EqualFold(style, fmt.Sprintf("Heading%d", level)) ||
			strings.EqualFold(style, fmt.Sprintf("heading %d", level)) {
			return level
		}
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
