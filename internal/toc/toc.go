package toc

import (
	"strings"

	"github.com/dgallion1/bookflow/internal/booktree"
)

// Config controls table of contents generation.
type Config struct {
	ExcerptWords int // Maximum words in a section excerpt.
	MinWords     int // Sections with fewer words get no excerpt.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ExcerptWords: 30,
		MinWords:     5,
	}
}

// Entry is one navigable heading.
type Entry struct {
	Title      string        `json:"title"`
	Level      int           `json:"level"`
	Path       booktree.Path `json:"path"`
	Breadcrumb []string      `json:"breadcrumb,omitempty"`
	Words      int           `json:"words"`
	Excerpt    string        `json:"excerpt,omitempty"`
}

// Build walks a book and produces one entry per chapter and per non-negative
// level title, in document order. Footnote groups are not part of the
// contents.
func Build(b *booktree.Book, cfg Config) []Entry {
	if cfg.ExcerptWords <= 0 {
		cfg.ExcerptWords = 30
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = 5
	}

	var entries []Entry
	walkNodes(b.Nodes, booktree.Path{}, nil, cfg, &entries)
	return entries
}

// walkNodes visits siblings, emitting entries for headings and recursing into
// chapters and plain groups.
func walkNodes(nodes []booktree.Node, prefix booktree.Path, breadcrumb []string, cfg Config, entries *[]Entry) {
	for i, n := range nodes {
		path := prefix.Append(i)
		switch n := n.(type) {
		case *booktree.Chapter:
			title := joinLines(n.Title)
			*entries = append(*entries, newEntry(title, n.Level, path, breadcrumb, n.Nodes, cfg))

			bc := copyBreadcrumb(breadcrumb)
			if title != "" {
				bc = append(bc, title)
			}
			walkNodes(n.Nodes, path, bc, cfg, entries)
		case *booktree.Title:
			if n.Level < 0 {
				continue
			}
			*entries = append(*entries, newEntry(joinLines(n.Lines), n.Level, path, breadcrumb, section(nodes[i+1:]), cfg))
		case *booktree.Group:
			if n.Footnote == nil {
				walkNodes(n.Nodes, path, breadcrumb, cfg, entries)
			}
		}
	}
}

func newEntry(title string, level int, path booktree.Path, breadcrumb []string, body []booktree.Node, cfg Config) Entry {
	text := bodyText(body)
	e := Entry{
		Title:      title,
		Level:      level,
		Path:       path,
		Breadcrumb: copyBreadcrumb(breadcrumb),
		Words:      CountWords(text),
	}
	if e.Words >= cfg.MinWords {
		e.Excerpt = Excerpt(text, cfg.ExcerptWords)
	}
	return e
}

// section returns the siblings following a title up to the next heading.
func section(rest []booktree.Node) []booktree.Node {
	for i, n := range rest {
		switch n.(type) {
		case *booktree.Title, *booktree.Chapter:
			return rest[:i]
		}
	}
	return rest
}

// bodyText collects paragraph, list and table text below nodes, skipping
// headings and footnotes.
func bodyText(nodes []booktree.Node) string {
	var parts []string
	booktree.Walk(nodes, func(n booktree.Node, _ booktree.Path) bool {
		switch n := n.(type) {
		case *booktree.Paragraph:
			parts = append(parts, booktree.PlainText(n.Span))
		case *booktree.List:
			for _, item := range n.Items {
				parts = append(parts, booktree.PlainText(item))
			}
		case *booktree.Table:
			for _, row := range n.Rows {
				for _, cell := range row {
					parts = append(parts, booktree.PlainText(cell))
				}
			}
		case *booktree.Group:
			return n.Footnote == nil
		}
		return true
	})
	return strings.Join(parts, "\n\n")
}

func joinLines(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, " "))
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
