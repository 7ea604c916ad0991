package booktree

import "strings"

// WalkFunc is called for every node in document order. Returning false
// skips the node's children.
type WalkFunc func(n Node, path Path) bool

// Walk visits nodes depth-first in document order.
func Walk(nodes []Node, fn WalkFunc) {
	walk(nodes, Path{}, fn)
}

func walk(nodes []Node, prefix Path, fn WalkFunc) {
	for i, n := range nodes {
		path := prefix.Append(i)
		if !fn(n, path) {
			continue
		}
		switch n := n.(type) {
		case *Chapter:
			walk(n.Nodes, path, fn)
		case *Group:
			walk(n.Nodes, path, fn)
		}
	}
}

// FindReference returns the path of the chapter or footnote group whose
// anchor id is id.
func FindReference(b *Book, id string) (Path, bool) {
	var found Path
	Walk(b.Nodes, func(n Node, path Path) bool {
		if found != nil {
			return false
		}
		switch n := n.(type) {
		case *Chapter:
			if n.ID != "" && n.ID == id {
				found = path
			}
		case *Group:
			if n.Footnote != nil && n.Footnote.ID == id {
				found = path
			}
		}
		return found == nil
	})
	return found, found != nil
}

// PlainTextOf concatenates the text of every node, one node per line.
func PlainTextOf(b *Book) string {
	var sb strings.Builder
	line := func(s string) {
		if s == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s)
	}
	Walk(b.Nodes, func(n Node, _ Path) bool {
		switch n := n.(type) {
		case *Paragraph:
			line(PlainText(n.Span))
		case *Title:
			line(strings.Join(n.Lines, " "))
		case *Chapter:
			line(strings.Join(n.Title, " "))
		case *Group:
			if n.Footnote != nil {
				line(strings.Join(n.Footnote.Title, " "))
			}
		case *List:
			for _, item := range n.Items {
				line(PlainText(item))
			}
		case *Table:
			for _, row := range n.Rows {
				cells := make([]string, len(row))
				for i, c := range row {
					cells[i] = PlainText(c)
				}
				line(strings.Join(cells, "\t"))
			}
		}
		return true
	})
	return sb.String()
}

// MissingImages lists image ids referenced by the book that are absent from
// its image dictionary, in document order without duplicates.
func MissingImages(b *Book) []string {
	seen := make(map[string]bool)
	var missing []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		if _, ok := b.Images[id]; !ok {
			missing = append(missing, id)
		}
	}
	var spanRefs func(s Span)
	spanRefs = func(s Span) {
		switch s := s.(type) {
		case *ImageRef:
			add(s.ID)
		case Compound:
			for _, c := range s {
				spanRefs(c)
			}
		case *Attributed:
			spanRefs(s.Span)
		case *Ref:
			spanRefs(s.Span)
		case *Semantic:
			spanRefs(s.Span)
		}
	}
	Walk(b.Nodes, func(n Node, _ Path) bool {
		switch n := n.(type) {
		case *Paragraph:
			spanRefs(n.Span)
		case *ImageNode:
			add(n.ID)
		case *List:
			for _, item := range n.Items {
				spanRefs(item)
			}
		case *Table:
			for _, row := range n.Rows {
				for _, c := range row {
					spanRefs(c)
				}
			}
		}
		return true
	})
	return missing
}
