package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/dgallion1/bookflow/internal/booktree"
)

// FB2Parser handles FictionBook 2 files. Sections become chapters, the
// notes body becomes footnote groups and embedded binaries fill the image
// dictionary as data URLs.
type FB2Parser struct{}

func (p *FB2Parser) Parse(r io.Reader, filename string) (*booktree.Book, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse fb2: %w", err)
	}

	book := &booktree.Book{
		Title: baseTitle(filename),
	}
	if n := xmlquery.FindOne(doc, "//description/title-info/book-title"); n != nil {
		if title := strings.TrimSpace(n.InnerText()); title != "" {
			book.Title = title
		}
	}

	for _, bin := range xmlquery.Find(doc, "//binary") {
		id := bin.SelectAttr("id")
		if id == "" {
			continue
		}
		if book.Images == nil {
			book.Images = make(map[string]booktree.Image)
		}
		data := strings.Join(strings.Fields(bin.InnerText()), "")
		book.Images[id] = booktree.Image{
			Src:   "data:" + bin.SelectAttr("content-type") + ";base64," + data,
			Title: id,
		}
	}

	for _, body := range xmlquery.Find(doc, "//FictionBook/body") {
		switch body.SelectAttr("name") {
		case "notes", "comments":
			book.Nodes = append(book.Nodes, notesBody(body)...)
		default:
			book.Nodes = append(book.Nodes, fb2Blocks(body, 0)...)
		}
	}

	return book, nil
}

// fb2Blocks converts the block children of a body or section. depth is the
// section nesting level of the parent.
func fb2Blocks(parent *xmlquery.Node, depth int) []booktree.Node {
	var out []booktree.Node
	for n := parent.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		switch n.Data {
		case "title":
			out = append(out, &booktree.Title{Lines: titleLines(n), Level: depth})
		case "section":
			out = append(out, fb2Section(n, depth+1))
		case "p":
			out = append(out, &booktree.Paragraph{Span: fb2Inlines(n)})
		case "subtitle":
			out = append(out, &booktree.Title{Lines: []string{collapseText(n)}, Level: depth + 1})
		case "empty-line":
			out = append(out, &booktree.Ignorable{Reason: "empty-line"})
		case "image":
			out = append(out, &booktree.ImageNode{ID: imageID(n)})
		case "epigraph", "cite", "annotation", "poem", "stanza":
			out = append(out, &booktree.Group{Nodes: fb2Blocks(n, depth)})
		case "v":
			out = append(out, &booktree.Paragraph{Span: fb2Inlines(n)})
		case "text-author", "date":
			out = append(out, &booktree.Title{Lines: []string{collapseText(n)}, Level: -1})
		case "table":
			out = append(out, fb2Table(n))
		}
	}
	return out
}

// fb2Section turns a section into a chapter whose title is the section's
// <title> element.
func fb2Section(n *xmlquery.Node, depth int) *booktree.Chapter {
	ch := &booktree.Chapter{ID: n.SelectAttr("id"), Level: depth}
	var body []booktree.Node
	for _, child := range fb2Blocks(n, depth) {
		if t, ok := child.(*booktree.Title); ok && ch.Title == nil && t.Level == depth {
			ch.Title = t.Lines
			continue
		}
		body = append(body, child)
	}
	ch.Nodes = body
	return ch
}

// notesBody converts the notes body: its title stays a title, every section
// becomes a footnote group.
func notesBody(body *xmlquery.Node) []booktree.Node {
	var out []booktree.Node
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		switch n.Data {
		case "title":
			out = append(out, &booktree.Title{Lines: titleLines(n), Level: 1})
		case "section":
			g := &booktree.Group{Footnote: &booktree.Footnote{ID: n.SelectAttr("id")}}
			for _, child := range fb2Blocks(n, 1) {
				if t, ok := child.(*booktree.Title); ok && g.Footnote.Title == nil {
					g.Footnote.Title = t.Lines
					continue
				}
				g.Nodes = append(g.Nodes, child)
			}
			if g.Footnote.Title == nil {
				g.Footnote.Title = []string{g.Footnote.ID}
			}
			out = append(out, g)
		}
	}
	return out
}

func fb2Table(n *xmlquery.Node) *booktree.Table {
	out := &booktree.Table{}
	for tr := n.FirstChild; tr != nil; tr = tr.NextSibling {
		if tr.Type != xmlquery.ElementNode || tr.Data != "tr" {
			continue
		}
		var cells []booktree.Span
		for td := tr.FirstChild; td != nil; td = td.NextSibling {
			if td.Type != xmlquery.ElementNode || (td.Data != "td" && td.Data != "th") {
				continue
			}
			cells = append(cells, fb2Inlines(td))
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func fb2Inlines(n *xmlquery.Node) booktree.Span {
	var spans []booktree.Span
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		spans = append(spans, fb2Inline(c))
	}
	if s := trimSpan(booktree.Simplify(spans)); s != nil {
		return s
	}
	return booktree.Text("")
}

func fb2Inline(n *xmlquery.Node) booktree.Span {
	switch n.Type {
	case xmlquery.TextNode, xmlquery.CharDataNode:
		return booktree.Text(collapseSpace(n.Data))
	case xmlquery.ElementNode:
	default:
		return nil
	}

	inner := func() booktree.Span {
		var spans []booktree.Span
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			spans = append(spans, fb2Inline(c))
		}
		return booktree.Simplify(spans)
	}

	switch n.Data {
	case "emphasis":
		return wrap(inner(), booktree.AttrItalic)
	case "strong":
		return wrap(inner(), booktree.AttrBold)
	case "strikethrough":
		return wrap(inner(), booktree.AttrStrike)
	case "sup":
		return wrap(inner(), booktree.AttrSup)
	case "sub":
		return wrap(inner(), booktree.AttrSub)
	case "code":
		return wrap(inner(), booktree.AttrCode)
	case "a":
		return linkRef(inner(), href(n))
	case "image":
		return &booktree.ImageRef{ID: imageID(n)}
	case "style":
		if s := inner(); s != nil {
			return &booktree.Semantic{Span: s, Kind: n.SelectAttr("name")}
		}
		return nil
	}
	return inner()
}

// href reads an xlink href regardless of the prefix the document binds.
func href(n *xmlquery.Node) string {
	for _, a := range n.Attr {
		if a.Name.Local == "href" {
			return a.Value
		}
	}
	return ""
}

func imageID(n *xmlquery.Node) string {
	return strings.TrimPrefix(href(n), "#")
}

func titleLines(n *xmlquery.Node) []string {
	var lines []string
	for p := n.FirstChild; p != nil; p = p.NextSibling {
		if p.Type == xmlquery.ElementNode && p.Data == "p" {
			if line := collapseText(p); line != "" {
				lines = append(lines, line)
			}
		}
	}
	if lines == nil {
		if line := collapseText(n); line != "" {
			lines = []string{line}
		}
	}
	return lines
}

func collapseText(n *xmlquery.Node) string {
	return strings.TrimSpace(collapseSpace(n.InnerText()))
}
