package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark, with GFM tables,
// strikethrough and footnotes.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*booktree.Book, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Footnote),
		goldmark.WithParserOptions(gmparser.WithAutoHeadingID()),
	)
	doc := md.Parser().Parse(text.NewReader(src))

	c := &mdConverter{src: src, images: make(map[string]booktree.Image)}
	var b sectionBuilder

	// Headings open chapters; footnote bodies go to the top level.
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := booktree.PlainText(c.inlines(node))
			b.heading(node.Level, title, attrString(node, "id"))
		case *extast.FootnoteList:
			for fn := node.FirstChild(); fn != nil; fn = fn.NextSibling() {
				if f, ok := fn.(*extast.Footnote); ok {
					b.addRoot(c.footnote(f))
				}
			}
		default:
			if out := c.block(n); out != nil {
				b.add(out)
			}
		}
	}

	book := &booktree.Book{
		Title: baseTitle(filename),
		Nodes: b.nodes(),
	}
	if len(c.images) > 0 {
		book.Images = c.images
	}
	return book, nil
}

type mdConverter struct {
	src    []byte
	images map[string]booktree.Image
}

func (c *mdConverter) blocks(parent ast.Node) []booktree.Node {
	var out []booktree.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b := c.block(n); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (c *mdConverter) block(n ast.Node) booktree.Node {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		span := c.inlines(n)
		if span == nil {
			return nil
		}
		return &booktree.Paragraph{Span: span}
	case *ast.Heading:
		// Only reached for headings nested in block quotes or footnotes.
		return &booktree.Title{Lines: []string{booktree.PlainText(c.inlines(n))}, Level: n.Level}
	case *ast.ThematicBreak:
		return &booktree.Separator{}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		code := strings.TrimRight(linesText(n, c.src), "\n")
		return &booktree.Paragraph{Span: &booktree.Attributed{Span: booktree.Text(code), Attr: booktree.AttrCode}}
	case *ast.List:
		out := &booktree.List{Kind: booktree.ListUnordered}
		if n.IsOrdered() {
			out.Kind = booktree.ListOrdered
		}
		c.listItems(n, out)
		return out
	case *ast.Blockquote:
		return &booktree.Group{Nodes: c.blocks(n)}
	case *extast.Table:
		return c.table(n)
	case *ast.HTMLBlock:
		return &booktree.Ignorable{Reason: "html block"}
	}
	return nil
}

// listItems appends one item per list item; nested lists are flattened
// after their parent item.
func (c *mdConverter) listItems(l *ast.List, out *booktree.List) {
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		var spans []booktree.Span
		var nested []*ast.List
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			if nl, ok := child.(*ast.List); ok {
				nested = append(nested, nl)
				continue
			}
			if len(spans) > 0 {
				spans = append(spans, booktree.Text(" "))
			}
			spans = append(spans, c.inlines(child))
		}
		if s := booktree.Simplify(spans); s != nil {
			out.Items = append(out.Items, s)
		}
		for _, nl := range nested {
			c.listItems(nl, out)
		}
	}
}

func (c *mdConverter) table(t *extast.Table) *booktree.Table {
	out := &booktree.Table{}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []booktree.Span
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			s := c.inlines(cell)
			if s == nil {
				s = booktree.Text("")
			}
			cells = append(cells, s)
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func (c *mdConverter) footnote(f *extast.Footnote) *booktree.Group {
	return &booktree.Group{
		Footnote: &booktree.Footnote{ID: footnoteID(f.Index), Title: []string{strconv.Itoa(f.Index)}},
		Nodes:    c.blocks(f),
	}
}

func (c *mdConverter) inlines(n ast.Node) booktree.Span {
	var spans []booktree.Span
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		spans = append(spans, c.inline(child))
	}
	return booktree.Simplify(spans)
}

func (c *mdConverter) inline(n ast.Node) booktree.Span {
	switch n := n.(type) {
	case *ast.Text:
		value := string(n.Value(c.src))
		switch {
		case n.HardLineBreak():
			value += "\n"
		case n.SoftLineBreak():
			value += " "
		}
		return booktree.Text(value)
	case *ast.String:
		return booktree.Text(n.Value)
	case *ast.Emphasis:
		if n.Level >= 2 {
			return wrap(c.inlines(n), booktree.AttrBold)
		}
		return wrap(c.inlines(n), booktree.AttrItalic)
	case *ast.CodeSpan:
		return wrap(c.inlines(n), booktree.AttrCode)
	case *extast.Strikethrough:
		return wrap(c.inlines(n), booktree.AttrStrike)
	case *ast.Link:
		return linkRef(c.inlines(n), string(n.Destination))
	case *ast.AutoLink:
		return linkRef(booktree.Text(n.Label(c.src)), string(n.URL(c.src)))
	case *ast.Image:
		id := string(n.Destination)
		if _, ok := c.images[id]; !ok {
			title := string(n.Title)
			if title == "" {
				title = booktree.PlainText(c.inlines(n))
			}
			c.images[id] = booktree.Image{Src: id, Title: title}
		}
		return &booktree.ImageRef{ID: id}
	case *extast.FootnoteLink:
		return &booktree.Ref{
			Span:   wrap(booktree.Text(strconv.Itoa(n.Index)), booktree.AttrSup),
			Target: footnoteID(n.Index),
		}
	case *extast.FootnoteBacklink, *ast.RawHTML:
		return nil
	default:
		return c.inlines(n)
	}
}

func wrap(s booktree.Span, attr booktree.AttrName) booktree.Span {
	if s == nil {
		return nil
	}
	return &booktree.Attributed{Span: s, Attr: attr}
}

// linkRef turns a link into a reference. In-document anchors lose their '#'.
func linkRef(s booktree.Span, dest string) booktree.Span {
	if s == nil {
		s = booktree.Text(dest)
	}
	return &booktree.Ref{Span: s, Target: strings.TrimPrefix(dest, "#")}
}

func footnoteID(index int) string {
	return fmt.Sprintf("fn:%d", index)
}

// linesText returns the raw source lines of a block node.
func linesText(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(src))
	}
	return sb.String()
}

func attrString(n ast.Node, name string) string {
	v, ok := n.AttributeString(name)
	if !ok {
		return ""
	}
	switch v := v.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	}
	return ""
}
