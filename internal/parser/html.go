package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/bookflow/internal/booktree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML and XHTML files. Headings open chapters; elements
// marked as footnotes or endnotes become footnote groups.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*booktree.Book, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	book := &booktree.Book{
		Title: baseTitle(filename),
	}

	// Extract title from <title> tag if present.
	if title := findTitle(doc); title != "" {
		book.Title = title
	}

	c := &htmlConverter{images: make(map[string]booktree.Image)}
	var b sectionBuilder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				b.heading(level, textContent(n), attr(n, "id"))
				return
			}
			if isFootnote(n) {
				b.addRoot(c.footnote(n))
				return
			}
			if isContainer(n.Data) {
				for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
					walk(ch)
				}
				return
			}
		}
		for _, out := range c.block(n) {
			b.add(out)
		}
	}

	// Find <body> or use whole document.
	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	book.Nodes = b.nodes()
	if len(c.images) > 0 {
		book.Images = c.images
	}
	return book, nil
}

type htmlConverter struct {
	images map[string]booktree.Image
}

// blocks converts the children of n, gathering loose inline content into
// paragraphs.
func (c *htmlConverter) blocks(n *html.Node) []booktree.Node {
	var out []booktree.Node
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode && isContainer(ch.Data) {
			out = append(out, c.blocks(ch)...)
			continue
		}
		out = append(out, c.block(ch)...)
	}
	return out
}

func (c *htmlConverter) block(n *html.Node) []booktree.Node {
	switch n.Type {
	case html.TextNode:
		if s := collapseSpace(n.Data); strings.TrimSpace(s) != "" {
			return []booktree.Node{booktree.Para(strings.TrimSpace(s))}
		}
		return nil
	case html.ElementNode:
	default:
		return nil
	}

	if level := headingLevel(n.Data); level > 0 {
		return []booktree.Node{&booktree.Title{Lines: []string{textContent(n)}, Level: level}}
	}

	switch n.Data {
	case "script", "style", "nav", "footer", "header", "head":
		return nil
	case "p":
		if span := c.inlines(n); span != nil {
			return []booktree.Node{&booktree.Paragraph{Span: span}}
		}
		return nil
	case "pre":
		code := strings.TrimRight(rawText(n), "\n")
		return []booktree.Node{&booktree.Paragraph{Span: &booktree.Attributed{Span: booktree.Text(code), Attr: booktree.AttrCode}}}
	case "ul", "ol":
		return []booktree.Node{c.list(n)}
	case "table":
		return []booktree.Node{c.table(n)}
	case "hr":
		return []booktree.Node{&booktree.Separator{}}
	case "img":
		if id := c.image(n); id != "" {
			return []booktree.Node{&booktree.ImageNode{ID: id}}
		}
		return nil
	case "blockquote", "figure":
		return []booktree.Node{&booktree.Group{Nodes: c.blocks(n)}}
	}
	if isFootnote(n) {
		return []booktree.Node{c.footnote(n)}
	}
	if isContainer(n.Data) {
		return c.blocks(n)
	}
	// Unknown element: keep its text as a paragraph.
	if span := c.inlines(n); span != nil {
		return []booktree.Node{&booktree.Paragraph{Span: span}}
	}
	return nil
}

func (c *htmlConverter) footnote(n *html.Node) *booktree.Group {
	id := attr(n, "id")
	return &booktree.Group{
		Footnote: &booktree.Footnote{ID: id, Title: []string{id}},
		Nodes:    c.blocks(n),
	}
}

func (c *htmlConverter) list(n *html.Node) *booktree.List {
	out := &booktree.List{Kind: booktree.ListUnordered}
	if n.Data == "ol" {
		out.Kind = booktree.ListOrdered
	}
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		if span := c.inlines(li); span != nil {
			out.Items = append(out.Items, span)
		}
	}
	return out
}

func (c *htmlConverter) table(n *html.Node) *booktree.Table {
	out := &booktree.Table{}
	var rows func(*html.Node)
	rows = func(n *html.Node) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type != html.ElementNode {
				continue
			}
			switch ch.Data {
			case "thead", "tbody", "tfoot":
				rows(ch)
			case "tr":
				var cells []booktree.Span
				for td := ch.FirstChild; td != nil; td = td.NextSibling {
					if td.Type != html.ElementNode || (td.Data != "td" && td.Data != "th") {
						continue
					}
					span := c.inlines(td)
					if span == nil {
						span = booktree.Text("")
					}
					cells = append(cells, span)
				}
				out.Rows = append(out.Rows, cells)
			}
		}
	}
	rows(n)
	return out
}

func (c *htmlConverter) inlines(n *html.Node) booktree.Span {
	var spans []booktree.Span
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		spans = append(spans, c.inline(ch))
	}
	return trimSpan(booktree.Simplify(spans))
}

func (c *htmlConverter) inline(n *html.Node) booktree.Span {
	switch n.Type {
	case html.TextNode:
		return booktree.Text(collapseSpace(n.Data))
	case html.ElementNode:
	default:
		return nil
	}

	switch n.Data {
	case "script", "style":
		return nil
	case "br":
		return booktree.Text("\n")
	case "em", "i", "cite", "dfn":
		return wrap(c.inlines(n), booktree.AttrItalic)
	case "strong", "b":
		return wrap(c.inlines(n), booktree.AttrBold)
	case "u", "ins":
		return wrap(c.inlines(n), booktree.AttrUnderline)
	case "s", "strike", "del":
		return wrap(c.inlines(n), booktree.AttrStrike)
	case "sup":
		return wrap(c.inlines(n), booktree.AttrSup)
	case "sub":
		return wrap(c.inlines(n), booktree.AttrSub)
	case "code", "kbd", "tt", "samp":
		return wrap(c.inlines(n), booktree.AttrCode)
	case "a":
		if href := attr(n, "href"); href != "" {
			return linkRef(c.inlines(n), href)
		}
	case "img":
		if id := c.image(n); id != "" {
			return &booktree.ImageRef{ID: id}
		}
		return nil
	}
	inner := c.inlines(n)
	if class := attr(n, "class"); class != "" && inner != nil {
		return &booktree.Semantic{Span: inner, Kind: class}
	}
	return inner
}

// image registers an <img> in the image dictionary and returns its id.
func (c *htmlConverter) image(n *html.Node) string {
	src := attr(n, "src")
	if src == "" {
		return ""
	}
	if _, ok := c.images[src]; !ok {
		title := attr(n, "title")
		if title == "" {
			title = attr(n, "alt")
		}
		c.images[src] = booktree.Image{Src: src, Title: title}
	}
	return src
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func isContainer(tag string) bool {
	switch tag {
	case "body", "div", "section", "article", "main", "aside", "html":
		return true
	}
	return false
}

// isFootnote recognizes EPUB and DPUB-ARIA footnote markup.
func isFootnote(n *html.Node) bool {
	if attr(n, "id") == "" {
		return false
	}
	switch attr(n, "role") {
	case "doc-footnote", "doc-endnote":
		return true
	}
	switch attr(n, "epub:type") {
	case "footnote", "endnote", "rearnote":
		return true
	}
	return false
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		if key == name {
			return a.Val
		}
	}
	return ""
}

// collapseSpace folds runs of whitespace into single spaces.
func collapseSpace(s string) string {
	if s == "" {
		return ""
	}
	var sb strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteRune(r)
	}
	if space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

// trimSpan strips leading and trailing spaces from the outer text runs.
func trimSpan(s booktree.Span) booktree.Span {
	switch v := s.(type) {
	case booktree.Text:
		if t := strings.TrimSpace(string(v)); t != "" {
			return booktree.Text(t)
		}
		return nil
	case booktree.Compound:
		out := append(booktree.Compound(nil), v...)
		if t, ok := out[0].(booktree.Text); ok {
			out[0] = booktree.Text(strings.TrimLeft(string(t), " "))
		}
		if t, ok := out[len(out)-1].(booktree.Text); ok {
			out[len(out)-1] = booktree.Text(strings.TrimRight(string(t), " "))
		}
		return booktree.Simplify(out)
	}
	return s
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func textContent(n *html.Node) string {
	return strings.TrimSpace(collapseSpace(rawText(n)))
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
