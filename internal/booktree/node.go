// Package booktree models a book as an immutable tree of content nodes with
// inline span markup, plus the image dictionary the spans refer to.
package booktree

// Book is the root of a parsed document.
type Book struct {
	Title  string           // Book title (from metadata or filename)
	Nodes  []Node           // Top-level content
	Images map[string]Image // Image dictionary keyed by image id
}

// Image is an entry of the image dictionary.
type Image struct {
	Src   string `json:"src"`
	Title string `json:"title,omitempty"`
}

// Node is one of the closed set of content node variants declared in this
// package: *Paragraph, *Title, *Chapter, *Group, *List, *Table, *Separator,
// *ImageNode and *Ignorable.
type Node interface {
	node()
}

// Paragraph is a run of inline content.
type Paragraph struct {
	Span Span
}

// Title is a standalone heading. Level 0 is the book title, positive levels
// are nested headings and negative levels are footnote-style labels.
type Title struct {
	Lines []string
	Level int
}

// Chapter is a titled section. Its title heads its own children.
type Chapter struct {
	ID    string // Anchor id, may be empty
	Title []string
	Level int
	Nodes []Node
}

// Footnote marks a group as the body of a footnote.
type Footnote struct {
	ID    string
	Title []string
}

// Group wraps child nodes. A group with a Footnote renders a label before
// its children.
type Group struct {
	Footnote *Footnote
	Nodes    []Node
}

// ListKind distinguishes bulleted from numbered lists.
type ListKind string

const (
	ListUnordered ListKind = "unordered"
	ListOrdered   ListKind = "ordered"
)

// List is a flat list of inline items.
type List struct {
	Kind  ListKind
	Items []Span
}

// Table is a grid of inline cells.
type Table struct {
	Rows [][]Span
}

// Separator is a thematic break.
type Separator struct{}

// ImageNode is a block-level image. It does not produce a render block.
type ImageNode struct {
	ID string
}

// Ignorable carries content the renderer skips (metadata, comments).
type Ignorable struct {
	Reason string
}

func (*Paragraph) node() {}
func (*Title) node()     {}
func (*Chapter) node()   {}
func (*Group) node()     {}
func (*List) node()      {}
func (*Table) node()     {}
func (*Separator) node() {}
func (*ImageNode) node() {}
func (*Ignorable) node() {}

// Para is shorthand for a paragraph of plain text.
func Para(text string) *Paragraph {
	return &Paragraph{Span: Text(text)}
}
