// Package layout flattens a book tree into an ordered list of render blocks,
// each tagged with the structural path of the node it came from.
package layout

import (
	"fmt"

	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/dgallion1/bookflow/internal/richtext"
)

// Env holds the inputs of a flatten pass besides the nodes themselves.
type Env struct {
	FontSize      float64
	RefColor      richtext.Color
	RefHoverColor richtext.Color
	Images        map[string]booktree.Image
	Highlights    []Highlight
}

// Entry pairs a render block with the path of its source node.
type Entry struct {
	Block richtext.Block `json:"block"`
	Path  booktree.Path  `json:"path"`
}

// Layout is the result of one flatten pass. Paths[i] is the path of Blocks[i]
// and Paths is strictly increasing.
type Layout struct {
	Blocks []richtext.Block
	Paths  []booktree.Path
}

// Build flattens a whole book with its own image dictionary.
func Build(b *booktree.Book, env Env) Layout {
	if env.Images == nil {
		env.Images = b.Images
	}
	entries := Flatten(b.Nodes, env)
	l := Layout{
		Blocks: make([]richtext.Block, len(entries)),
		Paths:  make([]booktree.Path, len(entries)),
	}
	for i, e := range entries {
		l.Blocks[i] = e.Block
		l.Paths[i] = e.Path
	}
	return l
}

// Flatten walks nodes in document order and emits one entry per rendered
// node. It panics on a node variant it does not know.
func Flatten(nodes []booktree.Node, env Env) []Entry {
	f := flattener{env: env}
	f.nodes(nodes, booktree.Path{}, false, false)
	return f.out
}

type flattener struct {
	env Env
	out []Entry
}

func (f *flattener) emit(path booktree.Path, block richtext.Block) {
	block.Fragments = Colorize(block.Fragments, path, f.env.Highlights)
	f.out = append(f.out, Entry{Block: block, Path: path})
}

// nodes flattens siblings under prefix. headed means a title precedes the
// first sibling, as with a chapter's own children.
func (f *flattener) nodes(nodes []booktree.Node, prefix booktree.Path, headed, noDropCaps bool) {
	for i, n := range nodes {
		afterTitle := headed && i == 0
		if i > 0 {
			_, afterTitle = nodes[i-1].(*booktree.Title)
		}
		f.node(n, prefix.Append(i), afterTitle && !noDropCaps, noDropCaps)
	}
}

func (f *flattener) node(n booktree.Node, path booktree.Path, dropCaps, noDropCaps bool) {
	switch n := n.(type) {
	case *booktree.Paragraph:
		f.paragraph(n, path, dropCaps)
	case *booktree.Title:
		f.emit(path, f.titleBlock(n.Lines, n.Level))
	case *booktree.Chapter:
		f.emit(path, f.titleBlock(n.Title, n.Level))
		f.nodes(n.Nodes, path, true, noDropCaps)
	case *booktree.Group:
		if n.Footnote != nil {
			f.emit(path, f.titleBlock(n.Footnote.Title, -1))
			f.nodes(n.Nodes, path, false, true)
		} else {
			f.nodes(n.Nodes, path, false, noDropCaps)
		}
	case *booktree.List:
		f.emit(path, f.listBlock(n))
	case *booktree.Table:
		f.emit(path, f.tableBlock(n))
	case *booktree.Separator:
		f.emit(path, richtext.Block{Fragments: []richtext.Fragment{richtext.Rule{}}})
	case *booktree.ImageNode, *booktree.Ignorable:
	default:
		panic(fmt.Sprintf("layout: unexpected node %T", n))
	}
}

func (f *flattener) paragraph(p *booktree.Paragraph, path booktree.Path, dropCaps bool) {
	frags := Colorize(CompileSpan(p.Span, f.env), path, f.env.Highlights)
	if dropCaps {
		frags = richtext.ApplyRange(frags, richtext.Between(0, 1), richtext.Attrs{DropCaps: true})
	}
	f.out = append(f.out, Entry{
		Block: richtext.Block{Indent: !dropCaps, Fragments: frags},
		Path:  path,
	})
}

func (f *flattener) titleBlock(lines []string, level int) richtext.Block {
	attrs := richtext.Attrs{
		Italic:   level < 0,
		FontSize: f.env.FontSize,
	}
	if level == 0 {
		attrs.LetterSpacing = 0.15
	}
	if level > 0 {
		attrs.FontSize = f.env.FontSize * 1.5
	}
	margin := 0.8
	if level > 0 {
		margin = 1
	}

	frags := make([]richtext.Fragment, len(lines))
	for i, line := range lines {
		frags[i] = richtext.Text{Text: line + "\n", Attrs: attrs}
	}
	return richtext.Block{
		Center:    level >= 0,
		Margin:    margin,
		Fragments: frags,
	}
}

func (f *flattener) listBlock(l *booktree.List) richtext.Block {
	kind := richtext.Unordered
	if l.Kind == booktree.ListOrdered {
		kind = richtext.Ordered
	}
	items := make([][]richtext.Fragment, len(l.Items))
	for i, item := range l.Items {
		items[i] = CompileSpan(item, f.env)
	}
	return richtext.Block{
		Fragments: []richtext.Fragment{richtext.List{Kind: kind, Items: items}},
	}
}

func (f *flattener) tableBlock(t *booktree.Table) richtext.Block {
	rows := make([][][]richtext.Fragment, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([][]richtext.Fragment, len(row))
		for j, cell := range row {
			cells[j] = CompileSpan(cell, f.env)
		}
		rows[i] = cells
	}
	return richtext.Block{
		Fragments: []richtext.Fragment{richtext.Table{Rows: rows}},
	}
}
