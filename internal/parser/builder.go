package parser

import "github.com/dgallion1/bookflow/internal/booktree"

// sectionBuilder nests nodes under chapters by heading level.
type sectionBuilder struct {
	root  []booktree.Node
	stack []stackEntry
}

type stackEntry struct {
	chapter *booktree.Chapter
	level   int
}

// heading opens a chapter, closing every open chapter at the same or a
// deeper level first.
func (b *sectionBuilder) heading(level int, title, id string) {
	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	ch := &booktree.Chapter{ID: id, Title: []string{title}, Level: level}
	b.add(ch)
	b.stack = append(b.stack, stackEntry{chapter: ch, level: level})
}

// add appends n to the innermost open chapter.
func (b *sectionBuilder) add(n booktree.Node) {
	if len(b.stack) == 0 {
		b.root = append(b.root, n)
		return
	}
	top := b.stack[len(b.stack)-1].chapter
	top.Nodes = append(top.Nodes, n)
}

// addRoot closes every chapter and appends n at the top level.
func (b *sectionBuilder) addRoot(n booktree.Node) {
	b.stack = b.stack[:0]
	b.root = append(b.root, n)
}

func (b *sectionBuilder) nodes() []booktree.Node {
	return b.root
}
