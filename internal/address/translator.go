package address

import "github.com/dgallion1/bookflow/internal/booktree"

// Translator converts between block addresses and structural paths using
// the path table of one flatten pass.
type Translator struct {
	paths []booktree.Path
	index map[string]int
}

// NewTranslator builds a translator over paths, where paths[i] is the path
// of block i.
func NewTranslator(paths []booktree.Path) *Translator {
	t := &Translator{
		paths: make([]booktree.Path, len(paths)),
		index: make(map[string]int, len(paths)),
	}
	for i, p := range paths {
		t.paths[i] = p.Clone()
		if _, dup := t.index[p.String()]; !dup {
			t.index[p.String()] = i
		}
	}
	return t
}

// Len returns the number of blocks.
func (t *Translator) Len() int { return len(t.paths) }

// ToPath returns the path of the addressed block, extended by the offset
// when the address has one.
func (t *Translator) ToPath(a BlockAddress) (booktree.Path, bool) {
	if a.Block < 0 || a.Block >= len(t.paths) {
		return nil, false
	}
	p := t.paths[a.Block]
	if a.HasOffset() {
		return p.Append(a.Offset), true
	}
	return p.Clone(), true
}

// ToAddress finds the block rendered from path. A path one level below a
// block's path is read as a character offset into that block, which is only
// exact for text-only blocks: an offset into a chapter or footnote title
// resolves to the child block rendered at that index. The root path resolves
// to the first block.
func (t *Translator) ToAddress(path booktree.Path) (BlockAddress, bool) {
	if len(path) == 0 {
		if len(t.paths) == 0 {
			return BlockAddress{}, false
		}
		return Whole(0), true
	}
	if i, ok := t.index[path.String()]; ok {
		return Whole(i), true
	}
	parent := path[:len(path)-1]
	if len(parent) == 0 {
		return BlockAddress{}, false
	}
	if i, ok := t.index[parent.String()]; ok {
		return At(i, path[len(path)-1]), true
	}
	return BlockAddress{}, false
}
