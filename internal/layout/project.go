package layout

import (
	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/dgallion1/bookflow/internal/richtext"
)

// Highlight is a colorization request in structural coordinates.
type Highlight struct {
	Range booktree.Range `json:"range"`
	Color string         `json:"color"`
}

// Project returns the window of the block at blockPath covered by r, or
// false when the block lies outside the range. Inverted and empty ranges
// never overlap anything.
func Project(blockPath booktree.Path, r booktree.Range) (richtext.Window, bool) {
	if !r.Open() && r.End.Less(blockPath) {
		return richtext.Window{}, false
	}

	var start int
	switch {
	case !blockPath.Less(r.Start):
		start = 0
	case blockPath.IsPrefixOf(r.Start):
		start = r.Start[len(blockPath)]
	default:
		return richtext.Window{}, false
	}

	w := richtext.From(start)
	if !r.Open() && blockPath.IsPrefixOf(r.End) {
		w = richtext.Between(start, r.End[len(blockPath)])
	}
	if w.Empty() {
		return richtext.Window{}, false
	}
	return w, true
}

// Colorize applies every highlight overlapping the block at path, in order,
// as a background color.
func Colorize(frags []richtext.Fragment, path booktree.Path, highlights []Highlight) []richtext.Fragment {
	for _, h := range highlights {
		w, ok := Project(path, h.Range)
		if !ok {
			continue
		}
		frags = richtext.ApplyRange(frags, w, richtext.Attrs{Background: h.Color})
	}
	return frags
}
