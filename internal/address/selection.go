package address

import "github.com/dgallion1/bookflow/internal/booktree"

// RenderSelection is a selection as reported by a presentation layer.
type RenderSelection struct {
	Start BlockAddress `json:"start"`
	End   BlockAddress `json:"end"`
	Text  string       `json:"text"`
}

// Selection is a selection in structural coordinates with Start <= End.
type Selection struct {
	Start booktree.Path `json:"start"`
	End   booktree.Path `json:"end"`
	Text  string        `json:"text"`
}

// Range returns the selection as a closed highlight range.
func (s Selection) Range() booktree.Range {
	return booktree.Range{Start: s.Start, End: s.End}
}

// MapSelection translates both ends of sel and orders them. It fails when
// either end does not resolve.
func MapSelection(t *Translator, sel RenderSelection) (Selection, bool) {
	start, ok := t.ToPath(sel.Start)
	if !ok {
		return Selection{}, false
	}
	end, ok := t.ToPath(sel.End)
	if !ok {
		return Selection{}, false
	}
	if end.Less(start) {
		start, end = end, start
	}
	return Selection{Start: start, End: end, Text: sel.Text}, true
}
