package richtext

// ToEnd as a Window end means the window runs past the last fragment.
const ToEnd = -1

// Window is the half-open character interval [Start, End) of a fragment
// sequence.
type Window struct {
	Start int
	End   int
}

// From returns the open window starting at start.
func From(start int) Window {
	return Window{Start: start, End: ToEnd}
}

// Between returns the window [start, end).
func Between(start, end int) Window {
	return Window{Start: start, End: end}
}

// Bounded reports whether the window has an end.
func (w Window) Bounded() bool {
	return w.End != ToEnd
}

// Empty reports whether a bounded window covers nothing.
func (w Window) Empty() bool {
	return w.Bounded() && w.End <= w.Start
}

// ApplyRange merges attrs into the part of frags covered by w, splitting Text
// fragments at the window edges. Every fragment advances the running offset
// by its Length, but only Text fragments are restyled; images, lists, tables
// and rules pass through unchanged. The input is not modified.
func ApplyRange(frags []Fragment, w Window, attrs Attrs) []Fragment {
	result := make([]Fragment, 0, len(frags)+2)
	if w.Empty() {
		return append(result, frags...)
	}

	offset := 0
	for _, frag := range frags {
		fragStart := offset
		offset += frag.Length()

		text, ok := frag.(Text)
		if !ok {
			result = append(result, frag)
			continue
		}
		fragEnd := offset
		if fragEnd <= w.Start || (w.Bounded() && fragStart >= w.End) {
			result = append(result, text)
			continue
		}

		runes := []rune(text.Text)
		lo := max(w.Start-fragStart, 0)
		hi := len(runes)
		if w.Bounded() {
			hi = min(w.End-fragStart, hi)
		}

		if lo > 0 {
			result = append(result, Text{Text: string(runes[:lo]), Attrs: text.Attrs})
		}
		result = append(result, Text{Text: string(runes[lo:hi]), Attrs: text.Attrs.Merge(attrs)})
		if hi < len(runes) {
			result = append(result, Text{Text: string(runes[hi:]), Attrs: text.Attrs})
		}
	}
	return result
}
