// Package richtext defines render blocks, the fragments inside them and the
// attribute range editor that overlays styles onto character windows.
package richtext

import (
	"encoding/json"
	"unicode/utf8"
)

// Fragment is one of Text, Image, List, Table or Rule.
type Fragment interface {
	// Length is the number of addressable positions the fragment occupies.
	Length() int
	fragment()
}

// Text is a styled run of characters. Offsets inside it count runes.
type Text struct {
	Text  string `json:"text"`
	Attrs Attrs  `json:"attrs"`
}

// Image is an atomic picture of length 1.
type Image struct {
	Src   string `json:"src"`
	Title string `json:"title,omitempty"`
}

// ListKind is either "ordered" or "unordered".
type ListKind string

const (
	Ordered   ListKind = "ordered"
	Unordered ListKind = "unordered"
)

// List holds one fragment sequence per item.
type List struct {
	Kind  ListKind     `json:"kind"`
	Items [][]Fragment `json:"items"`
}

// Table holds one fragment sequence per cell.
type Table struct {
	Rows [][][]Fragment `json:"rows"`
}

// Rule is a horizontal separator of length 0.
type Rule struct{}

func (f Text) Length() int  { return utf8.RuneCountInString(f.Text) }
func (f Image) Length() int { return 1 }
func (f Rule) Length() int  { return 0 }

func (f List) Length() int {
	n := 0
	for _, item := range f.Items {
		n += TotalLength(item)
	}
	return n
}

func (f Table) Length() int {
	n := 0
	for _, row := range f.Rows {
		for _, cell := range row {
			n += TotalLength(cell)
		}
	}
	return n
}

func (Text) fragment()  {}
func (Image) fragment() {}
func (List) fragment()  {}
func (Table) fragment() {}
func (Rule) fragment()  {}

// TotalLength sums Length over frags.
func TotalLength(frags []Fragment) int {
	n := 0
	for _, f := range frags {
		n += f.Length()
	}
	return n
}

// PlainText concatenates the text of every Text fragment, descending into
// lists and tables.
func PlainText(frags []Fragment) string {
	var buf []byte
	var walk func([]Fragment)
	walk = func(frags []Fragment) {
		for _, f := range frags {
			switch f := f.(type) {
			case Text:
				buf = append(buf, f.Text...)
			case List:
				for _, item := range f.Items {
					walk(item)
				}
			case Table:
				for _, row := range f.Rows {
					for _, cell := range row {
						walk(cell)
					}
				}
			}
		}
	}
	walk(frags)
	return string(buf)
}

// The JSON form of every fragment carries a "frag" discriminator.

func (f Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(struct {
		Frag string `json:"frag"`
		plain
	}{"text", plain(f)})
}

func (f Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return json.Marshal(struct {
		Frag string `json:"frag"`
		plain
	}{"image", plain(f)})
}

func (f List) MarshalJSON() ([]byte, error) {
	type plain List
	return json.Marshal(struct {
		Frag string `json:"frag"`
		plain
	}{"list", plain(f)})
}

func (f Table) MarshalJSON() ([]byte, error) {
	type plain Table
	return json.Marshal(struct {
		Frag string `json:"frag"`
		plain
	}{"table", plain(f)})
}

func (f Rule) MarshalJSON() ([]byte, error) {
	return []byte(`{"frag":"rule"}`), nil
}

// Block is one unit of the flattened rendering.
type Block struct {
	Indent    bool       `json:"indent,omitempty"`
	Center    bool       `json:"center,omitempty"`
	Margin    float64    `json:"margin,omitempty"` // in em; zero means unset
	Fragments []Fragment `json:"fragments"`
}

// Len is the total addressable length of the block.
func (b Block) Len() int {
	return TotalLength(b.Fragments)
}
