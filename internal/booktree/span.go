package booktree

import "strings"

// Span is one of the closed set of inline variants declared in this package:
// Text, Compound, *Attributed, *Ref, *ImageRef and *Semantic.
type Span interface {
	span()
}

// Text is a run of plain text.
type Text string

// Compound is a sequence of spans.
type Compound []Span

// AttrName is an inline style marker.
type AttrName string

const (
	AttrItalic    AttrName = "italic"
	AttrBold      AttrName = "bold"
	AttrUnderline AttrName = "underline"
	AttrStrike    AttrName = "strike"
	AttrSup       AttrName = "sup"
	AttrSub       AttrName = "sub"
	AttrCode      AttrName = "code"
)

// Attributed applies a style marker to its content.
type Attributed struct {
	Span Span
	Attr AttrName
}

// Ref links its content to the node carrying Target as its anchor id.
type Ref struct {
	Span   Span
	Target string
}

// ImageRef is an inline image resolved through the book's image dictionary.
type ImageRef struct {
	ID string
}

// Semantic wraps content with a meaning the renderer does not style.
type Semantic struct {
	Span Span
	Kind string
}

func (Text) span()        {}
func (Compound) span()    {}
func (*Attributed) span() {}
func (*Ref) span()        {}
func (*ImageRef) span()   {}
func (*Semantic) span()   {}

// Italic wraps s in an italic marker.
func Italic(s Span) *Attributed { return &Attributed{Span: s, Attr: AttrItalic} }

// Bold wraps s in a bold marker.
func Bold(s Span) *Attributed { return &Attributed{Span: s, Attr: AttrBold} }

// PlainText returns the text content of a span, ignoring markup and images.
func PlainText(s Span) string {
	var sb strings.Builder
	writeText(&sb, s)
	return sb.String()
}

func writeText(sb *strings.Builder, s Span) {
	switch s := s.(type) {
	case Text:
		sb.WriteString(string(s))
	case Compound:
		for _, c := range s {
			writeText(sb, c)
		}
	case *Attributed:
		writeText(sb, s.Span)
	case *Ref:
		writeText(sb, s.Span)
	case *Semantic:
		writeText(sb, s.Span)
	}
}

// Simplify collapses nested compounds and drops empty text runs. A compound
// of a single span becomes that span.
func Simplify(spans []Span) Span {
	var out Compound
	for _, s := range spans {
		switch s := s.(type) {
		case nil:
		case Text:
			if s != "" {
				out = append(out, s)
			}
		case Compound:
			if inner := Simplify(s); inner != nil {
				if c, ok := inner.(Compound); ok {
					out = append(out, c...)
				} else {
					out = append(out, inner)
				}
			}
		default:
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}
