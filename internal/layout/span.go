package layout

import (
	"fmt"

	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/dgallion1/bookflow/internal/richtext"
)

// CompileSpan turns inline markup into a flat list of styled fragments.
// Unresolved image references compile to nothing.
func CompileSpan(s booktree.Span, env Env) []richtext.Fragment {
	switch s := s.(type) {
	case booktree.Text:
		return []richtext.Fragment{richtext.Text{Text: string(s)}}
	case booktree.Compound:
		var out []richtext.Fragment
		for _, child := range s {
			out = append(out, CompileSpan(child, env)...)
		}
		return out
	case *booktree.Attributed:
		inside := CompileSpan(s.Span, env)
		return richtext.ApplyRange(inside, richtext.From(0), attrsFor(s.Attr))
	case *booktree.Ref:
		inside := CompileSpan(s.Span, env)
		return richtext.ApplyRange(inside, richtext.From(0), richtext.Attrs{
			Ref:        s.Target,
			Color:      env.RefColor,
			HoverColor: env.RefHoverColor,
		})
	case *booktree.ImageRef:
		img, ok := env.Images[s.ID]
		if !ok {
			return nil
		}
		return []richtext.Fragment{richtext.Image{Src: img.Src, Title: img.Title}}
	case *booktree.Semantic:
		return CompileSpan(s.Span, env)
	default:
		panic(fmt.Sprintf("layout: unexpected span %T", s))
	}
}

func attrsFor(name booktree.AttrName) richtext.Attrs {
	switch name {
	case booktree.AttrItalic:
		return richtext.Attrs{Italic: true}
	case booktree.AttrBold:
		return richtext.Attrs{Bold: true}
	case booktree.AttrUnderline:
		return richtext.Attrs{Underline: true}
	case booktree.AttrStrike:
		return richtext.Attrs{Strike: true}
	case booktree.AttrSup:
		return richtext.Attrs{Superscript: true}
	case booktree.AttrSub:
		return richtext.Attrs{Subscript: true}
	case booktree.AttrCode:
		return richtext.Attrs{FontFamily: "monospace"}
	default:
		panic(fmt.Sprintf("layout: unexpected attribute %q", name))
	}
}
