package richtext

// Color is any CSS color value.
type Color = string

// Attrs is a sparse set of style attributes. Zero values mean "not set".
type Attrs struct {
	Color         Color   `json:"color,omitempty"`
	HoverColor    Color   `json:"hoverColor,omitempty"`
	Background    Color   `json:"background,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty"`
	FontFamily    string  `json:"fontFamily,omitempty"`
	DropCaps      bool    `json:"dropCaps,omitempty"`
	Italic        bool    `json:"italic,omitempty"`
	Bold          bool    `json:"bold,omitempty"`
	Underline     bool    `json:"underline,omitempty"`
	Strike        bool    `json:"strike,omitempty"`
	Superscript   bool    `json:"superscript,omitempty"`
	Subscript     bool    `json:"subscript,omitempty"`
	LetterSpacing float64 `json:"letterSpacing,omitempty"`
	Ref           string  `json:"ref,omitempty"`
}

// Merge returns a copy of a overridden by every attribute set in over.
func (a Attrs) Merge(over Attrs) Attrs {
	if over.Color != "" {
		a.Color = over.Color
	}
	if over.HoverColor != "" {
		a.HoverColor = over.HoverColor
	}
	if over.Background != "" {
		a.Background = over.Background
	}
	if over.FontSize != 0 {
		a.FontSize = over.FontSize
	}
	if over.FontFamily != "" {
		a.FontFamily = over.FontFamily
	}
	if over.LetterSpacing != 0 {
		a.LetterSpacing = over.LetterSpacing
	}
	if over.Ref != "" {
		a.Ref = over.Ref
	}
	a.DropCaps = a.DropCaps || over.DropCaps
	a.Italic = a.Italic || over.Italic
	a.Bold = a.Bold || over.Bold
	a.Underline = a.Underline || over.Underline
	a.Strike = a.Strike || over.Strike
	a.Superscript = a.Superscript || over.Superscript
	a.Subscript = a.Subscript || over.Subscript
	return a
}

// IsZero reports whether no attribute is set.
func (a Attrs) IsZero() bool {
	return a == Attrs{}
}
