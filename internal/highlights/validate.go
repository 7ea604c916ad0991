package highlights

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/bookflow/internal/layout"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid highlight")

var colorPattern = regexp.MustCompile(
	`^(#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})|` +
		`rgba?\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*(,\s*(0|1|0?\.\d+)\s*)?\)|` +
		`[a-zA-Z]{3,20})$`,
)

// Validate checks that h can be stored and rendered. Colors are CSS hex,
// rgb()/rgba() or named colors; anything else could break out of a style
// attribute in a presentation layer.
func Validate(h layout.Highlight) error {
	color := strings.TrimSpace(h.Color)
	if color == "" {
		return fmt.Errorf("%w: color is required", ErrInvalid)
	}
	if !colorPattern.MatchString(color) {
		return fmt.Errorf("%w: unsupported color %q", ErrInvalid, h.Color)
	}
	if len(h.Range.Start) > 64 || len(h.Range.End) > 64 {
		return fmt.Errorf("%w: path too deep", ErrInvalid)
	}
	if !h.Range.Open() && h.Range.End.Less(h.Range.Start) {
		return fmt.Errorf("%w: end %s precedes start %s", ErrInvalid, h.Range.End, h.Range.Start)
	}
	return nil
}
