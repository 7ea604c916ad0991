// Package address maps between block addresses in the flattened rendering and
// structural paths in the book tree.
package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/bookflow/internal/booktree"
)

// NoOffset marks an address that refers to a whole block.
const NoOffset = -1

// ElementPrefix tags presentation elements that carry an address.
const ElementPrefix = "@id:"

// ErrInvalidAddress is returned for a textual address that does not parse.
var ErrInvalidAddress = errors.New("invalid address")

// BlockAddress is a position in the flattened rendering: a block index and
// an optional character offset inside it. Its JSON form is the textual one.
type BlockAddress struct {
	Block  int
	Offset int
}

// Whole addresses block b as a whole.
func Whole(b int) BlockAddress { return BlockAddress{Block: b, Offset: NoOffset} }

// At addresses a character offset inside block b.
func At(b, offset int) BlockAddress { return BlockAddress{Block: b, Offset: offset} }

// HasOffset reports whether a carries a character offset.
func (a BlockAddress) HasOffset() bool { return a.Offset != NoOffset }

// String renders "4" or "4-12".
func (a BlockAddress) String() string {
	if !a.HasOffset() {
		return strconv.Itoa(a.Block)
	}
	return strconv.Itoa(a.Block) + "-" + strconv.Itoa(a.Offset)
}

// MarshalText encodes the textual form.
func (a BlockAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the textual form.
func (a *BlockAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses "4" or "4-12". Every component must be digits only.
func ParseAddress(s string) (BlockAddress, error) {
	parts := strings.Split(s, "-")
	if len(parts) > 2 {
		return BlockAddress{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	block, err := booktree.ParseComponent(parts[0])
	if err != nil {
		return BlockAddress{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if len(parts) == 1 {
		return Whole(block), nil
	}
	offset, err := booktree.ParseComponent(parts[1])
	if err != nil {
		return BlockAddress{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return At(block, offset), nil
}

// ElementID renders the id a presentation layer attaches to the element
// showing a.
func ElementID(a BlockAddress) string {
	return ElementPrefix + a.String()
}

// ParseElementID reverses ElementID.
func ParseElementID(id string) (BlockAddress, error) {
	rest, ok := strings.CutPrefix(id, ElementPrefix)
	if !ok {
		return BlockAddress{}, fmt.Errorf("%w: %q", ErrInvalidAddress, id)
	}
	return ParseAddress(rest)
}
