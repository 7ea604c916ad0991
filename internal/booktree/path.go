package booktree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned when a textual path has a non-numeric component.
var ErrInvalidPath = errors.New("invalid path")

// Path locates a node in a book: one child index per tree depth.
// Lexicographic order over paths is document order.
type Path []int

// Compare returns -1, 0 or 1. A path orders before every path it is a prefix of.
func Compare(a, b Path) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Less reports whether p comes before other in document order.
func (p Path) Less(other Path) bool {
	return Compare(p, other) < 0
}

// Equal reports whether p and other address the same node.
func (p Path) Equal(other Path) bool {
	return Compare(p, other) == 0
}

// IsPrefixOf reports whether p is a strict ancestor of other.
func (p Path) IsPrefixOf(other Path) bool {
	if len(p) >= len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Append returns a new path extended by idx. The receiver is never aliased,
// so sibling recursions can share a parent path safely.
func (p Path) Append(idx ...int) Path {
	out := make(Path, len(p), len(p)+len(idx))
	copy(out, p)
	return append(out, idx...)
}

// Clone returns a copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// String joins components with hyphens: [2 0 1] -> "2-0-1".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, "-")
}

// MarshalText encodes the path in its hyphenated form.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses the hyphenated form.
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := ParsePath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePath parses "2-0-1". The empty string is the root path.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, "-")
	path := make(Path, len(parts))
	for i, part := range parts {
		n, err := ParseComponent(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, s)
		}
		path[i] = n
	}
	return path, nil
}

// ParseComponent parses a single base-10 path component. Signs, spaces and
// empty strings are rejected.
func ParseComponent(s string) (int, error) {
	if s == "" {
		return 0, ErrInvalidPath
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidPath
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidPath
	}
	return n, nil
}

// Range is a span of the book in structural coordinates. A nil End runs to
// the end of the book.
type Range struct {
	Start Path `json:"start"`
	End   Path `json:"end,omitempty"`
}

// Open reports whether the range runs to the end of the book.
func (r Range) Open() bool {
	return r.End == nil
}
