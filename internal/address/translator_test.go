package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/dgallion1/bookflow/internal/layout"
)

func table() []booktree.Path {
	return []booktree.Path{{0}, {1}, {1, 0}, {1, 1}, {2}, {2, 0, 3}}
}

func TestTranslator_ToPath(t *testing.T) {
	tr := NewTranslator(table())

	p, ok := tr.ToPath(Whole(2))
	require.True(t, ok)
	assert.Equal(t, booktree.Path{1, 0}, p)

	p, ok = tr.ToPath(At(1, 5))
	require.True(t, ok)
	assert.Equal(t, booktree.Path{1, 5}, p)

	_, ok = tr.ToPath(Whole(6))
	assert.False(t, ok)
	_, ok = tr.ToPath(Whole(-1))
	assert.False(t, ok)
}

func TestTranslator_ToPathDoesNotAlias(t *testing.T) {
	paths := table()
	tr := NewTranslator(paths)
	paths[0][0] = 99

	p, ok := tr.ToPath(Whole(0))
	require.True(t, ok)
	assert.Equal(t, booktree.Path{0}, p)

	p[0] = 42
	again, _ := tr.ToPath(Whole(0))
	assert.Equal(t, booktree.Path{0}, again)
}

func TestTranslator_ToAddress(t *testing.T) {
	tr := NewTranslator(table())

	tests := []struct {
		name string
		path booktree.Path
		want BlockAddress
		ok   bool
	}{
		{"exact", booktree.Path{1, 1}, Whole(3), true},
		{"offset inside block", booktree.Path{2, 7}, At(4, 7), true},
		{"deep exact", booktree.Path{2, 0, 3}, Whole(5), true},
		{"root", booktree.Path{}, Whole(0), true},
		{"unknown", booktree.Path{9}, BlockAddress{}, false},
		{"two levels below", booktree.Path{2, 1, 1}, BlockAddress{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tr.ToAddress(tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// Any path one level below a block is read as an offset into that block, even
// when the block is a container and the extra component is a child index.
func TestTranslator_ToAddressApproximation(t *testing.T) {
	tr := NewTranslator(table())

	// [1, 0] is a block of its own and wins over the offset reading.
	got, ok := tr.ToAddress(booktree.Path{1, 0})
	require.True(t, ok)
	assert.Equal(t, Whole(2), got)

	// [1, 4] has no block; it becomes offset 4 into block [1].
	got, ok = tr.ToAddress(booktree.Path{1, 4})
	require.True(t, ok)
	assert.Equal(t, At(1, 4), got)
}

func TestTranslator_RoundTrip(t *testing.T) {
	paths := table()
	tr := NewTranslator(paths)
	for i, p := range paths {
		a, ok := tr.ToAddress(p)
		require.True(t, ok)
		assert.Equal(t, Whole(i), a)

		back, ok := tr.ToPath(a)
		require.True(t, ok)
		assert.Equal(t, p, back)
	}
}

// Offsets inside a block whose children are blocks too (chapter and footnote
// titles) come back as the child block, not the original address.
func TestTranslator_RoundTripThroughHeadingBlocks(t *testing.T) {
	book := &booktree.Book{Nodes: []booktree.Node{
		&booktree.Title{Lines: []string{"Book"}, Level: 0},
		&booktree.Chapter{ID: "c1", Title: []string{"One"}, Level: 1, Nodes: []booktree.Node{
			booktree.Para("Hello world"),
			booktree.Para("Bye"),
		}},
		&booktree.Group{
			Footnote: &booktree.Footnote{ID: "n1", Title: []string{"1"}},
			Nodes:    []booktree.Node{booktree.Para("Note")},
		},
	}}
	l := layout.Build(book, layout.Env{FontSize: 16})
	require.Equal(t, []booktree.Path{{0}, {1}, {1, 0}, {1, 1}, {2}, {2, 0}}, l.Paths)
	tr := NewTranslator(l.Paths)

	tests := []struct {
		addr BlockAddress
		path booktree.Path
		back BlockAddress
	}{
		{At(1, 0), booktree.Path{1, 0}, Whole(2)},
		{At(1, 1), booktree.Path{1, 1}, Whole(3)},
		{At(4, 0), booktree.Path{2, 0}, Whole(5)},
		// Past the last child the offset reading survives.
		{At(1, 2), booktree.Path{1, 2}, At(1, 2)},
		// Paragraph blocks have no block children and round-trip exactly.
		{At(2, 5), booktree.Path{1, 0, 5}, At(2, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.addr.String(), func(t *testing.T) {
			path, ok := tr.ToPath(tt.addr)
			require.True(t, ok)
			assert.Equal(t, tt.path, path)

			back, ok := tr.ToAddress(path)
			require.True(t, ok)
			assert.Equal(t, tt.back, back)
		})
	}
}

func TestTranslator_EmptyTable(t *testing.T) {
	tr := NewTranslator(nil)
	_, ok := tr.ToAddress(booktree.Path{})
	assert.False(t, ok)
	_, ok = tr.ToPath(Whole(0))
	assert.False(t, ok)
}

func TestMapSelection(t *testing.T) {
	tr := NewTranslator(table())

	sel, ok := MapSelection(tr, RenderSelection{Start: At(4, 2), End: At(1, 3), Text: "backwards"})
	require.True(t, ok)
	assert.Equal(t, booktree.Path{1, 3}, sel.Start)
	assert.Equal(t, booktree.Path{2, 2}, sel.End)
	assert.Equal(t, "backwards", sel.Text)
	assert.Equal(t, booktree.Range{Start: booktree.Path{1, 3}, End: booktree.Path{2, 2}}, sel.Range())

	sel, ok = MapSelection(tr, RenderSelection{Start: At(1, 1), End: Whole(2)})
	require.True(t, ok)
	assert.Equal(t, booktree.Path{1, 0}, sel.Start)
	assert.Equal(t, booktree.Path{1, 1}, sel.End)

	_, ok = MapSelection(tr, RenderSelection{Start: At(1, 1), End: Whole(40)})
	assert.False(t, ok)
	_, ok = MapSelection(tr, RenderSelection{Start: Whole(40), End: Whole(1)})
	assert.False(t, ok)
}
