package toc

import (
	"strings"
	"testing"

	"github.com/dgallion1/bookflow/internal/booktree"
)

func TestBuild_ChaptersAndBreadcrumbs(t *testing.T) {
	book := &booktree.Book{
		Title: "Doc",
		Nodes: []booktree.Node{
			&booktree.Title{Lines: []string{"Doc"}, Level: 0},
			&booktree.Chapter{
				Title: []string{"Chapter 1"},
				Level: 1,
				Nodes: []booktree.Node{
					booktree.Para("Intro text for the first chapter."),
					&booktree.Chapter{
						Title: []string{"Section 1.1"},
						Level: 2,
						Nodes: []booktree.Node{booktree.Para(strings.Repeat("content ", 20))},
					},
				},
			},
		},
	}

	entries := Build(book, Config{ExcerptWords: 10, MinWords: 5})
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(entries), entries)
	}

	wantTitles := []string{"Doc", "Chapter 1", "Section 1.1"}
	wantPaths := []string{"0", "1", "1-1"}
	for i, e := range entries {
		if e.Title != wantTitles[i] {
			t.Errorf("entry %d: expected title %q, got %q", i, wantTitles[i], e.Title)
		}
		if e.Path.String() != wantPaths[i] {
			t.Errorf("entry %d: expected path %s, got %s", i, wantPaths[i], e.Path)
		}
	}

	bc := entries[2].Breadcrumb
	if len(bc) != 1 || bc[0] != "Chapter 1" {
		t.Errorf("expected breadcrumb [Chapter 1], got %v", bc)
	}
	if entries[1].Breadcrumb != nil {
		t.Errorf("expected no breadcrumb for top-level chapter, got %v", entries[1].Breadcrumb)
	}
	if entries[1].Words != 26 {
		t.Errorf("expected chapter 1 to count 26 words, got %d", entries[1].Words)
	}
	if entries[1].Excerpt != "Intro text for the first chapter." {
		t.Errorf("unexpected excerpt %q", entries[1].Excerpt)
	}
}

func TestBuild_TitleSections(t *testing.T) {
	book := &booktree.Book{Nodes: []booktree.Node{
		&booktree.Title{Lines: []string{"A"}, Level: 1},
		booktree.Para(strings.Repeat("alpha ", 10)),
		&booktree.Title{Lines: []string{"epigraph"}, Level: -1},
		&booktree.Title{Lines: []string{"B"}, Level: 1},
		booktree.Para("beta"),
	}}

	entries := Build(book, DefaultConfig())
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "A" || entries[0].Words != 10 {
		t.Errorf("entry 0: got %+v", entries[0])
	}
	if entries[1].Title != "B" || entries[1].Words != 1 {
		t.Errorf("entry 1: got %+v", entries[1])
	}
	if entries[1].Excerpt != "" {
		t.Errorf("expected no excerpt below MinWords, got %q", entries[1].Excerpt)
	}
}

func TestBuild_SkipsFootnotes(t *testing.T) {
	book := &booktree.Book{Nodes: []booktree.Node{
		&booktree.Chapter{Title: []string{"One"}, Level: 1, Nodes: []booktree.Node{
			booktree.Para("body words here"),
		}},
		&booktree.Group{
			Footnote: &booktree.Footnote{ID: "n1", Title: []string{"1"}},
			Nodes: []booktree.Node{
				&booktree.Title{Lines: []string{"Note heading"}, Level: 1},
				booktree.Para("note"),
			},
		},
		&booktree.Group{Nodes: []booktree.Node{
			&booktree.Title{Lines: []string{"Inside"}, Level: 1},
		}},
	}}

	entries := Build(book, Config{})
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[1].Title != "Inside" || entries[1].Path.String() != "2-0" {
		t.Errorf("expected plain group title at 2-0, got %+v", entries[1])
	}
}

func TestBuild_EmptyBook(t *testing.T) {
	if entries := Build(&booktree.Book{}, DefaultConfig()); len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}

func TestExcerpt(t *testing.T) {
	text := "First sentence here. Second one follows! Third is long enough to overflow."
	if got := Excerpt(text, 7); got != "First sentence here. Second one follows!" {
		t.Errorf("unexpected excerpt %q", got)
	}
	if got := Excerpt(text, 2); got != "First sentence…" {
		t.Errorf("unexpected truncated excerpt %q", got)
	}
	if got := Excerpt("", 10); got != "" {
		t.Errorf("expected empty excerpt, got %q", got)
	}
}
