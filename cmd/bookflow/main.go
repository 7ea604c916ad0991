// Command bookflow parses a book file and prints its rendering or translates
// coordinates in it, as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/bookflow/internal/address"
	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/dgallion1/bookflow/internal/layout"
	"github.com/dgallion1/bookflow/internal/parser"
	"github.com/dgallion1/bookflow/internal/toc"
)

// CLI defines the command-line interface for bookflow.
var CLI struct {
	Verbose bool `short:"v" help:"Log parsing details to stderr"`

	Render  RenderCmd  `cmd:"" help:"Flatten a book into render blocks"`
	Locate  LocateCmd  `cmd:"" help:"Translate a structural path into a block address"`
	Resolve ResolveCmd `cmd:"" help:"Translate a block address into a structural path"`
	TOC     TOCCmd     `cmd:"" name:"toc" help:"Print the table of contents"`
	Images  ImagesCmd  `cmd:"" help:"List images a book references but does not embed"`
}

// RenderCmd prints the blocks and their paths.
type RenderCmd struct {
	File          string   `arg:"" help:"Book file" type:"existingfile"`
	Highlight     []string `short:"H" help:"Highlight as START:END:COLOR; an empty END runs to the end of the book"`
	FontSize      float64  `default:"24" help:"Base font size"`
	RefColor      string   `default:"#2a6df4" help:"Reference link color"`
	RefHoverColor string   `default:"#174bb8" help:"Reference link hover color"`
}

// LocateCmd prints the block address of a structural path.
type LocateCmd struct {
	File string `arg:"" help:"Book file" type:"existingfile"`
	Path string `arg:"" help:"Structural path, e.g. 2-0-1"`
}

// ResolveCmd prints the structural path of a block address.
type ResolveCmd struct {
	File    string `arg:"" help:"Book file" type:"existingfile"`
	Address string `arg:"" help:"Block address, e.g. 4 or 4-12"`
}

// TOCCmd prints the headings of a book.
type TOCCmd struct {
	File         string `arg:"" help:"Book file" type:"existingfile"`
	ExcerptWords int    `default:"30" help:"Maximum words per section excerpt"`
}

// ImagesCmd prints unresolved image ids.
type ImagesCmd struct {
	File string `arg:"" help:"Book file" type:"existingfile"`
}

func (c *RenderCmd) Run(log *slog.Logger) error { return c.run(os.Stdout, log) }

func (c *RenderCmd) run(w io.Writer, log *slog.Logger) error {
	book, err := loadBook(c.File, log)
	if err != nil {
		return err
	}
	hs := make([]layout.Highlight, 0, len(c.Highlight))
	for _, raw := range c.Highlight {
		h, err := parseHighlight(raw)
		if err != nil {
			return err
		}
		hs = append(hs, h)
	}
	l := layout.Build(book, layout.Env{
		FontSize:      c.FontSize,
		RefColor:      c.RefColor,
		RefHoverColor: c.RefHoverColor,
		Highlights:    hs,
	})
	entries := make([]layout.Entry, len(l.Blocks))
	for i := range l.Blocks {
		entries[i] = layout.Entry{Block: l.Blocks[i], Path: l.Paths[i]}
	}
	return writeJSON(w, map[string]any{
		"title":  book.Title,
		"blocks": entries,
	})
}

func (c *LocateCmd) Run(log *slog.Logger) error { return c.run(os.Stdout, log) }

func (c *LocateCmd) run(w io.Writer, log *slog.Logger) error {
	path, err := booktree.ParsePath(c.Path)
	if err != nil {
		return err
	}
	tr, err := loadTranslator(c.File, log)
	if err != nil {
		return err
	}
	addr, ok := tr.ToAddress(path)
	if !ok {
		return fmt.Errorf("path %q is not rendered", c.Path)
	}
	return writeJSON(w, map[string]any{
		"path":       path,
		"address":    addr,
		"element_id": address.ElementID(addr),
	})
}

func (c *ResolveCmd) Run(log *slog.Logger) error { return c.run(os.Stdout, log) }

func (c *ResolveCmd) run(w io.Writer, log *slog.Logger) error {
	addr, err := address.ParseAddress(strings.TrimPrefix(c.Address, address.ElementPrefix))
	if err != nil {
		return err
	}
	tr, err := loadTranslator(c.File, log)
	if err != nil {
		return err
	}
	path, ok := tr.ToPath(addr)
	if !ok {
		return fmt.Errorf("address %s is out of range (%d blocks)", addr, tr.Len())
	}
	return writeJSON(w, map[string]any{
		"address": addr,
		"path":    path,
	})
}

func (c *TOCCmd) Run(log *slog.Logger) error { return c.run(os.Stdout, log) }

func (c *TOCCmd) run(w io.Writer, log *slog.Logger) error {
	book, err := loadBook(c.File, log)
	if err != nil {
		return err
	}
	cfg := toc.DefaultConfig()
	cfg.ExcerptWords = c.ExcerptWords
	entries := toc.Build(book, cfg)
	if entries == nil {
		entries = []toc.Entry{}
	}
	return writeJSON(w, map[string]any{
		"title":   book.Title,
		"entries": entries,
	})
}

func (c *ImagesCmd) Run(log *slog.Logger) error { return c.run(os.Stdout, log) }

func (c *ImagesCmd) run(w io.Writer, log *slog.Logger) error {
	book, err := loadBook(c.File, log)
	if err != nil {
		return err
	}
	missing := booktree.MissingImages(book)
	if missing == nil {
		missing = []string{}
	}
	return writeJSON(w, map[string]any{
		"embedded": len(book.Images),
		"missing":  missing,
	})
}

func loadBook(file string, log *slog.Logger) (*booktree.Book, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	book, err := parser.ParseFile(f, file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	log.Debug("parsed book", "file", file, "title", book.Title, "nodes", len(book.Nodes), "images", len(book.Images))
	return book, nil
}

func loadTranslator(file string, log *slog.Logger) (*address.Translator, error) {
	book, err := loadBook(file, log)
	if err != nil {
		return nil, err
	}
	l := layout.Build(book, layout.Env{})
	log.Debug("built path table", "blocks", len(l.Paths))
	return address.NewTranslator(l.Paths), nil
}

// parseHighlight parses START:END:COLOR.
func parseHighlight(raw string) (layout.Highlight, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[2] == "" {
		return layout.Highlight{}, fmt.Errorf("highlight %q: want START:END:COLOR", raw)
	}
	start, err := booktree.ParsePath(parts[0])
	if err != nil {
		return layout.Highlight{}, fmt.Errorf("highlight %q: %w", raw, err)
	}
	var end booktree.Path
	if parts[1] != "" {
		if end, err = booktree.ParsePath(parts[1]); err != nil {
			return layout.Highlight{}, fmt.Errorf("highlight %q: %w", raw, err)
		}
	}
	return layout.Highlight{
		Range: booktree.Range{Start: start, End: end},
		Color: parts[2],
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("bookflow"),
		kong.Description("Render books into blocks and translate between block addresses and structural paths"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level := slog.LevelWarn
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	err := ctx.Run(log)
	ctx.FatalIfErrorf(err)
}
