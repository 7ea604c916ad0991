package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/bookflow/internal/booktree"
)

// TextParser handles plain text files. Blank lines separate paragraphs and a
// paragraph made only of asterisks is a scene break.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*booktree.Book, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	book := &booktree.Book{
		Title: baseTitle(filename),
	}

	for _, para := range paragraphs {
		if isSceneBreak(para) {
			book.Nodes = append(book.Nodes, &booktree.Separator{})
			continue
		}
		book.Nodes = append(book.Nodes, booktree.Para(para))
	}

	return book, nil
}

func isSceneBreak(s string) bool {
	s = strings.ReplaceAll(s, " ", "")
	return len(s) >= 3 && strings.Trim(s, "*") == ""
}
