package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/bookflow/internal/booktree"
)

// CSVParser handles CSV files. Rows are grouped into tables of at most 20
// rows, each repeating the header row.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*booktree.Book, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	book := &booktree.Book{
		Title: baseTitle(filename),
	}

	if len(records) == 0 {
		return book, nil
	}

	headers := records[0]

	const batchSize = 20
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += batchSize {
		end := min(i+batchSize, len(dataRows))
		batch := dataRows[i:end]

		table := &booktree.Table{Rows: [][]booktree.Span{cellSpans(headers)}}
		for _, row := range batch {
			table.Rows = append(table.Rows, cellSpans(row))
		}

		book.Nodes = append(book.Nodes,
			&booktree.Title{Lines: []string{fmt.Sprintf("Rows %d-%d", i+2, end+1)}, Level: 2}, // 1-indexed, skip header
			table,
		)
	}

	return book, nil
}

func cellSpans(row []string) []booktree.Span {
	out := make([]booktree.Span, len(row))
	for i, cell := range row {
		out[i] = booktree.Text(cell)
	}
	return out
}
