package extract

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

const formFeed = '\f'

// maxLine bounds a single text line.
const maxLine = 1 << 20

// TextSource reads a plain-text rendering of a document.
type TextSource struct {
	Path string
}

// Name implements Source.
func (s TextSource) Name() string {
	return filepath.Base(s.Path)
}

// Extract implements Source.
func (s TextSource) Extract(ctx context.Context) (domain.Document, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return domain.Document{Name: s.Name()}, apperrors.NewStorageError("failed to open text document", err).
			WithContext("file", s.Path)
	}
	defer f.Close()
	return ParseText(ctx, s.Name(), f)
}

// ParseText splits r into pages on form feeds and each line into cells on
// whitespace. Blank lines are dropped but row numbers keep counting them,
// so provenance points at the original line.
func ParseText(ctx context.Context, name string, r io.Reader) (domain.Document, error) {
	doc := domain.Document{Name: name}
	page := domain.Page{Number: 1}
	line := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		text := scanner.Text()
		for {
			i := strings.IndexRune(text, formFeed)
			if i < 0 {
				break
			}
			page.Rows = appendLine(page.Rows, text[:i], name, page.Number, line+1)
			doc.Pages = append(doc.Pages, page)
			page = domain.Page{Number: page.Number + 1}
			line = 0
			text = text[i+1:]
		}
		line++
		page.Rows = appendLine(page.Rows, text, name, page.Number, line)

		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return doc, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return doc, apperrors.NewParsingError("failed to read text document", err).WithContext("file", name)
	}
	if len(page.Rows) > 0 || len(doc.Pages) == 0 {
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

func appendLine(rows []domain.Row, text, name string, page, line int) []domain.Row {
	cells := strings.Fields(text)
	if len(cells) == 0 {
		return rows
	}
	return append(rows, domain.Row{
		Cells:  cells,
		Source: domain.Source{Document: name, Page: page, Row: line},
	})
}
