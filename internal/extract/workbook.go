package extract

import (
	"context"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

// WorkbookSource reads a spreadsheet, one page per sheet.
type WorkbookSource struct {
	Path string
}

// Name implements Source.
func (s WorkbookSource) Name() string {
	return filepath.Base(s.Path)
}

// Extract implements Source.
func (s WorkbookSource) Extract(ctx context.Context) (domain.Document, error) {
	return OpenWorkbook(ctx, s.Path)
}

// OpenWorkbook reads every sheet of the workbook at path in sheet order.
// Cell text is taken as displayed, so leading zeros kept by a text format
// survive.
func OpenWorkbook(ctx context.Context, path string) (domain.Document, error) {
	doc := domain.Document{Name: filepath.Base(path)}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return doc, apperrors.NewStorageError("failed to open workbook", err).WithContext("file", path)
	}
	defer f.Close()

	for i, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return doc, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return doc, apperrors.NewParsingError("failed to read sheet", err).
				WithContext("file", path).WithContext("sheet", sheet)
		}

		page := domain.Page{Number: i + 1, Title: sheet, Rows: make([]domain.Row, 0, len(rows))}
		for r, cells := range rows {
			page.Rows = append(page.Rows, domain.Row{
				Cells:  cells,
				Source: domain.Source{Document: doc.Name, Page: i + 1, Row: r + 1},
			})
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}
