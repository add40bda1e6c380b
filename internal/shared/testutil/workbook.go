package testutil

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook saves a workbook with one sheet per entry of sheets, rows
// starting at A1, and returns its path. Sheets are created in name order.
func WriteWorkbook(t *testing.T, dir, name string, sheets map[string][][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	names := make([]string, 0, len(sheets))
	for sheet := range sheets {
		names = append(names, sheet)
	}
	slices.Sort(names)

	for i, sheet := range names {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet %s: %v", sheet, err)
		}
		for r, row := range sheets[sheet] {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			values := row
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				t.Fatalf("write row %d of %s: %v", r+1, sheet, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}
