package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"zonesheet/internal/classify"
	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

// Zone table columns, on row 1 of the Zones sheet.
const (
	HeaderStart = "Start Postal Code"
	HeaderEnd   = "End Postal Code"
	HeaderZone  = "Zone"
)

// ZoneTableHeaders are the zone table columns in order.
var ZoneTableHeaders = []string{HeaderStart, HeaderEnd, HeaderZone}

// ZoneTableName returns the file name of an origin's zone table.
func ZoneTableName(ix *zoning.OriginZoneIndex) string {
	return string(ix.GroupKey()) + ".xlsx"
}

// WriteZoneTable writes ix to dir as "<group key>.xlsx" with one row per
// range. Postal codes are stored as text in canonical form.
func WriteZoneTable(dir string, ix *zoning.OriginZoneIndex) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ZonesSheet); err != nil {
		return "", apperrors.NewStorageError("failed to name zone sheet", err)
	}
	style, err := f.NewStyle(&excelize.Style{NumFmt: textFormat})
	if err != nil {
		return "", apperrors.NewStorageError("failed to create text style", err)
	}
	if err := f.SetColStyle(ZonesSheet, "A:B", style); err != nil {
		return "", apperrors.NewStorageError("failed to style postal code columns", err)
	}

	header := []interface{}{HeaderStart, HeaderEnd, HeaderZone}
	if err := f.SetSheetRow(ZonesSheet, "A1", &header); err != nil {
		return "", apperrors.NewStorageError("failed to write header", err)
	}

	scheme := ix.Scheme()
	for i, r := range ix.Ranges() {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{scheme.Format(r.Start), scheme.Format(r.End), string(r.Zone)}
		if err := f.SetSheetRow(ZonesSheet, cell, &values); err != nil {
			return "", apperrors.NewStorageError(fmt.Sprintf("failed to write row %d", i+2), err)
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create zone table directory", err).WithContext("dir", dir)
	}
	path := filepath.Join(dir, ZoneTableName(ix))
	if err := f.SaveAs(path); err != nil {
		return "", apperrors.NewStorageError("failed to save zone table", err).WithContext("file", path)
	}
	return path, nil
}

// ReadZoneTable reads a zone table back as single-range candidates so it can
// be rebuilt through the normal pipeline. The Zones sheet is used when
// present, otherwise the first sheet.
func ReadZoneTable(path string) ([]classify.Candidate, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open zone table", err).WithContext("file", path)
	}
	defer f.Close()

	sheet := ZonesSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read zone table", err).WithContext("file", path)
	}

	name := filepath.Base(path)
	if len(rows) == 0 {
		return nil, apperrors.NewSchemaError(name, ZoneTableHeaders...)
	}
	col := headerIndex(rows[0])
	var missing []string
	for _, h := range ZoneTableHeaders {
		if _, ok := col[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(name, missing...)
	}

	cell := func(row []string, h string) string {
		if i := col[h]; i < len(row) {
			return trimCell(row[i])
		}
		return ""
	}

	var cands []classify.Candidate
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		cands = append(cands, classify.Candidate{
			Layout: classify.LayoutSingleRange,
			Start:  cell(row, HeaderStart),
			End:    cell(row, HeaderEnd),
			Zone:   cell(row, HeaderZone),
			Source: sourceFor(name, i+2),
		})
	}
	return cands, nil
}

func trimCell(s string) string {
	return strings.TrimSpace(s)
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if trimCell(c) != "" {
			return false
		}
	}
	return true
}

func sourceFor(document string, row int) domain.Source {
	return domain.Source{Document: document, Page: 1, Row: row}
}
