package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"zonesheet/pkg/contracts/domain"
)

// Zones tab layout shared by rate sheets and rate workbooks: a title, a
// note, headers on row 3 and data from row 4.
const (
	ZonesSheet     = "Zones"
	ZonesHeaderRow = 3
	ZonesFirstRow  = 4
)

// ZonesHeaders are the Zones tab columns.
var ZonesHeaders = []string{"Country Name", "Country Symbol", "Zone", "City", "Start Postal Code", "End Postal Code"}

// textFormat is the built-in "@" number format, which keeps leading zeros.
const textFormat = 49

// WriteZonesRows writes rows into sheet starting at ZonesFirstRow. Postal
// code columns are formatted as text.
func WriteZonesRows(f *excelize.File, sheet string, rows []domain.RateSheetRow) error {
	style, err := f.NewStyle(&excelize.Style{NumFmt: textFormat})
	if err != nil {
		return fmt.Errorf("failed to create text style: %w", err)
	}
	if err := f.SetColStyle(sheet, "E:F", style); err != nil {
		return fmt.Errorf("failed to style postal code columns: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, ZonesFirstRow+i)
		if err != nil {
			return err
		}
		values := []interface{}{r.CountryName, r.CountrySymbol, string(r.Zone), r.City, r.Start, r.End}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", ZonesFirstRow+i, err)
		}
	}
	return nil
}

// ReadZonesRows reads the data rows of a Zones tab, locating columns by the
// headers on ZonesHeaderRow. Blank rows are skipped.
func ReadZonesRows(f *excelize.File, sheet string) ([]domain.RateSheetRow, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) < ZonesHeaderRow {
		return nil, nil
	}
	col := headerIndex(rows[ZonesHeaderRow-1])
	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []domain.RateSheetRow
	for _, row := range rows[ZonesFirstRow-1:] {
		if isBlankRow(row) {
			continue
		}
		zone := get(row, "Zone")
		if zone == "" {
			zone = get(row, "Zones")
		}
		out = append(out, domain.RateSheetRow{
			CountryName:   get(row, "Country Name"),
			CountrySymbol: get(row, "Country Symbol"),
			Zone:          domain.Zone(zone),
			City:          get(row, "City"),
			Start:         get(row, "Start Postal Code"),
			End:           get(row, "End Postal Code"),
		})
	}
	return out, nil
}

// headerIndex maps trimmed header text to its column index.
func headerIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		if h = trimCell(h); h != "" {
			if _, dup := col[h]; !dup {
				col[h] = i
			}
		}
	}
	return col
}
