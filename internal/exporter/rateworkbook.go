package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"zonesheet/internal/derived"
	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

// Rate workbook text.
const (
	ZonesTitle      = "Destination Zones"
	ZonesNote       = "Zones should be a number from 1 to 16"
	DefaultRateNote = "Rates are specified in ($) CAD: 2025"
	WeightHeader    = "Weight (lb)"

	maxSheetName = 31
)

// RateWorkbookOptions controls WriteRateWorkbook.
type RateWorkbookOptions struct {
	// Zones, when non-empty, become a leading Zones sheet.
	Zones []domain.RateSheetRow
	// Note is row 2 of every service sheet.
	Note string
}

// SheetName truncates a service name to the spreadsheet limit.
func SheetName(service string) string {
	if r := []rune(service); len(r) > maxSheetName {
		return string(r[:maxSheetName])
	}
	return service
}

// WriteRateWorkbook writes one sheet per service of book, rows weights and
// columns "Zone 1" to "Zone 16", preceded by a Zones sheet when opts.Zones
// is set.
func WriteRateWorkbook(path string, book *derived.RateBook, opts RateWorkbookOptions) error {
	services := book.Services()
	if len(services) == 0 && len(opts.Zones) == 0 {
		return apperrors.NewValidationError("nothing to write: no rate tables and no zones")
	}
	if opts.Note == "" {
		opts.Note = DefaultRateNote
	}

	f := excelize.NewFile()
	defer f.Close()

	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return apperrors.NewStorageError("failed to create title style", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return apperrors.NewStorageError("failed to create header style", err)
	}

	if len(opts.Zones) > 0 {
		if err := writeZonesSheet(f, opts.Zones, title, bold); err != nil {
			return apperrors.NewStorageError("failed to write zones sheet", err)
		}
	}
	for _, service := range services {
		table, _ := book.Table(service)
		if err := writeServiceSheet(f, table, opts.Note, title, bold); err != nil {
			return apperrors.NewStorageError("failed to write service sheet", err).WithContext("service", service)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return apperrors.NewStorageError("failed to remove default sheet", err)
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create output directory", err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save rate workbook", err).WithContext("file", path)
	}
	return nil
}

func writeZonesSheet(f *excelize.File, rows []domain.RateSheetRow, title, bold int) error {
	if _, err := f.NewSheet(ZonesSheet); err != nil {
		return err
	}
	if err := f.SetCellValue(ZonesSheet, "A1", ZonesTitle); err != nil {
		return err
	}
	if err := f.SetCellStyle(ZonesSheet, "A1", "A1", title); err != nil {
		return err
	}
	if err := f.SetCellValue(ZonesSheet, "A2", ZonesNote); err != nil {
		return err
	}

	header := make([]interface{}, len(ZonesHeaders))
	for i, h := range ZonesHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(ZonesSheet, "A3", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(ZonesSheet, "A3", "F3", bold); err != nil {
		return err
	}

	for col, width := range map[string]float64{"A": 15, "B": 15, "C": 8, "D": 15, "E": 18, "F": 18} {
		if err := f.SetColWidth(ZonesSheet, col, col, width); err != nil {
			return err
		}
	}
	return WriteZonesRows(f, ZonesSheet, rows)
}

func writeServiceSheet(f *excelize.File, table *derived.RateTable, note string, title, bold int) error {
	sheet := SheetName(table.Service)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", table.Service); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", title); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A2", note); err != nil {
		return err
	}

	header := []interface{}{WeightHeader}
	for z := derived.MinRateZone; z <= derived.MaxRateZone; z++ {
		header = append(header, fmt.Sprintf("Zone %d", z))
	}
	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 3)
	if err := f.SetCellStyle(sheet, "A3", last, bold); err != nil {
		return err
	}

	lo, hi := 1, derived.MaxPackageWeight
	if table.Freight {
		lo, hi = derived.MinFreightWeight, derived.MaxFreightWeight
	}

	row := 4
	for _, w := range table.Weights() {
		if w < lo || w > hi {
			continue
		}
		values := []interface{}{w}
		for z := derived.MinRateZone; z <= derived.MaxRateZone; z++ {
			if m, ok := table.Lookup(w, z); ok {
				values = append(values, m.Float())
			} else {
				values = append(values, nil)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		row++
	}

	if err := f.SetColWidth(sheet, "A", "A", 12); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "Q", 10)
}
