package ratesheet

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/exporter"
)

var paddedZoneHeader = regexp.MustCompile(`^Zone 0(\d)$`)

// dedupColumns are the Zones tab headers that identify a duplicate row.
var dedupColumns = []string{"Country Symbol", "Zone", "Zones", "Start Postal Code", "End Postal Code"}

// FixReport counts the changes made to one rate sheet.
type FixReport struct {
	File              string `json:"file"`
	HeaderFixes       int    `json:"header_fixes"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
}

// Fixer cleans generated rate sheets: "Zone 0X" rate headers become
// "Zone X" and duplicate Zones rows are removed.
type Fixer struct {
	logger *slog.Logger
}

// NewFixer creates a fixer.
func NewFixer(logger *slog.Logger) *Fixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fixer{logger: logger.With(slog.String("component", "sheetfix"))}
}

// Fix applies both passes to f in place.
func (x *Fixer) Fix(f *excelize.File) (FixReport, error) {
	var report FixReport
	for _, sheet := range f.GetSheetList() {
		if sheet == exporter.ZonesSheet {
			continue
		}
		n, err := fixZoneHeaders(f, sheet)
		if err != nil {
			return report, err
		}
		report.HeaderFixes += n
	}

	n, err := dedupeZones(f)
	if err != nil {
		return report, err
	}
	report.DuplicatesRemoved = n
	return report, nil
}

// FixFile fixes the workbook at path and saves the result under outDir with
// the same name. The original is left in place.
func (x *Fixer) FixFile(path, outDir string) (FixReport, error) {
	name := filepath.Base(path)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return FixReport{File: name}, apperrors.NewStorageError("failed to open rate sheet", err).WithContext("file", path)
	}
	defer f.Close()

	report, err := x.Fix(f)
	report.File = name
	if err != nil {
		return report, apperrors.NewParsingError("failed to fix rate sheet", err).WithContext("file", path)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return report, apperrors.NewStorageError("failed to create directory", err).WithContext("dir", outDir)
	}
	out := filepath.Join(outDir, name)
	if err := f.SaveAs(out); err != nil {
		return report, apperrors.NewStorageError("failed to save cleaned rate sheet", err).WithContext("file", out)
	}

	x.logger.Info("rate sheet fixed",
		slog.String("file", name),
		slog.Int("header_fixes", report.HeaderFixes),
		slog.Int("duplicates_removed", report.DuplicatesRemoved))
	return report, nil
}

func fixZoneHeaders(f *excelize.File, sheet string) (int, error) {
	fixes := 0
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, err
	}
	if len(rows) < exporter.ZonesHeaderRow {
		return 0, nil
	}
	for i, v := range rows[exporter.ZonesHeaderRow-1] {
		m := paddedZoneHeader.FindStringSubmatch(v)
		if m == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, exporter.ZonesHeaderRow)
		if err != nil {
			return fixes, err
		}
		if err := f.SetCellValue(sheet, cell, "Zone "+m[1]); err != nil {
			return fixes, err
		}
		fixes++
	}
	return fixes, nil
}

// dedupeZones removes Zones rows repeating an earlier row's dedup columns,
// keeping the first. Rows are removed bottom up so earlier row numbers stay
// valid.
func dedupeZones(f *excelize.File) (int, error) {
	if idx, err := f.GetSheetIndex(exporter.ZonesSheet); err != nil || idx < 0 {
		return 0, nil
	}
	rows, err := f.GetRows(exporter.ZonesSheet)
	if err != nil {
		return 0, err
	}
	if len(rows) < exporter.ZonesFirstRow {
		return 0, nil
	}

	var cols []int
	for i, h := range rows[exporter.ZonesHeaderRow-1] {
		for _, name := range dedupColumns {
			if strings.TrimSpace(h) == name {
				cols = append(cols, i)
			}
		}
	}
	if len(cols) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool)
	var dups []int
	for i := exporter.ZonesFirstRow - 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		key := rowKey(row, cols)
		if seen[key] {
			dups = append(dups, i+1)
			continue
		}
		seen[key] = true
	}

	for j := len(dups) - 1; j >= 0; j-- {
		if err := f.RemoveRow(exporter.ZonesSheet, dups[j]); err != nil {
			return len(dups) - 1 - j, fmt.Errorf("failed to remove row %d: %w", dups[j], err)
		}
	}
	return len(dups), nil
}

func rowKey(row []string, cols []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		if c < len(row) {
			parts[i] = strings.TrimSpace(row[c])
		}
	}
	return strings.Join(parts, "\x1f")
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
