package ratesheet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"zonesheet/internal/exporter"
	"zonesheet/pkg/contracts/domain"
)

func writeGeneratedSheet(t *testing.T, dir string) string {
	t.Helper()
	template := writeTemplate(t, true)
	w := NewWriter(template, dir, usMeta, nil)
	path, err := w.Write(SheetResult{SSL: "NYC1", Rows: []domain.RateSheetRow{
		{CountryName: "United States", CountrySymbol: "US", Zone: "2", Start: "00500", End: "00599"},
		{CountryName: "United States", CountrySymbol: "US", Zone: "3", Start: "00600", End: "00999"},
		{CountryName: "United States", CountrySymbol: "US", Zone: "2", Start: "00500", End: "00599", City: "Holtsville"},
		{CountryName: "United States", CountrySymbol: "US", Zone: "4", Start: "01000", End: "01999"},
		{CountryName: "United States", CountrySymbol: "US", Zone: "3", Start: "00600", End: "00999"},
	}})
	require.NoError(t, err)
	return path
}

func TestFixerFix(t *testing.T) {
	path := writeGeneratedSheet(t, t.TempDir())
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	report, err := NewFixer(nil).Fix(f)
	require.NoError(t, err)
	assert.Equal(t, 2, report.HeaderFixes, "Zone 02 and Zone 03, not Zone 10")
	assert.Equal(t, 2, report.DuplicatesRemoved)

	headers, err := f.GetRows("Ground")
	require.NoError(t, err)
	assert.Equal(t, []string{"Weight", "Zone 2", "Zone 3", "Zone 10"}, headers[2])

	rows, err := exporter.ReadZonesRows(f, exporter.ZonesSheet)
	require.NoError(t, err)
	var got [][2]string
	for _, r := range rows {
		got = append(got, [2]string{r.Start, string(r.Zone)})
	}
	assert.Equal(t, [][2]string{{"00500", "2"}, {"00600", "3"}, {"01000", "4"}}, got)

	again, err := NewFixer(nil).Fix(f)
	require.NoError(t, err)
	assert.Equal(t, FixReport{}, again, "fixing is idempotent")
}

func TestFixerFixFile(t *testing.T) {
	sheets := t.TempDir()
	path := writeGeneratedSheet(t, sheets)
	cleaned := filepath.Join(sheets, "cleaned")

	report, err := NewFixer(nil).FixFile(path, cleaned)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(path), report.File)
	assert.Equal(t, 2, report.DuplicatesRemoved)

	assert.FileExists(t, path, "original left for the caller")
	assert.FileExists(t, filepath.Join(cleaned, filepath.Base(path)))
}
