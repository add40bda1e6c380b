package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"zonesheet/internal/app"
	"zonesheet/internal/config"
	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/exporter"
	"zonesheet/internal/shared/testutil"
)

func newRuntime(t *testing.T) *app.Runtime {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ExecutableDir = t.TempDir()
	rt, err := app.New("sheetfix", cfg)
	require.NoError(t, err)
	logger, _ := testutil.NewTestLogger(t)
	rt.Logger = logger
	t.Cleanup(func() { rt.Close(context.Background()) })
	return rt
}

func writeSheet(t *testing.T, dir, name string) string {
	t.Helper()
	header := make([]any, len(exporter.ZonesHeaders))
	for i, h := range exporter.ZonesHeaders {
		header[i] = h
	}
	return testutil.WriteWorkbook(t, dir, name, map[string][][]any{
		"Ground": {nil, nil, {"Weight", "Zone 02", "Zone 10"}},
		exporter.ZonesSheet: {
			{"Destination Zones"},
			nil,
			header,
			{"United States", "US", "2", "", "00500", "00599"},
			{"United States", "US", "2", "Holtsville", "00500", "00599"},
			{"United States", "US", "3", "", "00600", "00999"},
		},
	})
}

func TestRunFixesSheets(t *testing.T) {
	rt := newRuntime(t)
	original := writeSheet(t, rt.Paths.SheetsDir, "20250102-NYC1-Acme-FedEx-123456.xlsx")

	require.NoError(t, run(context.Background(), rt, options{}))

	assert.NoFileExists(t, original)
	assert.FileExists(t, filepath.Join(rt.Paths.ProcessedDir, filepath.Base(original)))

	f, err := excelize.OpenFile(filepath.Join(rt.Paths.CleanedDir, filepath.Base(original)))
	require.NoError(t, err)
	defer f.Close()
	rows, err := exporter.ReadZonesRows(f, exporter.ZonesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	header, err := f.GetCellValue("Ground", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Zone 2", header)

	data, err := os.ReadFile(rt.Paths.GetReportPath(reportFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "20250102-NYC1-Acme-FedEx-123456.xlsx,1,1,fixed")
}

func TestRunNoSheets(t *testing.T) {
	rt := newRuntime(t)
	require.NoError(t, run(context.Background(), rt, options{}))
	assert.NoFileExists(t, rt.Paths.GetReportPath(reportFile))
}

func TestRunReportsBrokenSheets(t *testing.T) {
	rt := newRuntime(t)
	require.NoError(t, os.WriteFile(filepath.Join(rt.Paths.SheetsDir, "broken.xlsx"), []byte("not a workbook"), 0644))

	err := run(context.Background(), rt, options{})
	require.Error(t, err)
	data, rerr := os.ReadFile(rt.Paths.GetReportPath(reportFile))
	require.NoError(t, rerr)
	assert.Contains(t, string(data), "broken.xlsx")
}

func TestRunMovesOriginalsToProcessedFlag(t *testing.T) {
	rt := newRuntime(t)
	original := writeSheet(t, rt.Paths.SheetsDir, "20250102-CHI-Acme-FedEx-123456.xlsx")
	processed := filepath.Join(t.TempDir(), "done")
	cleaned := filepath.Join(t.TempDir(), "clean")

	require.NoError(t, run(context.Background(), rt, options{outDir: cleaned, processedDir: processed}))

	name := filepath.Base(original)
	assert.NoFileExists(t, original)
	assert.FileExists(t, filepath.Join(processed, name))
	assert.FileExists(t, filepath.Join(cleaned, name))
	assert.NoFileExists(t, filepath.Join(rt.Paths.ProcessedDir, name))
}

func TestRunMissingInputDirectory(t *testing.T) {
	rt := newRuntime(t)
	err := run(context.Background(), rt, options{inDir: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}
