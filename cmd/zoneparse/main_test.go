package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonesheet/internal/app"
	"zonesheet/internal/config"
	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/exporter"
	"zonesheet/internal/shared/testutil"
	"zonesheet/pkg/contracts/domain"
)

func newRuntime(t *testing.T) *app.Runtime {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ExecutableDir = t.TempDir()
	cfg.Workers = 2
	rt, err := app.New("zoneparse", cfg)
	require.NoError(t, err)
	logger, _ := testutil.NewTestLogger(t)
	rt.Logger = logger
	t.Cleanup(func() { rt.Close(context.Background()) })
	return rt
}

func zoneChart(rows ...[]any) map[string][][]any {
	return map[string][][]any{"Zones": append([][]any{
		{"FedEx Ground Zone Chart"},
		{"Start Postal Code", "End Postal Code", "Zone"},
	}, rows...)}
}

func TestRunBuildsTablesAndMovesInputs(t *testing.T) {
	rt := newRuntime(t)
	good := testutil.WriteWorkbook(t, rt.Paths.InputDir, "00000-00399.xlsx", zoneChart(
		[]any{"00400", "00599", 2},
		[]any{"00600", "00799", 3},
	))
	bad := testutil.WriteWorkbook(t, rt.Paths.InputDir, "unnamed.xlsx", zoneChart(
		[]any{"00400", "00599", 2},
	))

	require.NoError(t, run(context.Background(), rt, options{}))

	table := filepath.Join(rt.Paths.ZonesDir, "00000-00399.xlsx")
	require.FileExists(t, table)
	cands, err := exporter.ReadZoneTable(table)
	require.NoError(t, err)
	assert.Len(t, cands, 2)

	assert.NoFileExists(t, good)
	assert.NoFileExists(t, bad)
	assert.FileExists(t, filepath.Join(rt.Paths.ArchiveDir, "00000-00399.xlsx"))
	assert.FileExists(t, filepath.Join(rt.Paths.FailedDir, "unnamed.xlsx"))
	assert.FileExists(t, rt.Paths.GetReportPath(config.DiagnosticsFileName))
}

func TestRunMergesWithExistingTables(t *testing.T) {
	rt := newRuntime(t)
	testutil.WriteWorkbook(t, rt.Paths.InputDir, "00000-00399.xlsx", zoneChart(
		[]any{"00400", "00599", 2},
	))
	require.NoError(t, run(context.Background(), rt, options{}))

	testutil.WriteWorkbook(t, rt.Paths.InputDir, "00000-00399.xlsx", zoneChart(
		[]any{"00600", "00799", 4},
	))
	require.NoError(t, run(context.Background(), rt, options{keepFiles: true}))

	cands, err := exporter.ReadZoneTable(filepath.Join(rt.Paths.ZonesDir, "00000-00399.xlsx"))
	require.NoError(t, err)
	assert.Len(t, cands, 2, "earlier table kept")
	assert.FileExists(t, filepath.Join(rt.Paths.InputDir, "00000-00399.xlsx"))
}

func TestRunNothingToDo(t *testing.T) {
	rt := newRuntime(t)
	require.NoError(t, run(context.Background(), rt, options{}))
	entries, err := os.ReadDir(rt.Paths.ZonesDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunAllDocumentsFail(t *testing.T) {
	rt := newRuntime(t)
	testutil.WriteWorkbook(t, rt.Paths.InputDir, "notes.xlsx", map[string][][]any{
		"Sheet": {{"nothing here"}},
	})
	assert.Error(t, run(context.Background(), rt, options{keepFiles: true}))
}

func TestRunReportsUnreadableRows(t *testing.T) {
	rt := newRuntime(t)
	testutil.WriteWorkbook(t, rt.Paths.InputDir, "00000-00399.xlsx", zoneChart(
		[]any{"00400", "00599", 2},
		[]any{"Continued on next page"},
	))
	zonesDir := filepath.Join(t.TempDir(), "tables", "fedex")

	require.NoError(t, run(context.Background(), rt, options{zonesDir: zonesDir, keepFiles: true}))
	assert.FileExists(t, filepath.Join(zonesDir, "00000-00399.xlsx"))

	data, err := os.ReadFile(rt.Paths.GetReportPath(config.DiagnosticsFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), string(domain.ReasonMalformedRow))
	assert.Contains(t, string(data), "Continued on next page")
}

func TestRunMissingInputDirectory(t *testing.T) {
	rt := newRuntime(t)
	err := run(context.Background(), rt, options{inDir: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}
