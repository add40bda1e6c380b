package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	t.Run("basic path resolution", func(t *testing.T) {
		paths, err := GetPaths()
		require.NoError(t, err)
		require.NotNil(t, paths)

		assert.True(t, filepath.IsAbs(paths.ExecutableDir), "ExecutableDir should be absolute")
		assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
		assert.Equal(t, filepath.Join(paths.ExecutableDir, "logs"), paths.LogsDir)
	})

	t.Run("consistent calls return same paths", func(t *testing.T) {
		paths1, err1 := GetPaths()
		require.NoError(t, err1)
		paths2, err2 := GetPaths()
		require.NoError(t, err2)
		assert.Equal(t, paths1, paths2)
	})
}

func TestNewPathsLayout(t *testing.T) {
	base := t.TempDir()
	p := NewPaths(base)

	assert.Equal(t, filepath.Join(base, "data", "input"), p.InputDir)
	assert.Equal(t, filepath.Join(p.InputDir, ArchiveDirName), p.ArchiveDir)
	assert.Equal(t, filepath.Join(p.InputDir, FailedDirName), p.FailedDir)
	assert.Equal(t, filepath.Join(p.SheetsDir, ProcessedDirName), p.ProcessedDir)

	for _, dir := range []string{p.ZonesDir, p.SheetsDir, p.ReportsDir, p.MappingsDir} {
		assert.True(t, strings.HasPrefix(dir, p.DataDir), dir)
	}

	assert.Equal(t, filepath.Join(p.ZonesDir, "00000-00399.xlsx"), p.GetZoneTablePath("00000-00399"))
	assert.Equal(t, filepath.Join(p.SheetsDir, "a.xlsx"), p.GetSheetPath("a.xlsx"))
	assert.Equal(t, filepath.Join(p.ReportsDir, DiagnosticsFileName), p.GetReportPath(DiagnosticsFileName))
	assert.Equal(t, filepath.Join(p.LogsDir, "run.log"), p.GetLogPath("run.log"))
}

func TestEnsureDirectories(t *testing.T) {
	p := NewPaths(t.TempDir())
	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.ArchiveDir, p.FailedDir, p.ZonesDir, p.CleanedDir, p.ProcessedDir, p.ReportsDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}

	assert.True(t, FileExists(p.ZonesDir))
	assert.False(t, FileExists(filepath.Join(p.ZonesDir, "missing.xlsx")))
}
