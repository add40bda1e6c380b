package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "zonesheet/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	t.Setenv("ZONES_PATHS_EXECUTABLE_DIR", t.TempDir())

	cfg, err := LoadFile("")
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Workers, cfg.Workers)
	assert.Equal(t, def.Carrier, cfg.Carrier)
	assert.Equal(t, def.Grouping, cfg.Grouping)
	assert.Equal(t, def.Merge, cfg.Merge)
	assert.Equal(t, def.Locator, cfg.Locator)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 8*time.Second, cfg.Locator.Timeout)
}

func TestLoadFileEnvOverridesFile(t *testing.T) {
	t.Setenv("ZONES_PATHS_EXECUTABLE_DIR", t.TempDir())
	t.Setenv("ZONES_WORKERS", "2")
	t.Setenv("ZONES_MERGE_POLICY", "drop")

	path := writeConfig(t, `
workers: 8
carrier:
  country_name: Canada
  country_symbol: CA
  scheme: fsa
  client_name: Acme
grouping:
  rule: prefix
  prefix_length: 3
merge:
  policy: first-write-wins
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workers, "env wins over file")
	assert.Equal(t, "drop", cfg.Merge.Policy, "env wins over file")
	assert.Equal(t, "Canada", cfg.Carrier.CountryName)
	assert.Equal(t, "CA", cfg.Carrier.CountrySymbol)
	assert.Equal(t, "fsa", cfg.Carrier.Scheme)
	assert.Equal(t, "Acme", cfg.Carrier.ClientName)
	assert.Equal(t, "prefix", cfg.Grouping.Rule)
	assert.Equal(t, "FedEx", cfg.Carrier.Carrier, "default kept when file is silent")
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"bad policy", "merge:\n  policy: sometimes\n", "merge.policy"},
		{"bad symbol", "carrier:\n  country_symbol: USA\n", "carrier.country_symbol"},
		{"bad rule", "grouping:\n  rule: zip3\n", "grouping.rule"},
		{"bad url", "locator:\n  base_url: not a url\n", "locator.base_url"},
		{"block sizes", "locator:\n  min_block_size: 500\n  max_block_size: 200\n", "locator.max_block_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ZONES_PATHS_EXECUTABLE_DIR", t.TempDir())
			_, err := LoadFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Setenv("ZONES_PATHS_EXECUTABLE_DIR", t.TempDir())
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestLoadFileBadEnv(t *testing.T) {
	t.Setenv("ZONES_WORKERS", "many")
	_, err := LoadFile("")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestConfigGetPaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.ExecutableDir = base

	p := cfg.GetPaths()
	assert.Equal(t, filepath.Join(base, "data"), p.DataDir)
	assert.Equal(t, filepath.Join(base, "logs"), p.LogsDir)
	assert.Equal(t, filepath.Join(base, "templates", "rate_sheet.xlsx"), p.TemplateFile)
	assert.Equal(t, filepath.Join(base, "logs", "zonesheet.log"), cfg.GetLogFile())

	abs := t.TempDir()
	cfg.Paths.DataDir = abs
	assert.Equal(t, filepath.Join(abs, "zones"), cfg.GetPaths().ZonesDir)
}
