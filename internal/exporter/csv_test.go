package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonesheet/pkg/contracts/domain"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, bom))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		options WriteOptions
		want    [][]string
		hasBOM  bool
	}{
		{
			name: "headers and records",
			file: "basic.csv",
			options: WriteOptions{
				Headers: []string{"start", "end", "zone"},
				Records: [][]string{{"00500", "00599", "2"}, {"00600", "00699", "3"}},
			},
			want: [][]string{{"start", "end", "zone"}, {"00500", "00599", "2"}, {"00600", "00699", "3"}},
		},
		{
			name: "with BOM",
			file: "bom.csv",
			options: WriteOptions{
				Headers:   []string{"a"},
				Records:   [][]string{{"1"}},
				BOMPrefix: true,
			},
			want:   [][]string{{"a"}, {"1"}},
			hasBOM: true,
		},
		{
			name:    "nested directory",
			file:    filepath.Join("deep", "nested", "out.csv"),
			options: WriteOptions{Records: [][]string{{"x", "y"}}},
			want:    [][]string{{"x", "y"}},
		},
		{
			name:    "quoted values",
			file:    "quoted.csv",
			options: WriteOptions{Records: [][]string{{"Zone 2, ground", `say "hi"`}}},
			want:    [][]string{{"Zone 2, ground", `say "hi"`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			w := NewCSVWriter(dir)
			require.NoError(t, w.WriteCSV(tt.file, tt.options))

			path := filepath.Join(dir, tt.file)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.hasBOM, bytes.HasPrefix(data, bom))
			assert.Equal(t, tt.want, readCSV(t, path))
		})
	}
}

func TestCSVWriter_AbsolutePath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "abs.csv")
	w := NewCSVWriter(t.TempDir())
	require.NoError(t, w.WriteSimpleCSV(abs, []string{"h"}, [][]string{{"v"}}))
	assert.Equal(t, [][]string{{"h"}, {"v"}}, readCSV(t, abs))
}

func TestCSVWriter_Replaces(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteSimpleCSV("log.csv", []string{"id"}, [][]string{{"1"}, {"2"}}))
	require.NoError(t, w.WriteSimpleCSV("log.csv", []string{"id"}, [][]string{{"3"}}))

	assert.Equal(t, [][]string{{"id"}, {"3"}}, readCSV(t, filepath.Join(dir, "log.csv")))
}

func TestCSVWriter_StreamWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	stream, err := w.CreateStreamWriter("stream.csv", []string{"n"})
	require.NoError(t, err)
	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, stream.WriteRecord([]string{v}))
	}
	require.NoError(t, stream.Close())

	data, err := os.ReadFile(filepath.Join(dir, "stream.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, bom))
	assert.Equal(t, [][]string{{"n"}, {"a"}, {"b"}, {"c"}}, readCSV(t, filepath.Join(dir, "stream.csv")))
}

func TestCSVWriter_WriteDiagnosticsCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	diags := []domain.Diagnostic{
		{
			Origin:   "00000-00399",
			Reason:   domain.ReasonInvalidRange,
			Severity: domain.SeverityRejected,
			Input:    "0A1-00599",
			Detail:   "invalid ZIP code",
			Source:   domain.Source{Document: "00000-00399.pdf", Page: 2, Row: 14},
		},
		{
			Origin:   "M5V",
			Reason:   domain.ReasonMissingZoneData,
			Severity: domain.SeverityError,
			Input:    "M5V",
			Detail:   "no zone table for SSL YYZ",
		},
	}
	require.NoError(t, w.WriteDiagnosticsCSV("diagnostics.csv", diags))

	records := readCSV(t, filepath.Join(dir, "diagnostics.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, DiagnosticHeaders, records[0])
	assert.Equal(t, []string{"00000-00399", "rejected", "INVALID_RANGE", "0A1-00599", "invalid ZIP code", "00000-00399.pdf", "2", "14"}, records[1])
	assert.Equal(t, []string{"M5V", "error", "MISSING_ZONE_DATA", "M5V", "no zone table for SSL YYZ", "", "", ""}, records[2])
}
