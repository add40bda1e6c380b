package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscovery(t *testing.T) {
	basePath := "/test/base"
	discovery := NewDiscovery(basePath)

	assert.NotNil(t, discovery)
	assert.Equal(t, basePath, discovery.basePath)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"00000-00399.xlsx", KindWorkbook},
		{"rates.XLSM", KindWorkbook},
		{"00000-00399.txt", KindText},
		{"scan.pdf", ""},
		{"data.csv", ""},
		{"noext", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.name), tt.name)
	}
}

func TestFindInputs(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		expected []string
	}{
		{
			name:     "workbooks and text in age order",
			files:    []string{"b.xlsx", "a.txt", "c.xlsx"},
			expected: []string{"b.xlsx", "a.txt", "c.xlsx"},
		},
		{
			name:     "unsupported and lock files skipped",
			files:    []string{"doc.pdf", "~$open.xlsx", "zones.txt", "notes.csv"},
			expected: []string{"zones.txt"},
		},
		{
			name:     "empty directory",
			files:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			discovery := NewDiscovery(tmpDir)

			base := time.Now().Add(-time.Hour)
			for i, name := range tt.files {
				path := filepath.Join(tmpDir, "input", name)
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
				require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
				modTime := base.Add(time.Duration(i) * time.Minute)
				require.NoError(t, os.Chtimes(path, modTime, modTime))
			}
			require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "input", "archive"), 0755))

			found, err := discovery.FindInputs("input")
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
				assert.True(t, filepath.IsAbs(f.Path))
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFindInputsTiesByName(t *testing.T) {
	dir := t.TempDir()
	mod := time.Now().Add(-time.Hour)
	for _, name := range []string{"z.txt", "a.txt", "m.xlsx"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		require.NoError(t, os.Chtimes(path, mod, mod))
	}

	found, err := NewDiscovery("/unused").FindInputs(dir)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "a.txt", found[0].Name)
	assert.Equal(t, "m.xlsx", found[1].Name)
	assert.Equal(t, "z.txt", found[2].Name)
}

func TestFindInputsMissingDir(t *testing.T) {
	_, err := NewDiscovery(t.TempDir()).FindInputs("nope")
	assert.Error(t, err)
}

func TestFindExcelFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"00400-00799.xlsx", "00000-00399.xlsx", "readme.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	found, err := NewDiscovery(dir).FindExcelFiles(".")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "00000-00399.xlsx", found[0].Name)
	assert.Equal(t, "00400-00799.xlsx", found[1].Name)
}

func TestFindFilesByPattern(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"20250102-B.xlsx", "20250101-A.xlsx", "other.xlsx", "~$20250103-C.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "20250104-D.xlsx"), 0755))

	found, err := NewDiscovery(dir).FindFilesByPattern(".", "2025*.xlsx")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "20250101-A.xlsx", found[0].Name)
	assert.Equal(t, "20250102-B.xlsx", found[1].Name)

	found, err = NewDiscovery("").FindFilesByPattern(dir, "*.xlsx")
	require.NoError(t, err)
	assert.Len(t, found, 3, "lock files are skipped")

	_, err = NewDiscovery(dir).FindFilesByPattern(".", "[")
	assert.Error(t, err)
}

func TestGetLatestFile(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)

	now := time.Now()
	latest, ok := GetLatestFile([]FileInfo{
		{Name: "old", ModTime: now.Add(-time.Hour)},
		{Name: "new", ModTime: now},
		{Name: "mid", ModTime: now.Add(-time.Minute)},
	})
	require.True(t, ok)
	assert.Equal(t, "new", latest.Name)
}
