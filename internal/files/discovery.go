package files

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Kind is the extraction route of an input file.
type Kind string

const (
	KindWorkbook Kind = "workbook"
	KindText     Kind = "text"
)

var inputKinds = map[string]Kind{
	".xlsx": KindWorkbook,
	".xlsm": KindWorkbook,
	".txt":  KindText,
}

// KindOf returns the extraction route for name, or "" when unsupported.
func KindOf(name string) Kind {
	return inputKinds[strings.ToLower(filepath.Ext(name))]
}

// InputExts returns the extensions FindInputs accepts, sorted.
func InputExts() []string {
	return slices.Sorted(maps.Keys(inputKinds))
}

// WorkbookExts returns the extensions FindExcelFiles accepts, sorted.
func WorkbookExts() []string {
	var out []string
	for ext, kind := range inputKinds {
		if kind == KindWorkbook {
			out = append(out, ext)
		}
	}
	slices.Sort(out)
	return out
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindInputs finds carrier documents in dir: workbooks and extracted text.
// Files are returned oldest first, ties broken by name, which is the order
// they are provided to the merge so that newer documents win conflicts.
// Lock files left by spreadsheet editors are ignored.
func (d *Discovery) FindInputs(dir string) ([]FileInfo, error) {
	files, err := d.find(dir, func(name string) bool {
		return KindOf(name) != "" && !strings.HasPrefix(name, "~$")
	})
	if err != nil {
		return nil, err
	}
	sortByAge(files)
	return files, nil
}

// FindExcelFiles finds all Excel files in the specified directory, sorted
// by name. Zone tables and rate sheets are found this way.
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	files, err := d.find(dir, func(name string) bool {
		return KindOf(name) == KindWorkbook && !strings.HasPrefix(name, "~$")
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// FindFilesByPattern finds the files of dir whose names match a
// filepath.Match pattern, sorted by name. Editor lock files never match.
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}
	files, err := d.find(dir, func(name string) bool {
		ok, _ := filepath.Match(pattern, name)
		return ok && !strings.HasPrefix(name, "~$")
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (d *Discovery) find(dir string, keep func(name string) bool) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !keep(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// resolve uses dir directly when absolute, otherwise under the base path
func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

func sortByAge(files []FileInfo) {
	slices.SortStableFunc(files, func(a, b FileInfo) int {
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}
