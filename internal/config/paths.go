package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	DataDir       string
	LogsDir       string

	// Carrier documents waiting to be parsed, and where they go afterwards
	InputDir   string
	ArchiveDir string
	FailedDir  string

	// Per-origin zone tables, also reloaded as snapshots
	ZonesDir string

	// Generated rate sheets and the fix pass buckets
	SheetsDir    string
	CleanedDir   string
	ProcessedDir string

	// Diagnostics, metrics and traces
	ReportsDir string

	// Mapping workbooks and the rate sheet template
	MappingsDir  string
	TemplateFile string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the current working directory
func GetPaths() (*Paths, error) {
	exeDir, err := executableDir()
	if err != nil {
		return nil, err
	}

	slog.Debug("Resolved executable directory", slog.String("exe_dir", exeDir))

	// Directory structure:
	// dist/
	//   ├── data/
	//   │   ├── input/          (carrier documents)
	//   │   │   ├── archive/
	//   │   │   └── failed_parsing/
	//   │   ├── zones/          (per-origin zone tables)
	//   │   ├── sheets/         (rate sheets)
	//   │   │   ├── cleaned/
	//   │   │   └── processed/
	//   │   ├── mappings/       (SSL to postal code workbooks)
	//   │   └── reports/        (diagnostics, metrics)
	//   ├── templates/
	//   └── logs/
	return newPaths(exeDir, filepath.Join(exeDir, "data"), filepath.Join(exeDir, "logs")), nil
}

// NewPaths lays out the standard directories under baseDir.
func NewPaths(baseDir string) *Paths {
	return newPaths(baseDir, filepath.Join(baseDir, "data"), filepath.Join(baseDir, "logs"))
}

func newPaths(exeDir, dataDir, logsDir string) *Paths {
	inputDir := filepath.Join(dataDir, "input")
	sheetsDir := filepath.Join(dataDir, "sheets")
	return &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		LogsDir:       logsDir,
		InputDir:      inputDir,
		ArchiveDir:    filepath.Join(inputDir, "archive"),
		FailedDir:     filepath.Join(inputDir, "failed_parsing"),
		ZonesDir:      filepath.Join(dataDir, "zones"),
		SheetsDir:     sheetsDir,
		CleanedDir:    filepath.Join(sheetsDir, "cleaned"),
		ProcessedDir:  filepath.Join(sheetsDir, "processed"),
		ReportsDir:    filepath.Join(dataDir, "reports"),
		MappingsDir:   filepath.Join(dataDir, "mappings"),
		TemplateFile:  filepath.Join(exeDir, "templates", "rate_sheet.xlsx"),
	}
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.LogsDir,
		p.InputDir,
		p.ArchiveDir,
		p.FailedDir,
		p.ZonesDir,
		p.SheetsDir,
		p.CleanedDir,
		p.ProcessedDir,
		p.ReportsDir,
		p.MappingsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetZoneTablePath returns the zone table file of an origin group
func (p *Paths) GetZoneTablePath(groupKey string) string {
	return filepath.Join(p.ZonesDir, groupKey+".xlsx")
}

// GetSheetPath returns the path for a generated rate sheet
func (p *Paths) GetSheetPath(filename string) string {
	return filepath.Join(p.SheetsDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved directories for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("input", p.InputDir),
			slog.String("zones", p.ZonesDir),
			slog.String("sheets", p.SheetsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.String("template", p.TemplateFile))
}
