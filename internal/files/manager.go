package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"zonesheet/internal/config"
)

// Manager moves processed files between the data directories
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{paths: paths, logger: logger.With(slog.String("component", "files"))}
}

// Archive moves a parsed input document into the archive bucket.
func (m *Manager) Archive(path string) (string, error) {
	return m.moveInto(path, m.paths.ArchiveDir)
}

// MarkFailed moves an input document that could not be parsed into the
// failed bucket.
func (m *Manager) MarkFailed(path string) (string, error) {
	return m.moveInto(path, m.paths.FailedDir)
}

// MarkProcessed moves a rate sheet that has been fixed into the processed
// bucket.
func (m *Manager) MarkProcessed(path string) (string, error) {
	return m.moveInto(path, m.paths.ProcessedDir)
}

// moveInto moves path into dir, replacing a file of the same name.
func (m *Manager) moveInto(path, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(path))
	if err := m.MoveFile(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(m.resolvePath(path))
	return err == nil
}

// CopyFile copies a file from source to destination
func (m *Manager) CopyFile(src, dst string) error {
	srcPath := m.resolvePath(src)
	dstPath := m.resolvePath(dst)

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	srcFile, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	// Sync to ensure write is complete
	return dstFile.Sync()
}

// MoveFile moves a file from source to destination
func (m *Manager) MoveFile(src, dst string) error {
	srcPath := m.resolvePath(src)
	dstPath := m.resolvePath(dst)

	m.logger.Info("Moving file",
		slog.String("src_path", srcPath),
		slog.String("dst_path", dstPath))

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	// Try rename first (atomic if on same filesystem)
	if err := os.Rename(srcPath, dstPath); err == nil {
		return nil
	}

	// Fall back to copy and delete
	if err := m.CopyFile(srcPath, dstPath); err != nil {
		return err
	}
	return os.Remove(srcPath)
}

// resolvePath resolves a path relative to the appropriate data directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	switch {
	case strings.HasPrefix(path, "input/"):
		return filepath.Join(m.paths.InputDir, strings.TrimPrefix(path, "input/"))
	case strings.HasPrefix(path, "zones/"):
		return m.paths.GetZoneTablePath(strings.TrimSuffix(strings.TrimPrefix(path, "zones/"), ".xlsx"))
	case strings.HasPrefix(path, "sheets/"):
		return m.paths.GetSheetPath(strings.TrimPrefix(path, "sheets/"))
	case strings.HasPrefix(path, "reports/"):
		return m.paths.GetReportPath(strings.TrimPrefix(path, "reports/"))
	case strings.HasPrefix(path, "logs/"):
		return m.paths.GetLogPath(strings.TrimPrefix(path, "logs/"))
	default:
		return filepath.Join(m.paths.DataDir, path)
	}
}
