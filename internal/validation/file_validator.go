package validation

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	apperrors "zonesheet/internal/errors"
)

// workbookExts are the extensions excelize opens.
var workbookExts = []string{".xlsx", ".xlsm"}

// FileValidator checks the directories and workbooks a command touches
// before any document is parsed.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a validator.
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger.With(slog.String("component", "file_validator"))}
}

// ValidateInputDirectory checks that dir is a directory and returns how many
// regular files in it carry one of exts. With no exts every file counts.
// Editor lock files ("~$name.xlsx") are never counted.
func (v *FileValidator) ValidateInputDirectory(dir string, exts ...string) (int, error) {
	info, err := stat(dir, "directory")
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s is not a directory", dir))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to list directory", err).WithContext("directory", dir)
	}
	n := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || isLockFile(e.Name()) {
			continue
		}
		if len(exts) == 0 || slices.Contains(exts, strings.ToLower(filepath.Ext(e.Name()))) {
			n++
		}
	}
	v.logger.Debug("input directory checked",
		slog.String("directory", dir),
		slog.Int("files", n),
		slog.Any("extensions", exts))
	return n, nil
}

// ValidateOutputDirectory creates dir when missing and checks that files
// can be created in it.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create output directory", err).WithContext("directory", dir)
	}
	f, err := os.CreateTemp(dir, ".zonesheet-*")
	if err != nil {
		return apperrors.NewStorageError("output directory is not writable", err).WithContext("directory", dir)
	}
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil {
		return apperrors.NewStorageError("failed to clean output directory", err).WithContext("file", name)
	}
	v.logger.Debug("output directory checked", slog.String("directory", dir))
	return nil
}

// ValidateExcelFile checks that path is a readable workbook and not an
// editor lock file.
func (v *FileValidator) ValidateExcelFile(path string) error {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(workbookExts, ext) {
		return apperrors.NewValidationError(fmt.Sprintf("%s is not an Excel workbook", name)).
			WithContext("file", path)
	}
	if isLockFile(name) {
		return apperrors.NewValidationError(fmt.Sprintf("%s is an editor lock file", name)).
			WithContext("file", path)
	}

	info, err := stat(path, "workbook")
	if err != nil {
		return err
	}
	if info.IsDir() {
		return apperrors.NewValidationError(fmt.Sprintf("%s is a directory", name)).WithContext("file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError("workbook is not readable", err).WithContext("file", path)
	}
	f.Close()

	v.logger.Debug("workbook checked", slog.String("file", path), slog.Int64("size", info.Size()))
	return nil
}

func stat(path, what string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return info, nil
	case os.IsNotExist(err):
		return nil, apperrors.NewNotFoundError(what).WithContext("path", path)
	default:
		return nil, apperrors.NewStorageError("failed to stat "+what, err).WithContext("path", path)
	}
}

func isLockFile(name string) bool {
	return strings.HasPrefix(name, "~$")
}
