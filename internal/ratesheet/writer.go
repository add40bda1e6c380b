package ratesheet

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/exporter"
	"zonesheet/internal/validation"
	"zonesheet/pkg/contracts/domain"
)

// Writer fills copies of a rate sheet template, one file per SSL.
type Writer struct {
	template string
	outDir   string
	meta     domain.SheetMeta
	now      func() time.Time
	logger   *slog.Logger
}

// NewWriter creates a writer saving into outDir.
func NewWriter(template, outDir string, meta domain.SheetMeta, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		template: template,
		outDir:   outDir,
		meta:     meta,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "ratesheet")),
	}
}

// ValidateTemplate checks that path opens and has a Zones tab.
func ValidateTemplate(path string) error {
	if err := validation.NewFileValidator(nil).ValidateExcelFile(path); err != nil {
		return err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return apperrors.NewStorageError("failed to open rate sheet template", err).WithContext("file", path)
	}
	defer f.Close()
	return requireZones(f, path)
}

func requireZones(f *excelize.File, path string) error {
	if idx, err := f.GetSheetIndex(exporter.ZonesSheet); err != nil || idx < 0 {
		return apperrors.NewSchemaError(filepath.Base(path), exporter.ZonesSheet)
	}
	return nil
}

// Write saves res into a copy of the template and returns the output path.
// Results without rows are not written and return "".
func (w *Writer) Write(res SheetResult) (string, error) {
	if res.Empty() {
		w.logger.Warn("no zone data collected, skipping sheet", slog.String("ssl", res.SSL))
		return "", nil
	}

	f, err := excelize.OpenFile(w.template)
	if err != nil {
		return "", apperrors.NewStorageError("failed to open rate sheet template", err).WithContext("file", w.template)
	}
	defer f.Close()

	if err := requireZones(f, w.template); err != nil {
		return "", err
	}
	if err := exporter.WriteZonesRows(f, exporter.ZonesSheet, res.Rows); err != nil {
		return "", apperrors.NewStorageError("failed to write zones", err).WithContext("ssl", res.SSL)
	}

	if err := os.MkdirAll(w.outDir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create output directory", err).WithContext("dir", w.outDir)
	}
	path := filepath.Join(w.outDir, FileName(w.now(), res.SSL, w.meta))
	if err := f.SaveAs(path); err != nil {
		return "", apperrors.NewStorageError("failed to save rate sheet", err).WithContext("file", path)
	}

	w.logger.Info("rate sheet written",
		slog.String("ssl", res.SSL),
		slog.String("file", path),
		slog.Int("rows", len(res.Rows)),
		slog.Int("duplicates", res.Duplicates))
	return path, nil
}
