package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

// CSVWriter writes report CSVs. Relative paths resolve under baseDir.
type CSVWriter struct {
	baseDir string
}

// NewCSVWriter creates a writer rooted at baseDir; "" leaves paths as given.
func NewCSVWriter(baseDir string) *CSVWriter {
	return &CSVWriter{baseDir: baseDir}
}

// WriteOptions configures WriteCSV.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // lets Excel detect UTF-8
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV replaces filePath with the headers and records of options.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	stream, err := w.open(filePath, options.Headers, options.BOMPrefix)
	if err != nil {
		return err
	}
	for i, record := range options.Records {
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err).
				WithContext("file", stream.path)
		}
	}
	slog.Debug("csv written", slog.String("file", stream.path), slog.Int("records", len(options.Records)))
	return stream.Close()
}

// WriteSimpleCSV writes headers and records with a BOM.
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{Headers: headers, Records: records, BOMPrefix: true})
}

// StreamWriter writes one record at a time; Close flushes it.
type StreamWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter creates filePath with a BOM and headers and returns a
// writer for its records.
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	return w.open(filePath, headers, true)
}

func (w *CSVWriter) open(filePath string, headers []string, bom bool) (*StreamWriter, error) {
	path := w.resolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create report directory", err).WithContext("file", path)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create csv", err).WithContext("file", path)
	}
	s := &StreamWriter{path: path, file: file, writer: csv.NewWriter(file)}
	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			file.Close()
			return nil, apperrors.NewStorageError("failed to write BOM", err).WithContext("file", path)
		}
	}
	if len(headers) > 0 {
		if err := s.writer.Write(headers); err != nil {
			file.Close()
			return nil, apperrors.NewStorageError("failed to write csv headers", err).WithContext("file", path)
		}
	}
	return s, nil
}

// WriteRecord writes a single record.
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes buffered records and closes the file.
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return apperrors.NewStorageError("failed to flush csv", err).WithContext("file", s.path)
	}
	return s.file.Close()
}

// resolvePath resolves a relative path under the writer's base directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}

// DiagnosticHeaders are the columns of the diagnostics CSV.
var DiagnosticHeaders = []string{"origin", "severity", "reason", "input", "detail", "document", "page", "row"}

func diagnosticRecord(d domain.Diagnostic) []string {
	return []string{
		string(d.Origin),
		string(d.Severity),
		string(d.Reason),
		d.Input,
		d.Detail,
		d.Source.Document,
		formatInt(d.Source.Page),
		formatInt(d.Source.Row),
	}
}

// formatInt leaves unknown positions blank
func formatInt(i int) string {
	if i == 0 {
		return ""
	}
	return strconv.Itoa(i)
}

// WriteDiagnosticsCSV streams diagnostics to filePath, one row each.
func (w *CSVWriter) WriteDiagnosticsCSV(filePath string, diags []domain.Diagnostic) error {
	stream, err := w.CreateStreamWriter(filePath, DiagnosticHeaders)
	if err != nil {
		return err
	}
	for _, d := range diags {
		if err := stream.WriteRecord(diagnosticRecord(d)); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write diagnostic: %w", err)
		}
	}
	return stream.Close()
}
