// Package extract turns carrier documents into pages of text rows.
//
// Workbooks are read with one page per sheet. Text files, such as the
// output of a PDF layout extractor, are split into pages on form feeds and
// into cells on runs of whitespace.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

// Source yields the extracted content of one document.
type Source interface {
	// Name is the document name used for provenance and group keys.
	Name() string
	Extract(ctx context.Context) (domain.Document, error)
}

// Open returns the Source for path, chosen by extension.
func Open(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return WorkbookSource{Path: path}, nil
	case ".txt":
		return TextSource{Path: path}, nil
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported document type %q", filepath.Ext(path)), nil).
			WithContext("file", path)
	}
}

// Load opens and extracts path in one step.
func Load(ctx context.Context, path string) (domain.Document, error) {
	src, err := Open(path)
	if err != nil {
		return domain.Document{}, err
	}
	return src.Extract(ctx)
}
