package ratesheet

import (
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/validation"
	"zonesheet/pkg/contracts/domain"
)

// Mapping workbook headers.
const (
	HeaderSSL        = "SSL"
	HeaderPostalCode = "Postal Code"
)

// ReadMappings reads SSL to origin postal code pairs from the first sheet
// of path. Postal codes are canonicalized with scheme, restoring leading
// zeros a spreadsheet dropped. Rows missing either value are skipped.
func ReadMappings(path string, scheme domain.Scheme) ([]domain.SSLMapping, error) {
	if err := validation.NewFileValidator(nil).ValidateExcelFile(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open mapping workbook", err).WithContext("file", path)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read mapping workbook", err).WithContext("file", path)
	}

	name := filepath.Base(path)
	if len(rows) == 0 {
		return nil, apperrors.NewSchemaError(name, HeaderSSL, HeaderPostalCode)
	}
	sslCol, postalCol := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case HeaderSSL:
			sslCol = i
		case HeaderPostalCode:
			postalCol = i
		}
	}
	var missing []string
	if sslCol < 0 {
		missing = append(missing, HeaderSSL)
	}
	if postalCol < 0 {
		missing = append(missing, HeaderPostalCode)
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(name, missing...)
	}

	var out []domain.SSLMapping
	for _, row := range rows[1:] {
		ssl, postal := cellAt(row, sslCol), cellAt(row, postalCol)
		if ssl == "" || postal == "" {
			continue
		}
		out = append(out, domain.SSLMapping{SSL: ssl, PostalCode: scheme.Canonical(postal)})
	}
	return out, nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
