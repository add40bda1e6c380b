package validation

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

// Postal code followed by a zone number, alone or as a range.
var zoneDataPatterns = map[string]*regexp.Regexp{
	domain.SchemeZIP: regexp.MustCompile(`\d{5}(?:\s*[-–—]\s*\d{5})?\s+\d+`),
	domain.SchemeFSA: regexp.MustCompile(`(?i)[A-Z]\d[A-Z](?:\s*[-–—]\s*[A-Z]\d[A-Z])?\s+[A-Z0-9]+`),
}

// DocumentValidator checks that an extracted document looks like a zone
// chart of the configured carrier before it is parsed.
type DocumentValidator struct {
	carrier string
	pattern *regexp.Regexp
}

// NewDocumentValidator creates a validator for carrier's charts using the
// postal scheme's data pattern.
func NewDocumentValidator(carrier string, scheme domain.Scheme) *DocumentValidator {
	pattern, ok := zoneDataPatterns[scheme.Name()]
	if !ok {
		pattern = zoneDataPatterns[domain.SchemeZIP]
	}
	return &DocumentValidator{carrier: strings.ToLower(strings.TrimSpace(carrier)), pattern: pattern}
}

// Validate returns a PARSING error naming the missing markers.
func (v *DocumentValidator) Validate(doc domain.Document) error {
	text := doc.Text()
	lower := strings.ToLower(text)

	var missing []string
	if v.carrier != "" && !strings.Contains(lower, v.carrier) {
		missing = append(missing, fmt.Sprintf("carrier %q", v.carrier))
	}
	if !strings.Contains(lower, "zone") {
		missing = append(missing, `"zone"`)
	}
	if !v.pattern.MatchString(text) {
		missing = append(missing, "postal code and zone data")
	}
	if len(missing) > 0 {
		return apperrors.NewParsingError(
			fmt.Sprintf("document does not look like a zone chart: missing %s", strings.Join(missing, ", ")), nil).
			WithContext("file", doc.Name)
	}
	return nil
}
