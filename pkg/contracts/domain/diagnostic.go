package domain

import (
	"fmt"
)

// Reason classifies a diagnostic.
type Reason string

const (
	// ReasonMalformedRow means a row matched no known layout and was skipped.
	ReasonMalformedRow Reason = "MALFORMED_ROW"
	// ReasonInvalidRange means start or end is not a postal code of the origin's scheme.
	ReasonInvalidRange Reason = "INVALID_RANGE"
	// ReasonRangeSwapped means start was after end; the record was kept with the bounds swapped.
	ReasonRangeSwapped Reason = "RANGE_SWAPPED"
	// ReasonZoneUnavailable means the zone label was empty or an NA marker.
	ReasonZoneUnavailable Reason = "ZONE_UNAVAILABLE"
	// ReasonZoneConflict means overlapping records disagree on the zone.
	ReasonZoneConflict Reason = "ZONE_CONFLICT"
	// ReasonMissingZoneData means an origin postal code has no zone index.
	ReasonMissingZoneData Reason = "MISSING_ZONE_DATA"
	// ReasonMatrixCellMissing means a derived zone fell back to the default zone.
	ReasonMatrixCellMissing Reason = "MATRIX_CELL_MISSING"
	// ReasonSchemaError means an input file lacks required columns.
	ReasonSchemaError Reason = "SCHEMA_ERROR"
)

// Severity of a diagnostic
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityRejected Severity = "rejected"
	SeverityError    Severity = "error"
)

// Diagnostic is a structured report of a recoverable problem. Diagnostics
// accumulate through a run so a later fix pass can act on them.
type Diagnostic struct {
	Origin   GroupKey `json:"origin"`
	Reason   Reason   `json:"reason"`
	Severity Severity `json:"severity"`
	Input    string   `json:"input"`
	Detail   string   `json:"detail,omitempty"`
	Source   Source   `json:"source"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s %s: %s (%s)", d.Severity, d.Origin, d.Reason, d.Input, d.Detail)
}

// CountByReason tallies diagnostics per reason.
func CountByReason(diags []Diagnostic) map[Reason]int {
	counts := make(map[Reason]int)
	for _, d := range diags {
		counts[d.Reason]++
	}
	return counts
}

// Rejects reports whether the diagnostic discards its input rather than
// merely warning about it.
func (d Diagnostic) Rejects() bool {
	return d.Severity == SeverityRejected || d.Severity == SeverityError
}
