package zoning

import (
	"fmt"

	"zonesheet/internal/classify"
	"zonesheet/pkg/contracts/domain"
)

// Normalizer validates candidates read for one origin and turns them into
// range records.
type Normalizer struct {
	origin domain.GroupKey
	scheme domain.Scheme
}

// NewNormalizer creates a normalizer for origin's postal scheme.
func NewNormalizer(origin domain.GroupKey, scheme domain.Scheme) *Normalizer {
	return &Normalizer{origin: origin, scheme: scheme}
}

// Normalize parses the candidate's bounds and canonicalizes its zone.
//
// The returned diagnostic is nil for a clean record. A RangeSwapped warning
// accompanies a valid record whose bounds were listed in reverse. When the
// diagnostic Rejects, the record is the zero value and must be discarded.
func (n *Normalizer) Normalize(c classify.Candidate) (domain.RangeRecord, *domain.Diagnostic) {
	start, errStart := n.scheme.Parse(c.Start)
	end, errEnd := n.scheme.Parse(c.End)
	if errStart != nil || errEnd != nil {
		detail := ""
		if errStart != nil {
			detail = errStart.Error()
		} else {
			detail = errEnd.Error()
		}
		return domain.RangeRecord{}, n.diag(c, domain.ReasonInvalidRange, domain.SeverityRejected, detail)
	}

	zone := domain.NormalizeZone(c.Zone)
	if zone.IsEmpty() {
		return domain.RangeRecord{}, n.diag(c, domain.ReasonZoneUnavailable, domain.SeverityRejected,
			fmt.Sprintf("zone %q is unavailable", c.Zone))
	}

	rec := domain.RangeRecord{
		Start:  start,
		End:    end,
		Zone:   zone,
		Origin: n.origin,
		Source: c.Source,
	}
	if start > end {
		rec.Start, rec.End = end, start
		return rec, n.diag(c, domain.ReasonRangeSwapped, domain.SeverityWarning,
			fmt.Sprintf("stored as %s-%s", n.scheme.Format(rec.Start), n.scheme.Format(rec.End)))
	}
	return rec, nil
}

func (n *Normalizer) diag(c classify.Candidate, reason domain.Reason, sev domain.Severity, detail string) *domain.Diagnostic {
	return &domain.Diagnostic{
		Origin:   n.origin,
		Reason:   reason,
		Severity: sev,
		Input:    fmt.Sprintf("%s-%s %s", c.Start, c.End, c.Zone),
		Detail:   detail,
		Source:   c.Source,
	}
}
