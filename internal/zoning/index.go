package zoning

import (
	"errors"
	"fmt"
	"slices"

	"github.com/emirpasic/gods/v2/maps/treemap"

	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

// ErrNotFound is returned when no range covers a postal code.
var ErrNotFound = errors.New("no zone data for postal code")

// OriginZoneIndex answers point lookups against the merged ranges of one
// origin. It is immutable once built; a rebuild produces a new index.
type OriginZoneIndex struct {
	origin domain.GroupKey
	scheme domain.Scheme
	tree   *treemap.Map[domain.Key, domain.RangeRecord]
	ranges []domain.RangeRecord
}

// NewOriginZoneIndex indexes records, which must be sorted by start and
// pairwise disjoint as Merge returns them.
func NewOriginZoneIndex(origin domain.GroupKey, scheme domain.Scheme, records []domain.RangeRecord) (*OriginZoneIndex, error) {
	tree := treemap.New[domain.Key, domain.RangeRecord]()
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, apperrors.NewValidationError(err.Error()).WithContext("origin", string(origin))
		}
		if i > 0 && records[i-1].End >= r.Start {
			return nil, apperrors.NewValidationError(fmt.Sprintf("ranges %s-%s and %s-%s are not disjoint and ascending",
				scheme.Format(records[i-1].Start), scheme.Format(records[i-1].End),
				scheme.Format(r.Start), scheme.Format(r.End))).WithContext("origin", string(origin))
		}
		tree.Put(r.Start, r)
	}
	return &OriginZoneIndex{
		origin: origin,
		scheme: scheme,
		tree:   tree,
		ranges: slices.Clone(records),
	}, nil
}

// Lookup returns the zone covering k.
func (ix *OriginZoneIndex) Lookup(k domain.Key) (domain.Zone, bool) {
	r, ok := ix.Find(k)
	if !ok {
		return "", false
	}
	return r.Zone, true
}

// Find returns the range covering k.
func (ix *OriginZoneIndex) Find(k domain.Key) (domain.RangeRecord, bool) {
	_, r, ok := ix.tree.Floor(k)
	if !ok || r.End < k {
		return domain.RangeRecord{}, false
	}
	return r, true
}

// LookupString parses code with the index's scheme and looks it up.
func (ix *OriginZoneIndex) LookupString(code string) (domain.Zone, error) {
	k, err := ix.scheme.Parse(code)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}
	z, ok := ix.Lookup(k)
	if !ok {
		return "", fmt.Errorf("%s in %s: %w", ix.scheme.Format(k), ix.origin, ErrNotFound)
	}
	return z, nil
}

// Ranges returns a copy of the indexed ranges in ascending order.
func (ix *OriginZoneIndex) Ranges() []domain.RangeRecord {
	return slices.Clone(ix.ranges)
}

// Len returns the number of ranges.
func (ix *OriginZoneIndex) Len() int {
	return len(ix.ranges)
}

// GroupKey returns the origin group the index belongs to.
func (ix *OriginZoneIndex) GroupKey() domain.GroupKey {
	return ix.origin
}

// Scheme returns the postal scheme of the indexed keys.
func (ix *OriginZoneIndex) Scheme() domain.Scheme {
	return ix.scheme
}
