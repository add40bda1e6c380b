package zoning

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/emirpasic/gods/v2/sets/treeset"

	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

// ConflictPolicy decides which record owns a stretch of postal codes claimed
// by records with different zones.
type ConflictPolicy string

const (
	// LastWriteWins keeps the zone from the most recent source.
	LastWriteWins ConflictPolicy = "last-write-wins"
	// FirstWriteWins keeps the zone from the earliest source.
	FirstWriteWins ConflictPolicy = "first-write-wins"
	// DropConflicts leaves conflicting stretches uncovered.
	DropConflicts ConflictPolicy = "drop"
)

// ParseConflictPolicy parses a configured policy name. Empty means LastWriteWins.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return LastWriteWins, nil
	case LastWriteWins, FirstWriteWins, DropConflicts:
		return p, nil
	default:
		return "", apperrors.NewConfigError(fmt.Sprintf("unknown conflict policy %q", s), nil)
	}
}

// Conflict describes one maximal stretch of postal codes where overlapping
// records disagree on the zone.
type Conflict struct {
	Origin            domain.GroupKey
	Start             domain.Key
	End               domain.Key
	Winner            domain.Zone // empty under DropConflicts
	WinnerSource      domain.Source
	Overridden        []domain.Zone
	OverriddenSources []domain.Source
}

// Diagnostic renders the conflict as a ZoneConflict diagnostic.
func (c Conflict) Diagnostic(scheme domain.Scheme) domain.Diagnostic {
	zones := make([]string, 0, len(c.Overridden))
	for _, z := range c.Overridden {
		zones = append(zones, string(z))
	}
	srcs := make([]string, 0, len(c.OverriddenSources))
	for _, s := range c.OverriddenSources {
		srcs = append(srcs, s.String())
	}

	detail := fmt.Sprintf("kept zone %s from %s, overrode zones %s from %s",
		c.Winner, c.WinnerSource, strings.Join(zones, ","), strings.Join(srcs, "; "))
	if c.Winner.IsEmpty() {
		detail = fmt.Sprintf("dropped zones %s from %s", strings.Join(zones, ","), strings.Join(srcs, "; "))
	}
	return domain.Diagnostic{
		Origin:   c.Origin,
		Reason:   domain.ReasonZoneConflict,
		Severity: domain.SeverityWarning,
		Input:    fmt.Sprintf("%s-%s", scheme.Format(c.Start), scheme.Format(c.End)),
		Detail:   detail,
		Source:   c.WinnerSource,
	}
}

// MergeResult is the disjoint record set for one origin plus what the merge
// had to resolve on the way.
type MergeResult struct {
	Records    []domain.RangeRecord
	Conflicts  []Conflict
	Duplicates int
}

// compareSources orders provenance by recency. Seq dominates; document,
// page and row order records of the same pass.
func compareSources(a, b domain.Source) int {
	if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
		return c
	}
	if c := strings.Compare(a.Document, b.Document); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Page, b.Page); c != 0 {
		return c
	}
	return cmp.Compare(a.Row, b.Row)
}

func compareRecords(a, b domain.RangeRecord) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(a.End, b.End); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Zone), string(b.Zone)); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Origin), string(b.Origin)); c != 0 {
		return c
	}
	return compareSources(a.Source, b.Source)
}

// Merge reduces the validated records of one origin to a sorted, disjoint
// set. Records must already satisfy Validate.
//
// The merge sweeps the elementary segments between all range boundaries.
// Each segment goes to the record the policy picks among those covering it.
// Segments covered by differing zones are reported as conflicts, and
// adjacent segments of equal zone are coalesced. The result does not depend
// on the order of records, and merging a merged set returns it unchanged.
func Merge(records []domain.RangeRecord, policy ConflictPolicy) MergeResult {
	if len(records) == 0 {
		return MergeResult{Records: []domain.RangeRecord{}}
	}
	if policy == "" {
		policy = LastWriteWins
	}

	sorted := slices.Clone(records)
	slices.SortFunc(sorted, compareRecords)

	var res MergeResult
	recs := sorted[:0]
	for _, r := range sorted {
		if n := len(recs); n > 0 && recs[n-1].SameFact(r) {
			// sorted by recency within a fact, so r is the newer copy
			recs[n-1] = r
			res.Duplicates++
			continue
		}
		recs = append(recs, r)
	}

	bounds := make([]domain.Key, 0, 2*len(recs))
	for _, r := range recs {
		bounds = append(bounds, r.Start, r.End+1)
	}
	slices.Sort(bounds)
	bounds = slices.Compact(bounds)

	byPriority := func(a, b int) int {
		if c := compareSources(recs[a].Source, recs[b].Source); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	}
	byEnd := func(a, b int) int {
		if c := cmp.Compare(recs[a].End, recs[b].End); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	}
	active := treeset.NewWith[int](byPriority)
	expiring := treeset.NewWith[int](byEnd)
	zones := make(map[domain.Zone]int)

	var segments []domain.RangeRecord
	var open *Conflict
	closeConflict := func() {
		if open != nil {
			res.Conflicts = append(res.Conflicts, *open)
			open = nil
		}
	}

	next := 0
	for i := 0; i+1 < len(bounds); i++ {
		lo, hi := bounds[i], bounds[i+1]-1

		for expiring.Size() > 0 {
			it := expiring.Iterator()
			it.First()
			id := it.Value()
			if recs[id].End >= lo {
				break
			}
			expiring.Remove(id)
			active.Remove(id)
			if zones[recs[id].Zone]--; zones[recs[id].Zone] == 0 {
				delete(zones, recs[id].Zone)
			}
		}
		for next < len(recs) && recs[next].Start == lo {
			active.Add(next)
			expiring.Add(next)
			zones[recs[next].Zone]++
			next++
		}

		if active.Size() == 0 {
			closeConflict()
			continue
		}

		it := active.Iterator()
		if policy == FirstWriteWins {
			it.First()
		} else {
			it.Last()
		}
		winner := recs[it.Value()]

		if len(zones) < 2 {
			closeConflict()
		} else {
			open = extendConflict(open, recs, active.Values(), winner, policy, lo, hi, &res)
			if policy == DropConflicts {
				continue
			}
		}

		segments = append(segments, domain.RangeRecord{
			Start:  lo,
			End:    hi,
			Zone:   winner.Zone,
			Origin: winner.Origin,
			Source: winner.Source,
		})
	}
	closeConflict()

	res.Records = coalesce(segments)
	return res
}

// extendConflict grows the open conflict over [lo, hi] or starts a new one
// when the stretch is not contiguous or its winning zone changed.
func extendConflict(open *Conflict, recs []domain.RangeRecord, ids []int, winner domain.RangeRecord,
	policy ConflictPolicy, lo, hi domain.Key, res *MergeResult) *Conflict {

	winZone := winner.Zone
	if policy == DropConflicts {
		winZone = ""
	}
	if open != nil && (open.End+1 != lo || open.Winner != winZone) {
		res.Conflicts = append(res.Conflicts, *open)
		open = nil
	}
	if open == nil {
		open = &Conflict{
			Origin:       winner.Origin,
			Start:        lo,
			Winner:       winZone,
			WinnerSource: winner.Source,
		}
	}
	open.End = hi

	for _, id := range ids {
		r := recs[id]
		if r.Zone == winZone {
			continue
		}
		if !slices.Contains(open.Overridden, r.Zone) {
			open.Overridden = append(open.Overridden, r.Zone)
		}
		if !slices.Contains(open.OverriddenSources, r.Source) {
			open.OverriddenSources = append(open.OverriddenSources, r.Source)
		}
	}
	slices.Sort(open.Overridden)
	slices.SortFunc(open.OverriddenSources, compareSources)
	return open
}

// coalesce joins adjacent segments of equal zone. The joined record keeps
// the most recent source among its parts.
func coalesce(segments []domain.RangeRecord) []domain.RangeRecord {
	out := make([]domain.RangeRecord, 0, len(segments))
	for _, s := range segments {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Zone == s.Zone && last.Origin == s.Origin && last.End+1 >= s.Start {
				if s.End > last.End {
					last.End = s.End
				}
				if compareSources(s.Source, last.Source) > 0 {
					last.Source = s.Source
				}
				continue
			}
		}
		out = append(out, s)
	}
	return out
}
