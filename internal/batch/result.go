package batch

import (
	"cmp"
	"slices"

	"zonesheet/internal/classify"
	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

// FileFailure is a document or table that could not be used.
type FileFailure struct {
	Path string
	Err  error
}

// Result is the outcome of BuildZones. Processed and Failed partition the
// input documents; callers archive the first and move the second aside.
type Result struct {
	Catalog     *zoning.Catalog
	Reports     []zoning.BuildReport
	Stats       classify.Stats
	Processed   []string
	Failed      []FileFailure
	Diagnostics []domain.Diagnostic
}

func newResult(catalog *zoning.Catalog) *Result {
	return &Result{Catalog: catalog}
}

func (r *Result) fail(path string, err error) {
	r.Failed = append(r.Failed, FileFailure{Path: path, Err: err})
	slices.SortStableFunc(r.Failed, func(a, b FileFailure) int { return cmp.Compare(a.Path, b.Path) })
}

// Report returns the build report of origin.
func (r *Result) Report(origin domain.GroupKey) (zoning.BuildReport, bool) {
	for _, rep := range r.Reports {
		if rep.Origin == origin {
			return rep, true
		}
	}
	return zoning.BuildReport{}, false
}

// Counts sums diagnostics by reason.
func (r *Result) Counts() map[domain.Reason]int {
	return domain.CountByReason(r.Diagnostics)
}
