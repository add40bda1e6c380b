package zoning

import (
	"context"
	"iter"
	"log/slog"

	"zonesheet/internal/classify"
	"zonesheet/pkg/contracts/domain"
)

// BuildOptions configures the per-origin pipeline.
type BuildOptions struct {
	Scheme domain.Scheme
	Policy ConflictPolicy
	Logger *slog.Logger
}

// BuildReport summarizes one origin's build.
type BuildReport struct {
	Origin      domain.GroupKey     `json:"origin"`
	Candidates  int                 `json:"candidates"`
	Accepted    int                 `json:"accepted"`
	Rejected    int                 `json:"rejected"`
	Swapped     int                 `json:"swapped"`
	Duplicates  int                 `json:"duplicates"`
	Conflicts   int                 `json:"conflicts"`
	Ranges      int                 `json:"ranges"`
	Diagnostics []domain.Diagnostic `json:"diagnostics,omitempty"`
}

const cancelCheckEvery = 1024

// Build runs candidates for one origin through normalization, merging and
// indexing. Rejected candidates and merge conflicts are reported as
// diagnostics; the only error is cancellation of ctx.
func Build(ctx context.Context, origin domain.GroupKey, candidates iter.Seq[classify.Candidate], opts BuildOptions) (*OriginZoneIndex, BuildReport, error) {
	if opts.Scheme == nil {
		opts.Scheme = domain.ZIP
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "zoning"), slog.String("origin", string(origin)))

	report := BuildReport{Origin: origin}
	norm := NewNormalizer(origin, opts.Scheme)

	var records []domain.RangeRecord
	for c := range candidates {
		report.Candidates++
		if report.Candidates%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, report, err
			}
		}

		rec, diag := norm.Normalize(c)
		if diag != nil {
			report.Diagnostics = append(report.Diagnostics, *diag)
			if diag.Rejects() {
				report.Rejected++
				continue
			}
			report.Swapped++
		}
		records = append(records, rec)
	}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}
	report.Accepted = len(records)

	merged := Merge(records, opts.Policy)
	report.Duplicates = merged.Duplicates
	report.Conflicts = len(merged.Conflicts)
	for _, c := range merged.Conflicts {
		d := c.Diagnostic(opts.Scheme)
		logger.Warn("zone conflict", slog.String("range", d.Input), slog.String("detail", d.Detail))
		report.Diagnostics = append(report.Diagnostics, d)
	}

	ix, err := NewOriginZoneIndex(origin, opts.Scheme, merged.Records)
	if err != nil {
		return nil, report, err
	}
	report.Ranges = ix.Len()

	logger.Debug("origin built",
		slog.Int("candidates", report.Candidates),
		slog.Int("rejected", report.Rejected),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("conflicts", report.Conflicts),
		slog.Int("ranges", report.Ranges))
	return ix, report, nil
}
