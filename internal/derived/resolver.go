package derived

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"zonesheet/internal/classify"
	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

// FallbackZone is assigned when the matrix has no cell for an area pair.
const FallbackZone domain.Zone = "16"

// Resolver computes destination zones for an origin from the area index and
// the zone matrix instead of reading them from a table.
type Resolver struct {
	areas    *zoning.OriginZoneIndex
	matrix   *ZoneMatrix
	fallback domain.Zone
	logger   *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFallbackZone overrides FallbackZone.
func WithFallbackZone(z domain.Zone) ResolverOption {
	return func(r *Resolver) { r.fallback = z }
}

// WithLogger sets the resolver's logger.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver over an area index built by ParseAreaIndex.
func NewResolver(areas *zoning.OriginZoneIndex, matrix *ZoneMatrix, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		areas:    areas,
		matrix:   matrix,
		fallback: FallbackZone,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "derived_resolver"))
	return r
}

// OriginKey returns the group key an origin postal code resolves under.
func OriginKey(originPostal string) (domain.GroupKey, error) {
	k, err := domain.FSA.Parse(originPostal)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}
	return domain.GroupKey(domain.FSA.Format(k)), nil
}

// Resolve produces one candidate per destination range of the area index,
// zoned by the matrix cell for (origin area, destination area). Missing
// cells get the fallback zone and a MatrixCellMissing warning.
func (r *Resolver) Resolve(originPostal string) ([]classify.Candidate, []domain.Diagnostic, error) {
	origin, err := OriginKey(originPostal)
	if err != nil {
		return nil, nil, err
	}
	originArea, err := r.areas.LookupString(string(origin))
	if err != nil {
		return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("area code for origin %s", origin)).
			WithContext("origin", string(origin))
	}

	var cands []classify.Candidate
	var diags []domain.Diagnostic
	for _, dest := range r.areas.Ranges() {
		destArea := string(dest.Zone)
		zone, ok := r.matrix.Zone(string(originArea), destArea)
		if !ok {
			zone = r.fallback
			diags = append(diags, domain.Diagnostic{
				Origin:   origin,
				Reason:   domain.ReasonMatrixCellMissing,
				Severity: domain.SeverityWarning,
				Input:    fmt.Sprintf("%s×%s", originArea, destArea),
				Detail:   fmt.Sprintf("no matrix cell, using zone %s", zone),
				Source:   dest.Source,
			})
		}
		cands = append(cands, classify.Candidate{
			Layout:   classify.LayoutMatrix,
			Start:    domain.FSA.Format(dest.Start),
			End:      domain.FSA.Format(dest.End),
			Zone:     string(zone),
			RowLabel: string(originArea),
			Source:   dest.Source,
		})
	}

	r.logger.Debug("origin resolved",
		slog.String("origin", string(origin)),
		slog.String("area", string(originArea)),
		slog.Int("ranges", len(cands)),
		slog.Int("missing_cells", len(diags)))
	return cands, diags, nil
}

// Build resolves originPostal and runs the result through the same
// normalize and merge pipeline as directly read tables.
func (r *Resolver) Build(ctx context.Context, originPostal string, policy zoning.ConflictPolicy) (*zoning.OriginZoneIndex, zoning.BuildReport, error) {
	cands, diags, err := r.Resolve(originPostal)
	if err != nil {
		return nil, zoning.BuildReport{}, err
	}
	origin, _ := OriginKey(originPostal)
	ix, report, err := zoning.Build(ctx, origin, slices.Values(cands), zoning.BuildOptions{
		Scheme: domain.FSA,
		Policy: policy,
		Logger: r.logger,
	})
	report.Diagnostics = append(diags, report.Diagnostics...)
	return ix, report, err
}
