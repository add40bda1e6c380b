package ratesheet

import (
	"fmt"
	"log/slog"
	"strings"

	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

// Group is one SSL and its distinct origin postal codes in first-seen order.
type Group struct {
	SSL         string
	PostalCodes []string
}

// GroupMappings groups mappings by SSL. Groups and the postal codes within
// each group keep the order they first appear in.
func GroupMappings(mappings []domain.SSLMapping) []Group {
	var groups []Group
	index := make(map[string]int)
	seen := make(map[[2]string]bool)

	for _, m := range mappings {
		ssl := strings.TrimSpace(m.SSL)
		postal := strings.TrimSpace(m.PostalCode)
		if ssl == "" || postal == "" {
			continue
		}
		i, ok := index[ssl]
		if !ok {
			i = len(groups)
			index[ssl] = i
			groups = append(groups, Group{SSL: ssl})
		}
		if seen[[2]string{ssl, postal}] {
			continue
		}
		seen[[2]string{ssl, postal}] = true
		groups[i].PostalCodes = append(groups[i].PostalCodes, postal)
	}
	return groups
}

// SheetResult is the assembled content of one SSL's rate sheet.
type SheetResult struct {
	SSL         string
	Rows        []domain.RateSheetRow
	Origins     []domain.GroupKey
	Duplicates  int
	Diagnostics []domain.Diagnostic
}

// Empty reports whether no zone data was found for the SSL.
func (r SheetResult) Empty() bool {
	return len(r.Rows) == 0
}

// Assembler joins SSL mappings against a catalog of origin zone indexes.
// It only reads the catalog, so one Assembler may serve concurrent groups.
type Assembler struct {
	catalog *zoning.Catalog
	meta    domain.SheetMeta
	logger  *slog.Logger
}

// NewAssembler creates an assembler attaching meta to every row.
func NewAssembler(catalog *zoning.Catalog, meta domain.SheetMeta, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		catalog: catalog,
		meta:    meta,
		logger:  logger.With(slog.String("component", "assembler")),
	}
}

// Assemble produces one result per SSL group, in first-seen order.
func (a *Assembler) Assemble(mappings []domain.SSLMapping) []SheetResult {
	groups := GroupMappings(mappings)
	results := make([]SheetResult, 0, len(groups))
	for _, g := range groups {
		results = append(results, a.AssembleGroup(g))
	}
	return results
}

// AssembleGroup builds the rows of one SSL. An origin postal code without a
// zone index yields a MissingZoneData diagnostic and contributes no rows.
// Postal codes sharing an index contribute its ranges once. Rows identical
// in country, zone, start and end are written once.
func (a *Assembler) AssembleGroup(g Group) SheetResult {
	res := SheetResult{SSL: g.SSL}
	seen := make(map[[4]string]bool)
	used := make(map[domain.GroupKey]bool)
	scheme := a.catalog.Scheme()

	for _, postal := range g.PostalCodes {
		ix, key, ok := a.catalog.Resolve(postal)
		if !ok {
			if key == "" {
				key = domain.GroupKey(postal)
			}
			res.Diagnostics = append(res.Diagnostics, domain.Diagnostic{
				Origin:   key,
				Reason:   domain.ReasonMissingZoneData,
				Severity: domain.SeverityError,
				Input:    postal,
				Detail:   fmt.Sprintf("no zone table for SSL %s", g.SSL),
			})
			a.logger.Warn("no zone data for origin",
				slog.String("ssl", g.SSL),
				slog.String("postal_code", postal))
			continue
		}
		if used[ix.GroupKey()] {
			continue
		}
		used[ix.GroupKey()] = true
		res.Origins = append(res.Origins, ix.GroupKey())

		for _, r := range ix.Ranges() {
			row := domain.RateSheetRow{
				SSL:           g.SSL,
				Origin:        ix.GroupKey(),
				CountryName:   a.meta.CountryName,
				CountrySymbol: a.meta.CountrySymbol,
				Zone:          r.Zone,
				Start:         scheme.Format(r.Start),
				End:           scheme.Format(r.End),
			}
			if seen[row.DedupKey()] {
				res.Duplicates++
				continue
			}
			seen[row.DedupKey()] = true
			res.Rows = append(res.Rows, row)
		}
	}

	a.logger.Debug("ssl assembled",
		slog.String("ssl", g.SSL),
		slog.Int("origins", len(res.Origins)),
		slog.Int("rows", len(res.Rows)),
		slog.Int("duplicates", res.Duplicates),
		slog.Int("missing", len(res.Diagnostics)))
	return res
}
