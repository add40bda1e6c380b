package derived

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"zonesheet/internal/classify"
	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

// DefaultAreaCodes are the destination area columns of the intra-country
// zone matrix, used when the matrix page has no readable header row.
var DefaultAreaCodes = []string{
	"DA", "DB", "DC", "DD", "DE", "DF", "DG", "DH", "DI", "DJ",
	"DK", "DL", "DM", "DN", "DO", "DP", "DQ", "DR", "DS", "DT",
	"DU", "DV", "DW", "DX", "DY", "DZ",
}

// AreaIndexOrigin is the group key under which the area index is built.
const AreaIndexOrigin domain.GroupKey = "area-index"

// ParseAreaIndex reads the page mapping FSA ranges to area codes, e.g.
// "A0A—A9Z DA" or a lone "M5V DM". The result is an ordinary zone index
// whose zones are area codes.
func ParseAreaIndex(ctx context.Context, page domain.Page, logger *slog.Logger) (*zoning.OriginZoneIndex, zoning.BuildReport, error) {
	opts := classify.DefaultOptions(domain.FSA)
	opts.AlphaZones = true
	opts.StrictCodes = true
	c := classify.New(AreaIndexOrigin, opts, logger)

	ix, report, err := zoning.Build(ctx, AreaIndexOrigin, c.ClassifyPage(page), zoning.BuildOptions{
		Scheme: domain.FSA,
		Policy: zoning.LastWriteWins,
		Logger: logger,
	})
	report.Diagnostics = append(c.Diagnostics(), report.Diagnostics...)
	return ix, report, err
}

type areaPair struct {
	origin string
	dest   string
}

// ZoneMatrix maps (origin area, destination area) to a numeric zone.
type ZoneMatrix struct {
	cells   map[areaPair]domain.Zone
	origins []string
	dests   []string
}

// ParseZoneMatrix reads the intra-country zone matrix page. Rows are origin
// areas, columns destination areas; unavailable cells are left out.
func ParseZoneMatrix(page domain.Page, logger *slog.Logger) (*ZoneMatrix, []domain.Diagnostic) {
	m, diags := parseMatrix(page, logger)
	if m.Len() > 0 {
		return m, diags
	}

	// headerless matrix: assume the default destination columns
	header := domain.Row{Cells: DefaultAreaCodes}
	withHeader := page
	withHeader.Rows = append([]domain.Row{header}, page.Rows...)
	return parseMatrix(withHeader, logger)
}

func parseMatrix(page domain.Page, logger *slog.Logger) (*ZoneMatrix, []domain.Diagnostic) {
	opts := classify.DefaultOptions(domain.FSA)
	opts.StrictCodes = true
	c := classify.New("zone-matrix", opts, logger)

	m := &ZoneMatrix{cells: make(map[areaPair]domain.Zone)}
	for cand := range c.ClassifyPage(page) {
		if cand.Layout != classify.LayoutMatrix {
			continue
		}
		z := domain.NormalizeZone(cand.Zone)
		if z.IsEmpty() {
			continue
		}
		m.cells[areaPair{origin: cand.RowLabel, dest: cand.Start}] = z
		if !slices.Contains(m.origins, cand.RowLabel) {
			m.origins = append(m.origins, cand.RowLabel)
		}
		if !slices.Contains(m.dests, cand.Start) {
			m.dests = append(m.dests, cand.Start)
		}
	}
	sort.Strings(m.origins)
	sort.Strings(m.dests)
	return m, c.Diagnostics()
}

// NewZoneMatrix builds a matrix from explicit cells, keyed origin then
// destination area.
func NewZoneMatrix(cells map[string]map[string]string) *ZoneMatrix {
	m := &ZoneMatrix{cells: make(map[areaPair]domain.Zone)}
	for o, row := range cells {
		o = strings.ToUpper(o)
		m.origins = append(m.origins, o)
		for d, v := range row {
			d = strings.ToUpper(d)
			if z := domain.NormalizeZone(v); !z.IsEmpty() {
				m.cells[areaPair{origin: o, dest: d}] = z
				if !slices.Contains(m.dests, d) {
					m.dests = append(m.dests, d)
				}
			}
		}
	}
	sort.Strings(m.origins)
	sort.Strings(m.dests)
	return m
}

// Zone returns the zone between two areas.
func (m *ZoneMatrix) Zone(origin, dest string) (domain.Zone, bool) {
	z, ok := m.cells[areaPair{origin: origin, dest: dest}]
	return z, ok
}

// Len returns the number of populated cells.
func (m *ZoneMatrix) Len() int {
	return len(m.cells)
}

// Origins returns the origin areas in ascending order.
func (m *ZoneMatrix) Origins() []string {
	return slices.Clone(m.origins)
}

// Destinations returns the destination areas in ascending order.
func (m *ZoneMatrix) Destinations() []string {
	return slices.Clone(m.dests)
}
