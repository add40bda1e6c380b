package derived

import (
	"context"
	"log/slog"
	"strings"

	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

// ServiceDef describes how to find one service's rate pages: a page whose
// first lines carry Search and "Rates" starts PageCount pages of tables.
type ServiceDef struct {
	Name      string `yaml:"name" json:"name"`
	Search    string `yaml:"search" json:"search"`
	PageCount int    `yaml:"page_count" json:"page_count"`
	Freight   bool   `yaml:"freight" json:"freight"`
}

// DefaultServices are the services of the carrier's Canadian rate guide.
var DefaultServices = []ServiceDef{
	{Name: "FedEx First Overnight", Search: "FedEx First Overnight", PageCount: 4},
	{Name: "FedEx Priority Overnight", Search: "FedEx Priority Overnight", PageCount: 4},
	{Name: "FedEx Standard Overnight", Search: "FedEx Standard Overnight", PageCount: 4},
	{Name: "FedEx 2Day", Search: "FedEx 2Day", PageCount: 4},
	{Name: "FedEx Economy", Search: "FedEx Economy", PageCount: 4},
	{Name: "FedEx 1Day Freight", Search: "FedEx 1Day", PageCount: 2, Freight: true},
}

// Page titles of the zone index tables.
const (
	AreaIndexTitle   = "Postal Code Zone Index"
	ZoneMatrixTitle  = "Intra-Canada Zone Index"
	serviceTitleWord = "Rates"
	titleLines       = 5
)

// ServicePages is a detected service and the page indexes it spans.
type ServicePages struct {
	ServiceDef
	First int
	Last  int
}

// DetectServicePages finds each service's first page by title. A page
// already claimed by an earlier service is not reused.
func DetectServicePages(doc domain.Document, defs []ServiceDef) []ServicePages {
	var found []ServicePages
	claimed := func(i int) bool {
		for _, s := range found {
			if i >= s.First && i <= s.Last {
				return true
			}
		}
		return false
	}

	for _, def := range defs {
		for i, page := range doc.Pages {
			if !hasTitle(page, def.Search) || claimed(i) {
				continue
			}
			last := i + def.PageCount - 1
			if last >= len(doc.Pages) {
				last = len(doc.Pages) - 1
			}
			found = append(found, ServicePages{ServiceDef: def, First: i, Last: last})
			break
		}
	}
	return found
}

func hasTitle(page domain.Page, search string) bool {
	for i, row := range page.Rows {
		if i >= titleLines {
			break
		}
		line := row.Text()
		if strings.Contains(line, search) && strings.Contains(line, serviceTitleWord) {
			return true
		}
	}
	return false
}

// findPage returns the index of the first page containing title, or -1.
func findPage(doc domain.Document, title string) int {
	for i, page := range doc.Pages {
		if strings.Contains(page.Text(), title) {
			return i
		}
	}
	return -1
}

// Tariff is everything read from one derived-zone rate guide.
type Tariff struct {
	Areas       *zoning.OriginZoneIndex
	Matrix      *ZoneMatrix
	Rates       *RateBook
	Diagnostics []domain.Diagnostic
}

// Resolver returns a zone resolver over the tariff's area index and matrix.
func (t *Tariff) Resolver(opts ...ResolverOption) *Resolver {
	return NewResolver(t.Areas, t.Matrix, opts...)
}

// ParseTariff reads the zone index pages and every detected service's rate
// tables. withZones is false when only rates are needed.
func ParseTariff(ctx context.Context, doc domain.Document, defs []ServiceDef, withZones bool, logger *slog.Logger) (*Tariff, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "tariff"), slog.String("document", doc.Name))
	if len(defs) == 0 {
		defs = DefaultServices
	}

	t := &Tariff{Rates: NewRateBook()}

	if withZones {
		areaPage := findPage(doc, AreaIndexTitle)
		matrixPage := findPage(doc, ZoneMatrixTitle)
		if areaPage < 0 || matrixPage < 0 {
			return nil, apperrors.NewParsingError("zone index pages not found", nil).
				WithContext("document", doc.Name).
				WithContext("area_index_page", areaPage+1).
				WithContext("zone_matrix_page", matrixPage+1)
		}

		areas, report, err := ParseAreaIndex(ctx, doc.Pages[areaPage], logger)
		if err != nil {
			return nil, err
		}
		t.Areas = areas
		t.Diagnostics = append(t.Diagnostics, report.Diagnostics...)

		matrix, diags := ParseZoneMatrix(doc.Pages[matrixPage], logger)
		t.Matrix = matrix
		t.Diagnostics = append(t.Diagnostics, diags...)

		logger.Info("zone index parsed",
			slog.Int("area_index_page", areaPage+1),
			slog.Int("area_ranges", areas.Len()),
			slog.Int("zone_matrix_page", matrixPage+1),
			slog.Int("matrix_cells", matrix.Len()))
	}

	for _, sp := range DetectServicePages(doc, defs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages := doc.Pages[sp.First : sp.Last+1]
		var table *RateTable
		if sp.Freight {
			table = ParseFreightRates(sp.Name, pages)
		} else {
			table = ParsePackageRates(sp.Name, pages)
		}
		t.Rates.Add(table)
		logger.Info("service rates parsed",
			slog.String("service", sp.Name),
			slog.Int("first_page", sp.First+1),
			slog.Int("last_page", sp.Last+1),
			slog.Int("weights", len(table.Weights())),
			slog.Int("rates", table.Len()))
	}
	return t, nil
}
