// Command caparse reads the Canadian rate guide and writes a rate workbook:
// an optional Zones sheet for the requested origins followed by one sheet of
// weight by zone rates per service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"zonesheet/internal/app"
	"zonesheet/internal/derived"
	"zonesheet/internal/exporter"
	"zonesheet/internal/extract"
	"zonesheet/internal/files"
	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

const (
	countryName   = "Canada"
	countrySymbol = "CA"
)

type options struct {
	input   string
	output  string
	origins []string
	note    string
}

func main() {
	configFile := flag.String("config", "", "config file (defaults to config.yaml lookup)")
	input := flag.String("in", "", "rate guide (defaults to the newest document in data/input)")
	output := flag.String("out", "", "output workbook (defaults to data/sheets/<guide>_rates.xlsx)")
	origins := flag.String("origins", "", "comma separated origin postal codes for the Zones sheet")
	note := flag.String("note", "", "note printed under each service title")
	flag.Parse()

	rt, err := app.Setup("caparse", *configFile)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	ctx, cancel := rt.Context()
	defer cancel()

	opts := options{input: *input, output: *output, origins: splitList(*origins), note: *note}
	if err := run(ctx, rt, opts); err != nil {
		rt.Fatal("Rate guide parsing failed", err)
	}
	if err := rt.Close(context.Background()); err != nil {
		slog.Error("Failed to flush telemetry", "error", err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func run(ctx context.Context, rt *app.Runtime, opts options) error {
	logger := rt.Logger
	if opts.input == "" {
		inputs, err := files.NewDiscovery("").FindInputs(rt.Paths.InputDir)
		if err != nil {
			return err
		}
		latest, ok := files.GetLatestFile(inputs)
		if !ok {
			return fmt.Errorf("no rate guide found in %s", rt.Paths.InputDir)
		}
		opts.input = latest.Path
	}
	if opts.output == "" {
		base := strings.TrimSuffix(filepath.Base(opts.input), filepath.Ext(opts.input))
		opts.output = filepath.Join(rt.Paths.SheetsDir, base+"_rates.xlsx")
	}

	policy, err := zoning.ParseConflictPolicy(rt.Config.Merge.Policy)
	if err != nil {
		return err
	}

	ctx, span := rt.Telemetry.StartStage(ctx, "tariff")
	defer span.End()

	doc, err := extract.Load(ctx, opts.input)
	if err != nil {
		return err
	}
	tariff, err := derived.ParseTariff(ctx, doc, nil, len(opts.origins) > 0, logger)
	if err != nil {
		return err
	}

	var rows []domain.RateSheetRow
	diags := tariff.Diagnostics
	if len(opts.origins) > 0 {
		resolver := tariff.Resolver(derived.WithLogger(logger))
		for _, origin := range opts.origins {
			ix, report, err := resolver.Build(ctx, origin, policy)
			diags = append(diags, report.Diagnostics...)
			if err != nil {
				logger.Warn("Origin could not be resolved", slog.String("origin", origin), slog.String("error", err.Error()))
				continue
			}
			rt.Telemetry.Metrics.RecordBuild(ctx, string(ix.GroupKey()), report.Accepted, report.Rejected, report.Conflicts)
			rows = append(rows, zoneRows(origin, ix)...)
		}
		if len(rows) == 0 {
			return fmt.Errorf("none of %d origins could be resolved", len(opts.origins))
		}
	}

	if err := os.MkdirAll(filepath.Dir(opts.output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := exporter.WriteRateWorkbook(opts.output, tariff.Rates, exporter.RateWorkbookOptions{Zones: rows, Note: opts.note}); err != nil {
		return err
	}
	rt.Telemetry.Metrics.RecordSheet(ctx, true, 0)

	if len(diags) > 0 {
		report := rt.Paths.GetReportPath("caparse_diagnostics.csv")
		if err := exporter.NewCSVWriter("").WriteDiagnosticsCSV(report, diags); err != nil {
			return err
		}
		logger.Info("Diagnostics written", slog.String("file", report), slog.Int("count", len(diags)))
	}

	logger.Info("Rate workbook written",
		slog.String("input", filepath.Base(opts.input)),
		slog.String("output", opts.output),
		slog.Int("services", len(tariff.Rates.Services())),
		slog.Int("zone_rows", len(rows)))
	return nil
}

// zoneRows lists ix as Zones sheet rows, labelled with the origin code.
func zoneRows(origin string, ix *zoning.OriginZoneIndex) []domain.RateSheetRow {
	scheme := ix.Scheme()
	ranges := ix.Ranges()
	rows := make([]domain.RateSheetRow, 0, len(ranges))
	for _, r := range ranges {
		rows = append(rows, domain.RateSheetRow{
			SSL:           strings.ToUpper(origin),
			Origin:        ix.GroupKey(),
			CountryName:   countryName,
			CountrySymbol: countrySymbol,
			Zone:          r.Zone,
			Start:         scheme.Format(r.Start),
			End:           scheme.Format(r.End),
		})
	}
	return rows
}
