// Command locator finds the published carrier documents covering a set of
// origin postal codes and prints their URLs. Codes come from the command
// line, -codes, or the postal code column of a mapping workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"zonesheet/internal/app"
	"zonesheet/internal/exporter"
	"zonesheet/internal/locator"
	"zonesheet/internal/ratesheet"
	"zonesheet/pkg/contracts/domain"
)

const reportFile = "locator_blocks.csv"

type options struct {
	baseURL  string
	codes    []string
	mappings string
}

func main() {
	configFile := flag.String("config", "", "config file (defaults to config.yaml lookup)")
	baseURL := flag.String("base", "", "document base URL, overrides the configuration")
	codes := flag.String("codes", "", "comma separated postal codes")
	mappings := flag.String("mappings", "", "mapping workbook to take postal codes from")
	flag.Parse()

	rt, err := app.Setup("locator", *configFile)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	ctx, cancel := rt.Context()
	defer cancel()

	opts := options{
		baseURL:  *baseURL,
		codes:    append(splitList(*codes), flag.Args()...),
		mappings: *mappings,
	}
	if err := run(ctx, rt, opts, os.Stdout); err != nil {
		rt.Fatal("Document lookup failed", err)
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

func run(ctx context.Context, rt *app.Runtime, opts options, stdout io.Writer) error {
	cfg := rt.Config.Locator
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	loc, err := locator.New(cfg, rt.Logger)
	if err != nil {
		return err
	}

	codes := opts.codes
	if opts.mappings != "" {
		m, err := ratesheet.ReadMappings(opts.mappings, domain.ZIP)
		if err != nil {
			return err
		}
		for _, row := range m {
			codes = append(codes, row.PostalCode)
		}
	}
	if len(codes) == 0 {
		return fmt.Errorf("no postal codes given")
	}

	ctx, span := rt.Telemetry.StartStage(ctx, "locate")
	defer span.End()

	report, err := loc.Find(ctx, codes)
	if err != nil {
		return err
	}

	records := make([][]string, 0, len(report.Covered)+len(report.Uncovered))
	covered := make([]string, 0, len(report.Covered))
	for code := range report.Covered {
		covered = append(covered, code)
	}
	slices.Sort(covered)
	for _, code := range covered {
		b := report.Covered[code]
		records = append(records, []string{code, string(b.Key()), b.URL})
	}
	for _, code := range report.Uncovered {
		records = append(records, []string{code, "", ""})
	}
	path := rt.Paths.GetReportPath(reportFile)
	if err := exporter.NewCSVWriter("").WriteSimpleCSV(path, []string{"Postal Code", "Block", "URL"}, records); err != nil {
		return err
	}

	for _, url := range report.URLs() {
		fmt.Fprintln(stdout, url)
	}
	rt.Logger.Info("Documents located",
		slog.Int("blocks", len(report.Blocks)),
		slog.Int("uncovered", len(report.Uncovered)),
		slog.Int("invalid", len(report.Invalid)),
		slog.Int("requests", report.Requests),
		slog.String("report", path))
	return nil
}
