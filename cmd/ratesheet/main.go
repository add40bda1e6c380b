// Command ratesheet builds one rate sheet per SSL from the zone tables and
// the SSL to postal code mapping workbooks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"zonesheet/internal/app"
	"zonesheet/internal/batch"
	"zonesheet/internal/exporter"
	"zonesheet/internal/files"
	"zonesheet/internal/ratesheet"
	"zonesheet/internal/validation"
	"zonesheet/pkg/contracts/domain"
)

const diagnosticsFile = "ratesheet_diagnostics.csv"

type options struct {
	mappings string
	template string
	outDir   string
	client   string
	account  string
}

func main() {
	configFile := flag.String("config", "", "config file (defaults to config.yaml lookup)")
	mappings := flag.String("mappings", "", "mapping workbook or glob such as data/mappings/ssl_*.xlsx (defaults to every workbook in data/mappings)")
	template := flag.String("template", "", "rate sheet template (defaults to the configured template)")
	outDir := flag.String("out", "", "output directory (defaults to data/sheets)")
	client := flag.String("client", "", "client name, overrides the configuration")
	account := flag.String("account", "", "carrier account, overrides the configuration")
	flag.Parse()

	rt, err := app.Setup("ratesheet", *configFile)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	ctx, cancel := rt.Context()
	defer cancel()

	opts := options{mappings: *mappings, template: *template, outDir: *outDir, client: *client, account: *account}
	if err := run(ctx, rt, opts); err != nil {
		rt.Fatal("Rate sheet generation failed", err)
	}
	if err := rt.Close(context.Background()); err != nil {
		slog.Error("Failed to flush telemetry", "error", err)
	}
}

func run(ctx context.Context, rt *app.Runtime, opts options) error {
	logger := rt.Logger
	if opts.template == "" {
		opts.template = rt.Paths.TemplateFile
	}
	if opts.outDir == "" {
		opts.outDir = rt.Paths.SheetsDir
	}

	meta := batch.SheetMeta(rt.Config)
	if opts.client != "" {
		meta.ClientName = opts.client
	}
	if opts.account != "" {
		meta.CarrierAccount = opts.account
	}
	if err := validation.NewStructValidator().ValidateMeta(meta); err != nil {
		return err
	}
	if err := ratesheet.ValidateTemplate(opts.template); err != nil {
		return err
	}
	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(opts.outDir); err != nil {
		return err
	}

	bopts, err := batch.NewOptions(rt.Config)
	if err != nil {
		return err
	}
	driver := batch.NewDriver(bopts, batch.WithLogger(logger), batch.WithTelemetry(rt.Telemetry))

	mappings, err := loadMappings(rt, opts.mappings, bopts.Scheme)
	if err != nil {
		return err
	}

	disc := files.NewDiscovery("")
	tables, err := disc.FindExcelFiles(rt.Paths.ZonesDir)
	if err != nil {
		return err
	}
	paths := make([]string, len(tables))
	for i, f := range tables {
		paths[i] = f.Path
	}
	snapshots, skipped, err := driver.LoadSnapshots(ctx, paths)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		logger.Warn("Zone table ignored", slog.String("file", s.Path), slog.String("error", s.Err.Error()))
	}

	zones, err := driver.BuildZones(ctx, nil, snapshots)
	if err != nil {
		return err
	}
	if zones.Catalog.Len() == 0 {
		return fmt.Errorf("no zone tables in %s", rt.Paths.ZonesDir)
	}

	writer := ratesheet.NewWriter(opts.template, opts.outDir, meta, logger)
	res, err := driver.Assemble(ctx, zones.Catalog, meta, mappings, writer)
	if err != nil {
		return err
	}

	diags := slices.Concat(zones.Diagnostics, res.Diagnostics)
	report := rt.Paths.GetReportPath(diagnosticsFile)
	if err := exporter.NewCSVWriter("").WriteDiagnosticsCSV(report, diags); err != nil {
		return err
	}

	for _, o := range res.Failed() {
		logger.Error("Rate sheet failed", slog.String("ssl", o.Sheet.SSL), slog.String("error", o.Err.Error()))
	}
	written := res.Written()
	logger.Info("Rate sheets complete",
		slog.Int("ssl_groups", len(res.Sheets)),
		slog.Int("written", len(written)),
		slog.Int("failed", len(res.Failed())),
		slog.Int("missing_zone_data", domain.CountByReason(res.Diagnostics)[domain.ReasonMissingZoneData]),
		slog.String("diagnostics_file", report))

	if len(written) == 0 {
		return fmt.Errorf("no rate sheets written for %d SSL groups", len(res.Sheets))
	}
	return nil
}

func loadMappings(rt *app.Runtime, path string, scheme domain.Scheme) ([]domain.SSLMapping, error) {
	var (
		paths []string
		found []files.FileInfo
		err   error
	)
	disc := files.NewDiscovery("")
	switch {
	case path == "":
		path = rt.Paths.MappingsDir
		found, err = disc.FindExcelFiles(path)
	case strings.ContainsAny(filepath.Base(path), "*?["):
		found, err = disc.FindFilesByPattern(filepath.Dir(path), filepath.Base(path))
	default:
		paths = []string{path}
	}
	if err != nil {
		return nil, err
	}
	for _, f := range found {
		paths = append(paths, f.Path)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no mapping workbooks match %s", path)
	}

	var all []domain.SSLMapping
	for _, p := range paths {
		m, err := ratesheet.ReadMappings(p, scheme)
		if err != nil {
			return nil, err
		}
		rt.Logger.Info("Mappings loaded", slog.String("file", p), slog.Int("rows", len(m)))
		all = append(all, m...)
	}
	return all, nil
}
