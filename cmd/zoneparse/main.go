// Command zoneparse reads carrier zone documents from the input directory,
// reconciles them with the zone tables already on disk and writes one zone
// table per origin range group.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"zonesheet/internal/app"
	"zonesheet/internal/batch"
	"zonesheet/internal/config"
	"zonesheet/internal/exporter"
	"zonesheet/internal/files"
	"zonesheet/internal/validation"
)

type options struct {
	inDir     string
	zonesDir  string
	fresh     bool
	keepFiles bool
}

func main() {
	configFile := flag.String("config", "", "config file (defaults to config.yaml lookup)")
	inDir := flag.String("in", "", "carrier documents directory (defaults to data/input)")
	zonesDir := flag.String("zones", "", "zone table directory (defaults to data/zones)")
	fresh := flag.Bool("fresh", false, "ignore existing zone tables")
	keep := flag.Bool("keep", false, "leave documents in place instead of archiving them")
	flag.Parse()

	rt, err := app.Setup("zoneparse", *configFile)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	ctx, cancel := rt.Context()
	defer cancel()

	opts := options{inDir: *inDir, zonesDir: *zonesDir, fresh: *fresh, keepFiles: *keep}
	if err := run(ctx, rt, opts); err != nil {
		rt.Fatal("Zone parsing failed", err)
	}
	if err := rt.Close(context.Background()); err != nil {
		slog.Error("Failed to flush telemetry", "error", err)
	}
}

func run(ctx context.Context, rt *app.Runtime, opts options) error {
	logger := rt.Logger
	if opts.inDir == "" {
		opts.inDir = rt.Paths.InputDir
	}
	if opts.zonesDir == "" {
		opts.zonesDir = rt.Paths.ZonesDir
	}

	checker := validation.NewFileValidator(logger)
	n, err := checker.ValidateInputDirectory(opts.inDir, files.InputExts()...)
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Info("No carrier documents to parse", slog.String("input_dir", opts.inDir))
		return nil
	}
	if err := checker.ValidateOutputDirectory(opts.zonesDir); err != nil {
		return err
	}

	disc := files.NewDiscovery("")
	inputs, err := disc.FindInputs(opts.inDir)
	if err != nil {
		return err
	}
	docs := make([]string, len(inputs))
	for i, f := range inputs {
		docs[i] = f.Path
	}

	bopts, err := batch.NewOptions(rt.Config)
	if err != nil {
		return err
	}
	driver := batch.NewDriver(bopts, batch.WithLogger(logger), batch.WithTelemetry(rt.Telemetry))

	var snapshots batch.Snapshots
	if !opts.fresh {
		tables, err := disc.FindExcelFiles(opts.zonesDir)
		if err != nil {
			return err
		}
		paths := make([]string, len(tables))
		for i, f := range tables {
			paths[i] = f.Path
		}
		var skipped []batch.FileFailure
		snapshots, skipped, err = driver.LoadSnapshots(ctx, paths)
		if err != nil {
			return err
		}
		for _, s := range skipped {
			logger.Warn("Existing zone table ignored", slog.String("file", s.Path), slog.String("error", s.Err.Error()))
		}
	}

	res, err := driver.BuildZones(ctx, docs, snapshots)
	if err != nil {
		return err
	}

	written, err := driver.WriteZoneTables(ctx, res.Catalog, opts.zonesDir)
	if err != nil {
		return err
	}

	report := rt.Paths.GetReportPath(config.DiagnosticsFileName)
	if err := exporter.NewCSVWriter("").WriteDiagnosticsCSV(report, res.Diagnostics); err != nil {
		return err
	}

	if !opts.keepFiles {
		moveInputs(rt, res)
	}

	counts := res.Counts()
	attrs := []any{
		slog.Int("documents", len(docs)),
		slog.Int("processed", len(res.Processed)),
		slog.Int("failed", len(res.Failed)),
		slog.Int("origins", res.Catalog.Len()),
		slog.Int("tables_written", len(written)),
		slog.Int("rows_classified", res.Stats.Classified),
		slog.Int("diagnostics", len(res.Diagnostics)),
		slog.String("diagnostics_file", report),
	}
	for reason, n := range counts {
		attrs = append(attrs, slog.Int("reason_"+string(reason), n))
	}
	logger.Info("Zone parsing complete", attrs...)

	if len(res.Processed) == 0 {
		return fmt.Errorf("none of %d documents could be parsed", len(docs))
	}
	return nil
}

// moveInputs archives parsed documents and moves failed ones aside so the
// next run only sees new input.
func moveInputs(rt *app.Runtime, res *batch.Result) {
	mgr := files.NewManager(rt.Paths, rt.Logger)
	for _, path := range res.Processed {
		if _, err := mgr.Archive(path); err != nil {
			rt.Logger.Warn("Failed to archive document", slog.String("file", filepath.Base(path)), slog.String("error", err.Error()))
		}
	}
	for _, f := range res.Failed {
		rt.Logger.Warn("Document failed", slog.String("file", filepath.Base(f.Path)), slog.String("error", f.Err.Error()))
		if !mgr.FileExists(f.Path) {
			continue
		}
		if _, err := mgr.MarkFailed(f.Path); err != nil {
			rt.Logger.Warn("Failed to move failed document", slog.String("file", filepath.Base(f.Path)), slog.String("error", err.Error()))
		}
	}
}
