// Command sheetfix cleans generated rate sheets: rate headers "Zone 0X"
// become "Zone X" and duplicate Zones rows are dropped. Cleaned copies go to
// the cleaned directory and the originals to the processed directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"zonesheet/internal/app"
	"zonesheet/internal/exporter"
	"zonesheet/internal/files"
	"zonesheet/internal/ratesheet"
	"zonesheet/internal/validation"
)

const reportFile = "sheetfix_report.csv"

type options struct {
	inDir        string
	outDir       string
	processedDir string
}

func main() {
	configFile := flag.String("config", "", "config file (defaults to config.yaml lookup)")
	inDir := flag.String("in", "", "rate sheet directory (defaults to data/sheets)")
	outDir := flag.String("out", "", "cleaned sheet directory (defaults to data/sheets/cleaned)")
	processedDir := flag.String("processed", "", "directory for the originals (defaults to data/sheets/processed)")
	flag.Parse()

	rt, err := app.Setup("sheetfix", *configFile)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	ctx, cancel := rt.Context()
	defer cancel()

	if err := run(ctx, rt, options{inDir: *inDir, outDir: *outDir, processedDir: *processedDir}); err != nil {
		rt.Fatal("Rate sheet fixing failed", err)
	}
	if err := rt.Close(context.Background()); err != nil {
		slog.Error("Failed to flush telemetry", "error", err)
	}
}

func run(ctx context.Context, rt *app.Runtime, opts options) error {
	logger := rt.Logger
	if opts.inDir == "" {
		opts.inDir = rt.Paths.SheetsDir
	}
	if opts.outDir == "" {
		opts.outDir = rt.Paths.CleanedDir
	}
	if opts.processedDir == "" {
		opts.processedDir = rt.Paths.ProcessedDir
	}

	checker := validation.NewFileValidator(logger)
	n, err := checker.ValidateInputDirectory(opts.inDir, files.WorkbookExts()...)
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Info("No rate sheets to fix", slog.String("input_dir", opts.inDir))
		return nil
	}
	for _, dir := range []string{opts.outDir, opts.processedDir} {
		if err := checker.ValidateOutputDirectory(dir); err != nil {
			return err
		}
	}

	sheets, err := files.NewDiscovery("").FindExcelFiles(opts.inDir)
	if err != nil {
		return err
	}

	paths := *rt.Paths
	paths.ProcessedDir = opts.processedDir
	mgr := files.NewManager(&paths, logger)

	fixer := ratesheet.NewFixer(logger)
	var records [][]string
	failed := 0
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return err
		}
		report, err := fixer.FixFile(sheet.Path, opts.outDir)
		if err == nil {
			_, err = mgr.MarkProcessed(sheet.Path)
		}
		status := "fixed"
		if err != nil {
			failed++
			status = err.Error()
			logger.Error("Rate sheet could not be fixed", slog.String("file", sheet.Name), slog.String("error", err.Error()))
		}
		records = append(records, []string{
			report.File,
			strconv.Itoa(report.HeaderFixes),
			strconv.Itoa(report.DuplicatesRemoved),
			status,
		})
	}

	summary := rt.Paths.GetReportPath(reportFile)
	headers := []string{"File", "Header Fixes", "Duplicates Removed", "Status"}
	if err := exporter.NewCSVWriter("").WriteSimpleCSV(summary, headers, records); err != nil {
		return err
	}

	logger.Info("Rate sheets fixed",
		slog.Int("sheets", len(sheets)),
		slog.Int("failed", failed),
		slog.String("report", summary))
	if failed > 0 {
		return fmt.Errorf("%d of %d rate sheets could not be fixed", failed, len(sheets))
	}
	return nil
}
