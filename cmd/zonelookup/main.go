// Command zonelookup prints the zone from an origin postal code to each
// destination given on the command line, using the zone tables on disk.
//
//	zonelookup -origin 00501 10001 90210
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"zonesheet/internal/app"
	"zonesheet/internal/batch"
	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/files"
	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

// Answer is one destination's lookup.
type Answer struct {
	Origin      string          `json:"origin"`
	Group       domain.GroupKey `json:"group,omitempty"`
	Destination string          `json:"destination"`
	Zone        domain.Zone     `json:"zone,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func main() {
	configFile := flag.String("config", "", "config file (defaults to config.yaml lookup)")
	origin := flag.String("origin", "", "origin postal code")
	asJSON := flag.Bool("json", false, "print JSON instead of a table")
	flag.Parse()

	if *origin == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: zonelookup -origin CODE DEST [DEST...]")
		os.Exit(2)
	}

	rt, err := app.Setup("zonelookup", *configFile)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	ctx, cancel := rt.Context()
	defer cancel()

	catalog, err := loadCatalog(ctx, rt)
	if err != nil {
		rt.Fatal("Failed to load zone tables", err)
	}
	answers := lookup(catalog, *origin, flag.Args())
	if err := writeAnswers(os.Stdout, answers, *asJSON); err != nil {
		rt.Fatal("Failed to print answers", err)
	}
	if err := rt.Close(context.Background()); err != nil {
		slog.Error("Failed to flush telemetry", "error", err)
	}
}

func loadCatalog(ctx context.Context, rt *app.Runtime) (*zoning.Catalog, error) {
	opts, err := batch.NewOptions(rt.Config)
	if err != nil {
		return nil, err
	}
	driver := batch.NewDriver(opts, batch.WithLogger(rt.Logger), batch.WithTelemetry(rt.Telemetry))

	tables, err := files.NewDiscovery("").FindExcelFiles(rt.Paths.ZonesDir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(tables))
	for i, f := range tables {
		paths[i] = f.Path
	}
	snapshots, skipped, err := driver.LoadSnapshots(ctx, paths)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		rt.Logger.Warn("Zone table ignored", slog.String("file", s.Path), slog.String("error", s.Err.Error()))
	}
	res, err := driver.BuildZones(ctx, nil, snapshots)
	if err != nil {
		return nil, err
	}
	return res.Catalog, nil
}

func lookup(catalog *zoning.Catalog, origin string, dests []string) []Answer {
	answers := make([]Answer, 0, len(dests))
	ix, group, ok := catalog.Resolve(origin)
	for _, dest := range dests {
		a := Answer{Origin: origin, Group: group, Destination: dest}
		if !ok {
			a.Error = "no zone table for origin"
			answers = append(answers, a)
			continue
		}
		zone, err := ix.LookupString(dest)
		if err != nil {
			a.Error = errorText(err)
		} else {
			a.Zone = zone
		}
		answers = append(answers, a)
	}
	return answers
}

func errorText(err error) string {
	if errors.Is(err, zoning.ErrNotFound) {
		return "no zone for destination"
	}
	if apperrors.IsType(err, apperrors.ErrTypeValidation) {
		return "not a postal code"
	}
	return err.Error()
}

func writeAnswers(w io.Writer, answers []Answer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answers)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORIGIN\tGROUP\tDESTINATION\tZONE")
	for _, a := range answers {
		zone := string(a.Zone)
		if a.Error != "" {
			zone = "-  (" + a.Error + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Origin, a.Group, a.Destination, zone)
	}
	return tw.Flush()
}
