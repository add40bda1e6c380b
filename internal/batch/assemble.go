package batch

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"zonesheet/internal/infrastructure"
	"zonesheet/internal/ratesheet"
	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

// SheetWriter persists one assembled rate sheet and returns where it went,
// or "" when nothing was written.
type SheetWriter interface {
	Write(res ratesheet.SheetResult) (string, error)
}

// SheetOutcome is the result of one SSL group.
type SheetOutcome struct {
	Sheet ratesheet.SheetResult
	Path  string
	Err   error
}

// AssembleResult holds one outcome per SSL, in first-seen order.
type AssembleResult struct {
	Sheets      []SheetOutcome
	Diagnostics []domain.Diagnostic
}

// Written returns the paths of the sheets that were saved.
func (r *AssembleResult) Written() []string {
	var paths []string
	for _, s := range r.Sheets {
		if s.Path != "" {
			paths = append(paths, s.Path)
		}
	}
	return paths
}

// Failed returns the outcomes whose write failed.
func (r *AssembleResult) Failed() []SheetOutcome {
	var failed []SheetOutcome
	for _, s := range r.Sheets {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

// Assemble builds one rate sheet per SSL of mappings from catalog and hands
// each to w. A write failure is kept on its outcome and does not stop the
// other groups.
func (d *Driver) Assemble(ctx context.Context, catalog *zoning.Catalog, meta domain.SheetMeta, mappings []domain.SSLMapping, w SheetWriter) (*AssembleResult, error) {
	ctx, span := d.tracer.Start(ctx, "zonesheet.assemble",
		trace.WithAttributes(attribute.Int("mappings", len(mappings))))
	defer span.End()

	start := time.Now()
	assembler := ratesheet.NewAssembler(catalog, meta, d.logger)
	groups := ratesheet.GroupMappings(mappings)
	out := make([]SheetOutcome, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	for i, group := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sheet := assembler.AssembleGroup(group)
			path, err := w.Write(sheet)
			out[i] = SheetOutcome{Sheet: sheet, Path: path, Err: err}
			return nil
		})
	}
	err := g.Wait()
	d.metrics.RecordStage(ctx, "assemble", time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	res := &AssembleResult{Sheets: out}
	for _, o := range out {
		res.Diagnostics = append(res.Diagnostics, o.Sheet.Diagnostics...)
		d.metrics.RecordSheet(ctx, o.Path != "", len(o.Sheet.Diagnostics))
		if o.Err != nil {
			d.logger.ErrorContext(ctx, "rate sheet failed",
				slog.String("ssl", o.Sheet.SSL),
				slog.String("error", o.Err.Error()))
		}
	}

	d.logger.InfoContext(ctx, "assembly complete",
		slog.Int("ssl_groups", len(groups)),
		slog.Int("written", len(res.Written())),
		slog.Int("failed", len(res.Failed())),
		slog.Int("diagnostics", len(res.Diagnostics)))
	return res, nil
}
