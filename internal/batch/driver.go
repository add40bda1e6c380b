package batch

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"zonesheet/internal/classify"
	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/exporter"
	"zonesheet/internal/extract"
	"zonesheet/internal/files"
	"zonesheet/internal/infrastructure"
	"zonesheet/internal/validation"
	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

// Driver runs documents through classification and the per-origin pipeline
// and assembles rate sheets from the resulting catalog. Work is spread over
// Options.Workers goroutines; results are collected in input order so runs
// are reproducible.
type Driver struct {
	opts      Options
	validator *validation.DocumentValidator
	files     *validation.FileValidator
	tracer    trace.Tracer
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger
}

// Option customizes a Driver.
type Option func(*Driver)

// WithLogger sets the driver's logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithTelemetry records spans and pipeline metrics through t.
func WithTelemetry(t *infrastructure.Telemetry) Option {
	return func(d *Driver) {
		if t != nil {
			d.tracer = t.Tracer
			d.metrics = t.Metrics
		}
	}
}

// NewDriver creates a driver.
func NewDriver(opts Options, options ...Option) *Driver {
	d := &Driver{
		opts:   opts.withDefaults(),
		tracer: tracenoop.NewTracerProvider().Tracer("zonesheet"),
		logger: slog.Default(),
	}
	for _, o := range options {
		o(d)
	}
	if d.opts.Carrier != "" {
		d.validator = validation.NewDocumentValidator(d.opts.Carrier, d.opts.Scheme)
	}
	d.logger = d.logger.With(slog.String("component", "batch"))
	d.files = validation.NewFileValidator(d.logger)
	return d
}

// Snapshots are previously written zone tables, keyed by origin, reloaded
// as candidates that rank older than any document of the current run.
type Snapshots map[domain.GroupKey][]classify.Candidate

// parsed is the outcome of reading one document.
type parsed struct {
	path       string
	origin     domain.GroupKey
	candidates []classify.Candidate
	stats      classify.Stats
	diags      []domain.Diagnostic
	err        error
}

// BuildZones parses docs, oldest first, merges their candidates per origin
// on top of base, and indexes every origin. A document that cannot be read
// or validated is reported in Result.Failed and the batch continues. The
// returned error is non-nil only when ctx is cancelled.
func (d *Driver) BuildZones(ctx context.Context, docs []string, base Snapshots) (*Result, error) {
	ctx, span := d.tracer.Start(ctx, "zonesheet.build_zones",
		trace.WithAttributes(attribute.Int("documents", len(docs)), attribute.Int("snapshots", len(base))))
	defer span.End()

	res := newResult(zoning.NewCatalog(d.opts.Rule, d.opts.Scheme))

	start := time.Now()
	outcomes, err := d.parseAll(ctx, docs)
	d.metrics.RecordStage(ctx, "classify", time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	groups := make(map[domain.GroupKey][]classify.Candidate, len(base))
	members := make(map[domain.GroupKey][]string)
	for key, cands := range base {
		groups[key] = append(groups[key], cands...)
	}
	for _, p := range outcomes {
		res.Diagnostics = append(res.Diagnostics, p.diags...)
		if p.err != nil {
			res.fail(p.path, p.err)
			d.metrics.RecordDocumentFailed(ctx, failureReason(p.err))
			d.logger.WarnContext(ctx, "document failed",
				slog.String("file", filepath.Base(p.path)),
				slog.String("error", p.err.Error()))
			continue
		}
		res.Stats.Add(p.stats)
		groups[p.origin] = append(groups[p.origin], p.candidates...)
		members[p.origin] = append(members[p.origin], p.path)
	}

	keys := make([]domain.GroupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	start = time.Now()
	indexes, err := d.buildAll(ctx, keys, groups)
	d.metrics.RecordStage(ctx, "build", time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	for i, key := range keys {
		b := indexes[i]
		res.Reports = append(res.Reports, b.report)
		res.Diagnostics = append(res.Diagnostics, b.report.Diagnostics...)
		d.metrics.RecordBuild(ctx, string(key), b.report.Accepted, b.report.Rejected, b.report.Conflicts)

		if b.index.Len() == 0 {
			d.logger.WarnContext(ctx, "origin has no usable ranges", slog.String("origin", string(key)))
			d.failGroup(ctx, res, members[key], apperrors.NewParsingError("no usable zone ranges", nil).
				WithContext("origin", string(key)))
			continue
		}
		if err := res.Catalog.Add(b.index); err != nil {
			d.failGroup(ctx, res, members[key], err)
			continue
		}
		res.Processed = append(res.Processed, members[key]...)
	}
	slices.Sort(res.Processed)

	infrastructure.AddSpanEvent(ctx, "zones.built",
		attribute.Int("origins", res.Catalog.Len()),
		attribute.Int("failed", len(res.Failed)))
	d.logger.InfoContext(ctx, "zone build complete",
		slog.Int("documents", len(docs)),
		slog.Int("origins", res.Catalog.Len()),
		slog.Int("failed", len(res.Failed)),
		slog.Int("diagnostics", len(res.Diagnostics)))
	return res, nil
}

func (d *Driver) failGroup(ctx context.Context, res *Result, paths []string, err error) {
	for _, p := range paths {
		res.fail(p, err)
		d.metrics.RecordDocumentFailed(ctx, failureReason(err))
	}
}

// parseAll reads docs concurrently. Document i gets recency i+1 so later
// documents win overlaps under last-write-wins; snapshots keep 0.
func (d *Driver) parseAll(ctx context.Context, docs []string) ([]parsed, error) {
	out := make([]parsed, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	for i, path := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = d.parse(gctx, path, i+1)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Driver) parse(ctx context.Context, path string, seq int) parsed {
	p := parsed{path: path}

	doc, err := extract.Load(ctx, path)
	if err != nil {
		p.err = err
		return p
	}
	if d.validator != nil {
		if err := d.validator.Validate(doc); err != nil {
			p.err = err
			return p
		}
	}
	origin, err := d.opts.Rule.DocumentKey(doc.Name, d.opts.Scheme)
	if err != nil {
		p.err = err
		return p
	}
	doc.Stamp(seq)

	copts := d.opts.Classify
	copts.StrictCodes = files.KindOf(path) == files.KindText
	c := classify.New(origin, copts, d.logger)
	p.candidates = slices.Collect(c.Classify(doc))
	p.stats = c.Stats()
	p.diags = c.Diagnostics()
	p.origin = origin
	d.metrics.RecordClassified(ctx, doc.Name, p.stats.Classified, p.stats.Skipped)

	if len(p.candidates) == 0 {
		p.err = apperrors.NewParsingError("no zone ranges found", nil).WithContext("file", doc.Name)
	}
	return p
}

type built struct {
	index  *zoning.OriginZoneIndex
	report zoning.BuildReport
}

func (d *Driver) buildAll(ctx context.Context, keys []domain.GroupKey, groups map[domain.GroupKey][]classify.Candidate) ([]built, error) {
	out := make([]built, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	for i, key := range keys {
		g.Go(func() error {
			ix, report, err := zoning.Build(gctx, key, slices.Values(groups[key]), zoning.BuildOptions{
				Scheme: d.opts.Scheme,
				Policy: d.opts.Policy,
				Logger: d.logger,
			})
			if err != nil {
				return err
			}
			out[i] = built{index: ix, report: report}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadSnapshots reads zone tables written by an earlier run. Tables that
// cannot be read are returned as failures and left out.
func (d *Driver) LoadSnapshots(ctx context.Context, paths []string) (Snapshots, []FileFailure, error) {
	type loaded struct {
		origin domain.GroupKey
		cands  []classify.Candidate
		err    error
	}
	out := make([]loaded, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := d.files.ValidateExcelFile(path); err != nil {
				out[i].err = err
				return nil
			}
			origin, err := d.opts.Rule.DocumentKey(filepath.Base(path), d.opts.Scheme)
			if err != nil {
				out[i].err = err
				return nil
			}
			cands, err := exporter.ReadZoneTable(path)
			out[i] = loaded{origin: origin, cands: cands, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	snaps := make(Snapshots)
	var failures []FileFailure
	for i, l := range out {
		if l.err != nil {
			failures = append(failures, FileFailure{Path: paths[i], Err: l.err})
			d.logger.WarnContext(ctx, "snapshot skipped",
				slog.String("file", filepath.Base(paths[i])),
				slog.String("error", l.err.Error()))
			continue
		}
		snaps[l.origin] = append(snaps[l.origin], l.cands...)
	}
	d.logger.InfoContext(ctx, "snapshots loaded",
		slog.Int("origins", len(snaps)),
		slog.Int("skipped", len(failures)))
	return snaps, failures, nil
}

// WriteZoneTables writes one zone table per catalog origin into dir and
// returns the paths in origin order.
func (d *Driver) WriteZoneTables(ctx context.Context, catalog *zoning.Catalog, dir string) ([]string, error) {
	keys := catalog.Keys()
	paths := make([]string, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	for i, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ix, _ := catalog.Get(key)
			path, err := exporter.WriteZoneTable(dir, ix)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	d.logger.InfoContext(ctx, "zone tables written", slog.Int("count", len(paths)), slog.String("dir", dir))
	return paths, nil
}

func failureReason(err error) string {
	if t, ok := apperrors.TypeOf(err); ok {
		return string(t)
	}
	return "unknown"
}
