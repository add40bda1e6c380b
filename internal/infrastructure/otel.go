package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"zonesheet/internal/config"
)

const (
	ServiceVersion = "1.0.0"
	MeterName      = "zonesheet"
)

// Telemetry holds the metric and trace providers of one run. Metrics are
// gathered into a private Prometheus registry and written as a text file on
// Shutdown; spans go to TraceFile as JSON.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *PipelineMetrics

	registry    *promclient.Registry
	metricsFile string
	traceFile   *os.File
	logger      *slog.Logger
}

// InitializeTelemetry builds the providers described by cfg. Relative
// output files resolve against reportsDir. A disabled config yields no-op
// providers so callers never need nil checks.
func InitializeTelemetry(cfg config.TelemetryConfig, reportsDir string, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()
	t := &Telemetry{logger: logger.With(slog.String("component", "telemetry"))}

	if !cfg.Enabled {
		t.Tracer = tracenoop.NewTracerProvider().Tracer(MeterName)
		t.Meter = metricnoop.NewMeterProvider().Meter(MeterName)
		metrics, err := NewPipelineMetrics(t.Meter)
		if err != nil {
			return nil, err
		}
		t.Metrics = metrics
		return t, nil
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = MeterName
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(ServiceVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	if err := t.initializeTracing(ctx, cfg, reportsDir, res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := t.initializeMetrics(ctx, cfg, reportsDir, res); err != nil {
		t.closeTraceFile()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	t.logger.InfoContext(ctx, "Telemetry initialized",
		slog.String("service", serviceName),
		slog.Bool("tracing_enabled", t.TracerProvider != nil),
		slog.String("metrics_file", t.metricsFile))
	return t, nil
}

func (t *Telemetry) initializeTracing(ctx context.Context, cfg config.TelemetryConfig, reportsDir string, res *resource.Resource) error {
	if cfg.TraceFile == "" {
		t.Tracer = tracenoop.NewTracerProvider().Tracer(MeterName)
		return nil
	}

	path := resolveOutput(reportsDir, cfg.TraceFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create trace directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	t.TracerProvider = tp
	t.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))
	t.traceFile = f
	otel.SetTracerProvider(tp)

	t.logger.DebugContext(ctx, "Tracing initialized", slog.String("file", path))
	return nil
}

func (t *Telemetry) initializeMetrics(ctx context.Context, cfg config.TelemetryConfig, reportsDir string, res *resource.Resource) error {
	t.registry = promclient.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(t.registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.MeterProvider = mp
	t.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))
	otel.SetMeterProvider(mp)

	metrics, err := NewPipelineMetrics(t.Meter)
	if err != nil {
		return err
	}
	t.Metrics = metrics
	if err := registerRuntimeMetrics(t.Meter); err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		t.metricsFile = resolveOutput(reportsDir, cfg.MetricsFile)
	}
	t.logger.DebugContext(ctx, "Metrics initialized", slog.String("file", t.metricsFile))
	return nil
}

// StartStage opens a span for one pipeline stage.
func (t *Telemetry) StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.Tracer.Start(ctx, "zonesheet."+stage, trace.WithAttributes(attrs...))
}

// WriteMetrics writes the current metrics to path in Prometheus text format.
func (t *Telemetry) WriteMetrics(path string) error {
	if t.registry == nil {
		return errors.New("metrics are disabled")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	return promclient.WriteToTextfile(path, t.registry)
}

// Shutdown flushes spans, writes the metrics file and releases providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	t.closeTraceFile()

	if t.metricsFile != "" {
		if err := t.WriteMetrics(t.metricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	t.logger.DebugContext(ctx, "Telemetry shutdown complete")
	return nil
}

func (t *Telemetry) closeTraceFile() {
	if t.traceFile != nil {
		t.traceFile.Close()
		t.traceFile = nil
	}
}

func resolveOutput(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// PipelineMetrics are the counters of a run. A nil *PipelineMetrics
// records nothing.
type PipelineMetrics struct {
	RowsClassified  metric.Int64Counter
	RowsSkipped     metric.Int64Counter
	RecordsAccepted metric.Int64Counter
	RecordsRejected metric.Int64Counter
	Conflicts       metric.Int64Counter
	MissingZoneData metric.Int64Counter
	OriginsBuilt    metric.Int64Counter
	SheetsWritten   metric.Int64Counter
	DocumentsFailed metric.Int64Counter
	StageDuration   metric.Float64Histogram
}

// NewPipelineMetrics creates the pipeline instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.RowsClassified, "zonesheet_rows_classified", "Rows recognised as zone ranges"},
		{&m.RowsSkipped, "zonesheet_rows_skipped", "Non-blank rows matching no layout"},
		{&m.RecordsAccepted, "zonesheet_records_accepted", "Candidates accepted into an origin index"},
		{&m.RecordsRejected, "zonesheet_records_rejected", "Candidates rejected during normalization"},
		{&m.Conflicts, "zonesheet_merge_conflicts", "Overlapping ranges carrying different zones"},
		{&m.MissingZoneData, "zonesheet_missing_zone_data", "Rate sheet rows without zone data"},
		{&m.OriginsBuilt, "zonesheet_origins_built", "Origin indexes built"},
		{&m.SheetsWritten, "zonesheet_sheets_written", "Rate sheets written"},
		{&m.DocumentsFailed, "zonesheet_documents_failed", "Carrier documents that failed to parse"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
		*c.dst = counter
	}

	hist, err := meter.Float64Histogram(
		"zonesheet_stage_duration",
		metric.WithDescription("Pipeline stage duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create zonesheet_stage_duration: %w", err)
	}
	m.StageDuration = hist
	return m, nil
}

// RecordClassified counts the classification outcome of one document.
func (m *PipelineMetrics) RecordClassified(ctx context.Context, document string, classified, skipped int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("document", document))
	m.RowsClassified.Add(ctx, int64(classified), attrs)
	m.RowsSkipped.Add(ctx, int64(skipped), attrs)
}

// RecordBuild counts the outcome of building one origin index.
func (m *PipelineMetrics) RecordBuild(ctx context.Context, origin string, accepted, rejected, conflicts int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("origin", origin))
	m.RecordsAccepted.Add(ctx, int64(accepted), attrs)
	m.RecordsRejected.Add(ctx, int64(rejected), attrs)
	m.Conflicts.Add(ctx, int64(conflicts), attrs)
	m.OriginsBuilt.Add(ctx, 1)
}

// RecordSheet counts one assembled SSL group and its origins without zone
// data.
func (m *PipelineMetrics) RecordSheet(ctx context.Context, written bool, missing int) {
	if m == nil {
		return
	}
	if written {
		m.SheetsWritten.Add(ctx, 1)
	}
	m.MissingZoneData.Add(ctx, int64(missing))
}

// RecordDocumentFailed counts a document moved to the failed bucket.
func (m *PipelineMetrics) RecordDocumentFailed(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.DocumentsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordStage observes the duration of a stage, labelled by outcome.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// TraceIDFromContext extracts the span trace ID from ctx, or "".
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// AddSpanEvent adds an event to the current span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records err on the current span and marks it failed.
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
