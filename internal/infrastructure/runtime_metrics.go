package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

var processStart = time.Now()

// registerRuntimeMetrics adds observable gauges for the Go runtime, read
// whenever the registry is gathered.
func registerRuntimeMetrics(meter metric.Meter) error {
	goroutines, err := meter.Int64ObservableGauge(
		"zonesheet_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return err
	}

	heap, err := meter.Int64ObservableGauge(
		"zonesheet_heap_alloc",
		metric.WithDescription("Heap bytes allocated and in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	uptime, err := meter.Float64ObservableGauge(
		"zonesheet_process_uptime",
		metric.WithDescription("Process uptime"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		o.ObserveInt64(goroutines, int64(runtime.NumGoroutine()))
		o.ObserveInt64(heap, int64(mem.HeapAlloc))
		o.ObserveFloat64(uptime, time.Since(processStart).Seconds())
		return nil
	}, goroutines, heap, uptime)
	return err
}
