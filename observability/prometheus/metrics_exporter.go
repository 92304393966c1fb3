package prometheus

import (
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/rtckit/go-task-queue/core"
)

// MetricsExporter publishes core.Metrics callbacks as Prometheus series.
//
// Four collectors cover a queue's observable behavior: a run-duration
// histogram labelled (queue, priority), a panic counter and a pending-depth
// gauge labelled (queue), and a discard counter labelled (queue, reason)
// where reason is one of the core.DropReason values.
//
// A nil *MetricsExporter records nothing, mirroring core.NilMetrics.
type MetricsExporter struct {
	durations *prom.HistogramVec
	panics    *prom.CounterVec
	drops     *prom.CounterVec
	depth     *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// ExporterOptions tunes collector construction.
type ExporterOptions struct {
	// DurationBuckets overrides the task_duration_seconds buckets.
	// Empty selects the package defaults.
	DurationBuckets []float64
}

// Buckets from 100 microseconds up to ~6.5s. Task bodies here sit mostly
// below the 5ms floor of prom.DefBuckets.
var defaultDurationBuckets = prom.ExponentialBuckets(100e-6, 4, 9)

// NewMetricsExporter builds the collectors under the given namespace
// (default "taskqueue") and registers them with reg (default
// prom.DefaultRegisterer). Collectors reg has already seen are reused, so
// any number of exporters can share one registry.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "taskqueue"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = defaultDurationBuckets
	}

	durations, err := registerCollector(reg, prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Time tasks spend in Run.",
		Buckets:   buckets,
	}, []string{"queue", "priority"}))
	if err != nil {
		return nil, err
	}
	panics, err := registerCollector(reg, prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Panics recovered from task bodies.",
	}, []string{"queue"}))
	if err != nil {
		return nil, err
	}
	drops, err := registerCollector(reg, prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_dropped_total",
		Help:      "Tasks discarded unrun, by reason.",
	}, []string{"queue", "reason"}))
	if err != nil {
		return nil, err
	}
	depth, err := registerCollector(reg, prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Tasks waiting in the pending channel.",
	}, []string{"queue"}))
	if err != nil {
		return nil, err
	}

	return &MetricsExporter{
		durations: durations,
		panics:    panics,
		drops:     drops,
		depth:     depth,
	}, nil
}

// RecordTaskDuration observes one completed Run.
func (m *MetricsExporter) RecordTaskDuration(queueName string, priority core.Priority, duration time.Duration) {
	if m == nil {
		return
	}
	m.durations.WithLabelValues(labelOrUnknown(queueName), priority.String()).Observe(duration.Seconds())
}

// RecordTaskPanic counts one recovered panic.
func (m *MetricsExporter) RecordTaskPanic(queueName string, panicValue any) {
	if m == nil {
		return
	}
	m.panics.WithLabelValues(labelOrUnknown(queueName)).Inc()
}

// RecordQueueDepth sets the pending gauge for the queue.
func (m *MetricsExporter) RecordQueueDepth(queueName string, depth int) {
	if m == nil {
		return
	}
	m.depth.WithLabelValues(labelOrUnknown(queueName)).Set(float64(depth))
}

// RecordTaskDropped counts one discarded task under its reason label.
func (m *MetricsExporter) RecordTaskDropped(queueName string, reason string) {
	if m == nil {
		return
	}
	m.drops.WithLabelValues(labelOrUnknown(queueName), labelOrUnknown(reason)).Inc()
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// registerCollector registers c with reg, handing back the collector reg
// already holds when an identical one was registered before.
func registerCollector[T prom.Collector](reg prom.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var regErr prom.AlreadyRegisteredError
	if errors.As(err, &regErr) {
		existing, ok := regErr.ExistingCollector.(T)
		if !ok {
			return c, fmt.Errorf("existing collector for %T has a different type", c)
		}
		return existing, nil
	}

	return c, err
}
