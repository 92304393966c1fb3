package prometheus

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/rtckit/go-task-queue/core"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("taskqueue", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordTaskDuration("queue-a", core.PriorityHigh, 250*time.Millisecond)
	exporter.RecordTaskPanic("queue-a", "panic")
	exporter.RecordQueueDepth("queue-a", 7)
	exporter.RecordTaskDropped("queue-a", core.DropReasonSaturated)

	panicTotal := testutil.ToFloat64(exporter.panics.WithLabelValues("queue-a"))
	if panicTotal != 1 {
		t.Fatalf("panic total = %v, want 1", panicTotal)
	}

	queueDepth := testutil.ToFloat64(exporter.depth.WithLabelValues("queue-a"))
	if queueDepth != 7 {
		t.Fatalf("queue depth = %v, want 7", queueDepth)
	}

	dropped := testutil.ToFloat64(exporter.drops.WithLabelValues("queue-a", core.DropReasonSaturated))
	if dropped != 1 {
		t.Fatalf("dropped total = %v, want 1", dropped)
	}

	histCount, err := histogramSampleCount(exporter.durations.WithLabelValues("queue-a", "high"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if histCount != 1 {
		t.Fatalf("duration sample count = %d, want 1", histCount)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("taskqueue", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("taskqueue", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordTaskPanic("queue-a", nil)
	second.RecordTaskPanic("queue-a", nil)

	got := testutil.ToFloat64(first.panics.WithLabelValues("queue-a"))
	if got != 2 {
		t.Fatalf("shared panic counter = %v, want 2", got)
	}
}

func TestMetricsExporter_EmptyNamespaceDefault(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordTaskPanic("queue-a", nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "taskqueue_task_panic_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("empty namespace did not fall back to taskqueue_")
	}
}

func TestMetricsExporter_NilReceiver(t *testing.T) {
	var exporter *MetricsExporter

	exporter.RecordTaskDuration("queue-a", core.PriorityNormal, time.Second)
	exporter.RecordTaskPanic("queue-a", "panic")
	exporter.RecordQueueDepth("queue-a", 1)
	exporter.RecordTaskDropped("queue-a", core.DropReasonClosed)
}

func TestMetricsExporter_PriorityLabels(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("taskqueue", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	tests := []struct {
		priority core.Priority
		want     string
	}{
		{core.PriorityHigh, "high"},
		{core.PriorityNormal, "normal"},
		{core.PriorityLow, "low"},
		{core.Priority(42), "unknown"},
	}
	for _, tt := range tests {
		exporter.RecordTaskDuration("queue-a", tt.priority, time.Millisecond)
		count, err := histogramSampleCount(exporter.durations.WithLabelValues("queue-a", tt.want))
		if err != nil {
			t.Fatalf("histogramSampleCount failed: %v", err)
		}
		if count != 1 {
			t.Errorf("samples at priority label %q = %d, want 1", tt.want, count)
		}
	}
}

func TestMetricsExporter_QueueIntegration(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("taskqueue", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	q := core.NewTaskQueueWithConfig("observed", &core.QueueConfig{
		Metrics: exporter,
	})

	done := core.NewEvent()
	q.Post(func() {})
	q.Post(func() { done.Set() })
	if !done.Wait(2 * time.Second) {
		t.Fatal("tasks did not run")
	}
	time.Sleep(100 * time.Millisecond)

	q.Shutdown()
	q.Post(func() {})
	q.Stop()

	histCount, err := histogramSampleCount(exporter.durations.WithLabelValues("observed", "normal"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if histCount != 2 {
		t.Fatalf("duration sample count = %d, want 2", histCount)
	}

	closedDrops := testutil.ToFloat64(exporter.drops.WithLabelValues("observed", core.DropReasonClosed))
	if closedDrops != 1 {
		t.Fatalf("closed drops = %v, want 1", closedDrops)
	}
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
