package prometheus

import (
	"context"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/rtckit/go-task-queue/core"
)

// QueueSnapshotProvider hands out current queue stats snapshots.
// *core.TaskQueue satisfies it directly.
type QueueSnapshotProvider interface {
	Stats() core.QueueStats
}

// SnapshotPoller samples Stats() from registered queues on a ticker and
// exports the snapshots as Prometheus gauges. It complements
// MetricsExporter: the exporter records events as they happen, the poller
// captures standing state (backlog, lifetime counters, closed flag).
//
// All gauges carry (queue, priority) labels.
type SnapshotPoller struct {
	interval time.Duration

	queuesMu sync.RWMutex
	queues   map[string]QueueSnapshotProvider

	pending   *prom.GaugeVec
	delayed   *prom.GaugeVec
	executed  *prom.GaugeVec
	discarded *prom.GaugeVec
	dropped   *prom.GaugeVec
	closed    *prom.GaugeVec

	stateMu sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a poller sampling every interval (default 1s)
// and registers its gauges with reg (default prom.DefaultRegisterer).
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	p := &SnapshotPoller{
		interval: interval,
		queues:   make(map[string]QueueSnapshotProvider),
	}

	var err error
	if p.pending, err = newPollGauge(reg, "queue_pending", "Tasks sitting in the pending channel."); err != nil {
		return nil, err
	}
	if p.delayed, err = newPollGauge(reg, "queue_delayed", "Delayed tasks not yet due."); err != nil {
		return nil, err
	}
	if p.executed, err = newPollGauge(reg, "queue_executed_total", "Lifetime executed task count."); err != nil {
		return nil, err
	}
	if p.discarded, err = newPollGauge(reg, "queue_discarded_total", "Lifetime count of tasks discarded unrun."); err != nil {
		return nil, err
	}
	if p.dropped, err = newPollGauge(reg, "queue_dropped_total", "Lifetime count of posts dropped at the door."); err != nil {
		return nil, err
	}
	if p.closed, err = newPollGauge(reg, "queue_closed", "Queue closed state (1=closed, 0=open)."); err != nil {
		return nil, err
	}

	return p, nil
}

func newPollGauge(reg prom.Registerer, name, help string) (*prom.GaugeVec, error) {
	return registerCollector(reg, prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskqueue",
		Name:      name,
		Help:      help,
	}, []string{"queue", "priority"}))
}

// AddQueue adds or replaces a snapshot provider under the given name.
func (p *SnapshotPoller) AddQueue(name string, provider QueueSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	p.queuesMu.Lock()
	p.queues[labelOrUnknown(name)] = provider
	p.queuesMu.Unlock()
}

// RemoveQueue stops sampling the named queue. Its gauges keep their last
// sampled values; callers that care should remove a queue before stopping
// it.
func (p *SnapshotPoller) RemoveQueue(name string) {
	if p == nil {
		return
	}
	p.queuesMu.Lock()
	delete(p.queues, labelOrUnknown(name))
	p.queuesMu.Unlock()
}

// Start launches the polling loop; an immediate first sample is taken
// before the ticker cadence begins. Further Starts while running are
// no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop halts polling and waits for any in-flight sample to finish. Safe to
// call repeatedly and without a prior Start.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.stateMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *SnapshotPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.queuesMu.RLock()
	defer p.queuesMu.RUnlock()

	for name, provider := range p.queues {
		s := provider.Stats()
		pr := s.Priority.String()
		p.pending.WithLabelValues(name, pr).Set(float64(s.Pending))
		p.delayed.WithLabelValues(name, pr).Set(float64(s.Delayed))
		p.executed.WithLabelValues(name, pr).Set(float64(s.Executed))
		p.discarded.WithLabelValues(name, pr).Set(float64(s.Discarded))
		p.dropped.WithLabelValues(name, pr).Set(float64(s.Dropped))
		p.closed.WithLabelValues(name, pr).Set(boolGauge(s.Closed))
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
