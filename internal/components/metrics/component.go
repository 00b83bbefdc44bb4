package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cronforge/jobstore/internal/components/logging"
	"github.com/cronforge/jobstore/internal/consts"
	"github.com/cronforge/jobstore/internal/core"
)

type Component struct {
	*core.BaseComponent
	cfg       *Config
	server    *http.Server
	registry  *prometheus.Registry
	started   bool
	namespace string
	subsystem string

	mu               sync.Mutex
	waitingGauge     prometheus.Gauge
	blockedGauge     prometheus.Gauge
	executingGauge   prometheus.Gauge
	totalGauge       prometheus.Gauge
	queueEventsTotal *prometheus.CounterVec
}

func NewComponent(cfg *Config) *Component {
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.ComponentPrometheus, consts.ComponentLogging),
		cfg:           cfg,
	}
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	c.registry = prometheus.NewRegistry()
	if c.cfg.CollectGoMetrics {
		_ = c.registry.Register(prometheus.NewGoCollector())
	}
	if c.cfg.CollectProcess {
		_ = c.registry.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	}
	c.namespace = c.cfg.Namespace
	c.subsystem = c.cfg.Subsystem

	c.waitingGauge = c.newGauge("waiting_triggers", "Currently dispatchable triggers in WAITING state")
	c.blockedGauge = c.newGauge("blocked_triggers", "Triggers currently BLOCKED by a concurrency cap")
	c.executingGauge = c.newGauge("executing_jobs", "Jobs currently EXECUTING")
	c.totalGauge = c.newGauge("total_triggers", "waiting + blocked + executing")
	c.queueEventsTotal = c.NewCounter("queue_events_total", "Queue-state events emitted, by kind", []string{"kind"})

	mux := http.NewServeMux()
	mux.Handle(c.cfg.Path, promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	c.server = &http.Server{
		Addr:              c.cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Infof(ctx, "prometheus metrics listening on %s%s", c.cfg.Address, c.cfg.Path)
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Errorf(ctx, "prometheus server error: %v", err)
		}
	}()

	c.started = true
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	defer func() { _ = c.BaseComponent.Stop(ctx) }()
	if !c.started || c.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("prometheus server shutdown: %w", err)
	}
	logging.Info(ctx, "prometheus component stopped")
	return nil
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if !c.started {
		return fmt.Errorf("prometheus not started")
	}
	return nil
}

func (c *Component) fqName(name string) string {
	if c.namespace == "" && c.subsystem == "" {
		return name
	}
	if c.namespace != "" && c.subsystem != "" {
		return c.namespace + "_" + c.subsystem + "_" + name
	}
	if c.namespace != "" {
		return c.namespace + "_" + name
	}
	return c.subsystem + "_" + name
}

func (c *Component) newGauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: c.fqName(name), Help: help})
	_ = c.registry.Register(g)
	return g
}

func (c *Component) NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: c.fqName(name),
		Help: help,
	}, labels)
	_ = c.registry.Register(cv)
	return cv
}

// SetQueueState records a queue-state snapshot as gauges and increments
// the per-kind event counter.
func (c *Component) SetQueueState(kind string, waiting, blocked, executing int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waitingGauge == nil {
		return
	}
	c.waitingGauge.Set(float64(waiting))
	c.blockedGauge.Set(float64(blocked))
	c.executingGauge.Set(float64(executing))
	c.totalGauge.Set(float64(waiting + blocked + executing))
	c.queueEventsTotal.WithLabelValues(kind).Inc()
}
