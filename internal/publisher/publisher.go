// Package publisher snapshots waiting/blocked/executing counts on
// added/executing/completed events, hands the snapshot to any registered
// listener, records it as Prometheus gauges, and wraps the whole thing in
// a trace span. Publication errors are logged and swallowed so
// observability never fails scheduling.
package publisher

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/trace"

	"github.com/cronforge/jobstore/internal/catalog"
	"github.com/cronforge/jobstore/internal/components/logging"
	"github.com/cronforge/jobstore/internal/components/metrics"
	"github.com/cronforge/jobstore/internal/components/telemetry"
	"github.com/cronforge/jobstore/internal/concurrency"
	"github.com/cronforge/jobstore/internal/jobfactory"
	"github.com/cronforge/jobstore/internal/model"
	"github.com/cronforge/jobstore/internal/store"
)

// Kind identifies which of the three queue-state events fired.
type Kind string

const (
	KindAdded     Kind = "added"
	KindExecuting Kind = "executing"
	KindCompleted Kind = "completed"
)

// ExecutingItem is the descriptive form of an executing entry included in
// a QueueStateContext.
type ExecutingItem struct {
	Key         model.JobKey
	Name        string
	Description string
	StartTime   int64
}

// QueueStateContext is handed to every registered Listener.
type QueueStateContext struct {
	Kind                  Kind
	ThreadCount           int
	WaitingTriggersCount  int64
	BlockedTriggersCount  int64
	TotalTriggersCount    int64
	CurrentlyExecuting    []ExecutingItem
}

// Listener receives a fully-built snapshot. Implementations must not
// block the caller for long; publication happens inline with
// acquire/fire/complete.
type Listener func(ctx context.Context, snap QueueStateContext)

// Publisher builds and fans out QueueStateContext snapshots. It satisfies
// engine.Publisher.
type Publisher struct {
	Delegate    store.Delegate
	Catalog     *catalog.Catalog
	Exec        *concurrency.ExecutingTable
	JobFactory  jobfactory.Factory
	Metrics     *metrics.Component
	Tracer      trace.Tracer
	ThreadCount int
	Excluded    func() map[string]struct{}

	listeners []Listener
}

// AddListener registers an additional callback. Not safe for concurrent
// use with publication; register listeners during startup only.
func (p *Publisher) AddListener(l Listener) {
	p.listeners = append(p.listeners, l)
}

func (p *Publisher) PublishAdded(ctx context.Context)     { p.publish(ctx, KindAdded) }
func (p *Publisher) PublishExecuting(ctx context.Context) { p.publish(ctx, KindExecuting) }
func (p *Publisher) PublishCompleted(ctx context.Context) { p.publish(ctx, KindCompleted) }

func (p *Publisher) publish(ctx context.Context, kind Kind) {
	tracer := p.Tracer
	if tracer == nil {
		tracer = telemetry.NewComponent(&telemetry.Config{}).Tracer("publisher")
	}
	ctx, span := tracer.Start(ctx, "publisher.publish."+string(kind))
	defer span.End()

	snap, err := p.buildSnapshot(ctx, kind)
	if err != nil {
		logging.Warnf(ctx, "queue-state publish (%s) failed, swallowing: %v", kind, err)
		return
	}

	if p.Metrics != nil {
		p.Metrics.SetQueueState(string(kind), snap.WaitingTriggersCount, snap.BlockedTriggersCount, int64(len(snap.CurrentlyExecuting)))
	}

	for _, l := range p.listeners {
		l(ctx, snap)
	}
}

func (p *Publisher) buildSnapshot(ctx context.Context, kind Kind) (QueueStateContext, error) {
	excluded := map[string]struct{}{}
	if p.Excluded != nil {
		excluded = p.Excluded()
	}

	waiting, err := p.Delegate.SelectWaitingTriggerCount(ctx, excluded)
	if err != nil {
		return QueueStateContext{}, err
	}
	blocked, err := p.Delegate.SelectBlockedTriggerCount(ctx, excluded)
	if err != nil {
		return QueueStateContext{}, err
	}

	entries := p.Exec.Snapshot()
	sort.Slice(entries, func(i, j int) bool { return entries[i].StartTime.Before(entries[j].StartTime) })

	items := make([]ExecutingItem, 0, len(entries))
	for _, e := range entries {
		desc := p.JobFactory.Describe(e.Detail)
		items = append(items, ExecutingItem{
			Key:         e.Key,
			Name:        desc.Name,
			Description: desc.Description,
			StartTime:   e.StartTime.UnixMilli(),
		})
	}

	return QueueStateContext{
		Kind:                 kind,
		ThreadCount:          p.ThreadCount,
		WaitingTriggersCount: waiting,
		BlockedTriggersCount: blocked,
		TotalTriggersCount:   waiting + blocked + int64(len(items)),
		CurrentlyExecuting:   items,
	}, nil
}
