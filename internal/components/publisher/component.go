// Package publisher (component) wires the queue-state publisher into the
// lifecycle: it builds a publisher.Publisher from the engine, store,
// catalog, and metrics components already in the container, then
// installs itself as the engine's Publisher so acquire/fire/complete
// calls emit events.
package publisher

import (
	"context"
	"fmt"

	engineComp "github.com/cronforge/jobstore/internal/components/engine"
	"github.com/cronforge/jobstore/internal/components/logging"
	"github.com/cronforge/jobstore/internal/components/metrics"
	"github.com/cronforge/jobstore/internal/components/telemetry"
	"github.com/cronforge/jobstore/internal/consts"
	"github.com/cronforge/jobstore/internal/core"
	"github.com/cronforge/jobstore/internal/jobfactory"
	corepub "github.com/cronforge/jobstore/internal/publisher"
	"github.com/cronforge/jobstore/internal/store"
)

type Component struct {
	*core.BaseComponent
	Engine    *engineComp.Component `infra:"dep:engine"`
	Store     *store.Component      `infra:"dep:store"`
	Metrics   *metrics.Component     `infra:"dep:prometheus?"`
	Telemetry *telemetry.Component   `infra:"dep:telemetry?"`

	pub *corepub.Publisher
}

func NewComponent() *Component {
	return &Component{BaseComponent: core.NewBaseComponent(consts.ComponentPublisher, consts.ComponentEngine, consts.ComponentStore)}
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if c.Engine == nil || c.Engine.Engine() == nil || c.Store == nil {
		return fmt.Errorf("publisher: engine/store dependency not ready")
	}

	c.pub = &corepub.Publisher{
		Delegate:    c.Store.Delegate(),
		Catalog:     c.Engine.Engine().Catalog,
		Exec:        c.Engine.Exec(),
		JobFactory:  jobfactory.New(),
		Excluded:    c.Engine.Filters().ExcludedTypes,
		ThreadCount: c.Engine.Scheduler().ThreadPoolSize(),
	}
	if c.Metrics != nil {
		c.pub.Metrics = c.Metrics
	}
	if c.Telemetry != nil {
		c.pub.Tracer = c.Telemetry.Tracer("publisher")
	}

	c.Engine.Engine().Publisher = c.pub

	logging.Info(ctx, "publisher component started")
	return nil
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if c.pub == nil {
		return fmt.Errorf("publisher not initialized")
	}
	return nil
}

func (c *Component) Publisher() *corepub.Publisher { return c.pub }
