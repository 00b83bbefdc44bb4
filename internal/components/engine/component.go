// Package engine (component) wires the concurrency catalog, the filter
// bus (with an optional redis-backed filter), the executing table, and
// the acquisition/fire/complete engine itself into the lifecycle.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cronforge/jobstore/internal/catalog"
	"github.com/cronforge/jobstore/internal/components/logging"
	redisComp "github.com/cronforge/jobstore/internal/components/redis"
	"github.com/cronforge/jobstore/internal/concurrency"
	"github.com/cronforge/jobstore/internal/concurrency/redisfilter"
	"github.com/cronforge/jobstore/internal/config"
	"github.com/cronforge/jobstore/internal/consts"
	"github.com/cronforge/jobstore/internal/core"
	coreengine "github.com/cronforge/jobstore/internal/engine"
	"github.com/cronforge/jobstore/internal/schedmeta"
	"github.com/cronforge/jobstore/internal/store"
)

type Component struct {
	*core.BaseComponent
	Store   *store.Component    `infra:"dep:store"`
	Catalog *catalog.Component  `infra:"dep:catalog"`
	Redis   *redisComp.Component `infra:"dep:redis?"`

	cfg        *config.EngineConfig
	filters    *concurrency.FilterBus
	exec       *concurrency.ExecutingTable
	redisFilt  *redisfilter.Filter
	runCtx     context.Context
	cancel     context.CancelFunc
	eng        *coreengine.Engine
}

func NewComponent(cfg *config.EngineConfig) *Component {
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.ComponentEngine, consts.ComponentStore, consts.ComponentCatalog),
		cfg:           cfg,
	}
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if c.Store == nil || c.Catalog == nil {
		return fmt.Errorf("engine: store/catalog dependency not ready")
	}

	c.filters = concurrency.NewFilterBus()
	c.exec = concurrency.NewExecutingTable()

	if c.Redis != nil {
		c.redisFilt = redisfilter.New(c.Redis.Client(), rate.Limit(1))
		c.filters.Register(c.redisFilt)
		runCtx, cancel := context.WithCancel(context.Background())
		c.runCtx, c.cancel = runCtx, cancel
		if err := c.redisFilt.Run(runCtx); err != nil {
			cancel()
			return fmt.Errorf("engine: start redis filter: %w", err)
		}
	}

	instance := c.cfg.SchedulerInstance
	if instance == "" {
		instance = "jobstore-0"
	}
	cacheSize := c.cfg.TypeCacheSize

	c.eng = &coreengine.Engine{
		Delegate:          c.Store.Delegate(),
		Catalog:           c.Catalog.Catalog(),
		Filters:           c.filters,
		Exec:              c.exec,
		Types:             c.Store.Loader(),
		SchedulerInstance: instance,
	}
	_ = cacheSize // type cache size is applied inside the store component itself

	logging.Info(ctx, "engine component started", zap.String("scheduler_instance", instance))
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.redisFilt != nil {
		c.redisFilt.Stop()
	}
	logging.Info(ctx, "engine component stopped")
	return c.BaseComponent.Stop(ctx)
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if c.eng == nil {
		return fmt.Errorf("engine not initialized")
	}
	return nil
}

func (c *Component) Engine() *coreengine.Engine        { return c.eng }
func (c *Component) Filters() *concurrency.FilterBus   { return c.filters }
func (c *Component) Exec() *concurrency.ExecutingTable { return c.exec }

// Scheduler reports the one-shot thread-pool size read from configuration,
// the same value a scheduler factory would expose at construction time.
func (c *Component) Scheduler() schedmeta.Provider {
	return schedmeta.StaticProvider(c.cfg.ThreadPoolSize)
}
