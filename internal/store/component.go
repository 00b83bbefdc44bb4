package store

import (
	"context"
	"fmt"

	"github.com/cronforge/jobstore/internal/components/dbstore"
	"github.com/cronforge/jobstore/internal/consts"
	"github.com/cronforge/jobstore/internal/core"
	"github.com/cronforge/jobstore/internal/typeloader"
)

// Component wires the GormDelegate into the lifecycle, consuming the
// dbstore connection via struct-tag injection and building its own
// type-load helper in Start.
type Component struct {
	*core.BaseComponent
	DB       *dbstore.Component `infra:"dep:database"`
	delegate *GormDelegate
	loader   *typeloader.Loader
	cacheSize int
}

func NewComponent(cacheSize int) *Component {
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.ComponentStore, consts.ComponentDatabase),
		cacheSize:     cacheSize,
	}
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if c.DB == nil || c.DB.DB() == nil {
		return fmt.Errorf("store: database dependency not ready")
	}
	c.loader = typeloader.New(c.cacheSize)
	c.delegate = NewGormDelegate(c.DB.DB(), c.loader)
	return nil
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if c.delegate == nil {
		return fmt.Errorf("store delegate not initialized")
	}
	return nil
}

func (c *Component) Delegate() Delegate { return c.delegate }

// Loader exposes the type-load helper so the engine component can build a
// coreengine.Engine without constructing its own second cache.
func (c *Component) Loader() *typeloader.Loader { return c.loader }
