package catalog

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cronforge/jobstore/internal/components/logging"
	"github.com/cronforge/jobstore/internal/consts"
	"github.com/cronforge/jobstore/internal/core"
	"github.com/cronforge/jobstore/internal/settings"
)

// Component wraps Catalog in the lifecycle: it applies the initial
// override map at Start, and if OverridesFile+WatchForChanges are set, it
// supervises an fsnotify watch loop via errgroup so Stop can wait for the
// goroutine to actually exit instead of leaking it.
type Component struct {
	*core.BaseComponent
	cfg     *Config
	catalog *Catalog
	watcher *fsnotify.Watcher
	group   *errgroup.Group
	cancel  context.CancelFunc
}

func NewComponent(cfg *Config) *Component {
	return &Component{BaseComponent: core.NewBaseComponent(consts.ComponentCatalog, consts.ComponentLogging), cfg: cfg}
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	overrides := map[string]int{}
	for k, v := range c.cfg.Overrides {
		overrides[k] = v
	}
	if c.cfg.OverridesFile != "" {
		fileOverrides, err := settings.NewFileProvider(c.cfg.OverridesFile).LimitedConcurrencyOverrides()
		if err != nil {
			return fmt.Errorf("load overrides file: %w", err)
		}
		for k, v := range fileOverrides {
			overrides[k] = v
		}
	}
	c.catalog = New(overrides)

	if c.cfg.OverridesFile != "" && c.cfg.WatchForChanges {
		if err := c.startWatch(ctx); err != nil {
			logging.Warn(ctx, "catalog: overrides watch disabled", zap.Error(err))
		}
	}

	logging.Info(ctx, "catalog component started", zap.Int("types", len(overrides)))
	return nil
}

func (c *Component) startWatch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(c.cfg.OverridesFile); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch overrides file: %w", err)
	}
	c.watcher = w

	watchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	g, gctx := errgroup.WithContext(watchCtx)
	c.group = g
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case event, ok := <-w.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				overrides, err := settings.NewFileProvider(c.cfg.OverridesFile).LimitedConcurrencyOverrides()
				if err != nil {
					logging.Warn(context.Background(), "catalog: failed to reload overrides", zap.Error(err))
					continue
				}
				c.catalog.ApplyOverrides(overrides)
				logging.Info(context.Background(), "catalog: overrides reloaded", zap.Int("types", len(overrides)))
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				logging.Warn(context.Background(), "catalog: watcher error", zap.Error(err))
			}
		}
	})
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.group != nil {
		_ = c.group.Wait()
	}
	if c.watcher != nil {
		_ = c.watcher.Close()
	}
	logging.Info(ctx, "catalog component stopped")
	return c.BaseComponent.Stop(ctx)
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if c.catalog == nil {
		return fmt.Errorf("catalog not initialized")
	}
	return nil
}

func (c *Component) Catalog() *Catalog { return c.catalog }
