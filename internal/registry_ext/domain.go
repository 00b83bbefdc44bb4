package registry_ext

import (
	"github.com/cronforge/jobstore/internal/catalog"
	engineComp "github.com/cronforge/jobstore/internal/components/engine"
	pubComp "github.com/cronforge/jobstore/internal/components/publisher"
	"github.com/cronforge/jobstore/internal/config"
	"github.com/cronforge/jobstore/internal/consts"
	"github.com/cronforge/jobstore/internal/core"
	"github.com/cronforge/jobstore/internal/registry"
	"github.com/cronforge/jobstore/internal/store"
)

func init() {
	registry.Register(consts.ComponentCatalog, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Catalog == nil || !cfg.Catalog.Enabled {
			return false, nil, nil
		}
		return true, catalog.NewComponent(cfg.Catalog), nil
	})

	registry.Register(consts.ComponentStore, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Database == nil || !cfg.Database.Enabled {
			return false, nil, nil
		}
		cacheSize := 256
		if cfg.Engine != nil && cfg.Engine.TypeCacheSize > 0 {
			cacheSize = cfg.Engine.TypeCacheSize
		}
		return true, store.NewComponent(cacheSize), nil
	})

	registry.Register(consts.ComponentEngine, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Engine == nil {
			cfg.Engine = &config.EngineConfig{}
		}
		return true, engineComp.NewComponent(cfg.Engine), nil
	})

	registry.Register(consts.ComponentPublisher, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		return true, pubComp.NewComponent(), nil
	})
}
