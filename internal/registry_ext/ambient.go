// Package registry_ext holds one init()-registered builder per
// component, wiring config sections from config.AppConfig into the
// container via internal/registry.
package registry_ext

import (
	"github.com/cronforge/jobstore/internal/components/dbstore"
	"github.com/cronforge/jobstore/internal/components/logging"
	"github.com/cronforge/jobstore/internal/components/metrics"
	"github.com/cronforge/jobstore/internal/components/redis"
	"github.com/cronforge/jobstore/internal/components/telemetry"
	"github.com/cronforge/jobstore/internal/config"
	"github.com/cronforge/jobstore/internal/consts"
	"github.com/cronforge/jobstore/internal/core"
	"github.com/cronforge/jobstore/internal/registry"
)

func init() {
	registry.Register(consts.ComponentLogging, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Logging == nil || !cfg.Logging.Enabled {
			return false, nil, nil
		}
		comp, err := logging.NewFactory().Create(cfg.Logging)
		return err == nil, comp, err
	})

	registry.Register(consts.ComponentDatabase, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Database == nil || !cfg.Database.Enabled {
			return false, nil, nil
		}
		comp, err := dbstore.NewFactory().Create(cfg.Database)
		return err == nil, comp, err
	})

	registry.Register(consts.ComponentRedis, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Redis == nil || !cfg.Redis.Enabled {
			return false, nil, nil
		}
		comp, err := redis.NewFactory().Create(cfg.Redis)
		return err == nil, comp, err
	})

	registry.Register(consts.ComponentPrometheus, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Metrics == nil || !cfg.Metrics.Enabled {
			return false, nil, nil
		}
		comp, err := metrics.NewFactory().Create(cfg.Metrics)
		return err == nil, comp, err
	})

	registry.Register(consts.ComponentTelemetry, func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error) {
		if cfg.Telemetry == nil || !cfg.Telemetry.Enabled {
			return false, nil, nil
		}
		comp, err := telemetry.NewFactory().Create(cfg.Telemetry)
		return err == nil, comp, err
	})
}
