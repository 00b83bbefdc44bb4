// Package app assembles the process: load config, build every component
// via the registry, and run the lifecycle manager until a shutdown
// signal arrives.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cronforge/jobstore/internal/config"
	"github.com/cronforge/jobstore/internal/core"
	"github.com/cronforge/jobstore/internal/hooks"
	"github.com/cronforge/jobstore/internal/registry"
	_ "github.com/cronforge/jobstore/internal/registry_ext"
)

type App struct {
	container        *core.Container
	lifecycleManager *core.LifecycleManager
	configManager    *config.Manager

	bootOnce sync.Once
	bootErr  error

	shutdownTimeout time.Duration
}

func NewApp(env, configPath string) *App {
	abs := configPath
	if p, err := filepath.Abs(configPath); err == nil {
		abs = p
	}
	container := core.NewContainer()
	lm := core.NewLifecycleManagerWithManager(container, hooks.GetGlobalHookManager())
	return &App{
		configManager:    config.NewManager(env, abs),
		container:        container,
		lifecycleManager: lm,
		shutdownTimeout:  30 * time.Second,
	}
}

func (a *App) SetShutdownTimeout(d time.Duration) { a.shutdownTimeout = d }

func (a *App) boot() error {
	a.bootOnce.Do(func() {
		if err := a.configManager.LoadConfig(); err != nil {
			a.bootErr = fmt.Errorf("load config: %w", err)
			return
		}
		if err := registry.BuildAndRegisterAll(a.configManager.GetConfig(), a.container); err != nil {
			a.bootErr = fmt.Errorf("register components: %w", err)
		}
	})
	return a.bootErr
}

func (a *App) GetComponent(name string) (core.Component, error) { return a.container.Resolve(name) }

func (a *App) GetConfig() *config.AppConfig { return a.configManager.GetConfig() }

// RunWithContext starts every component in dependency order, blocks
// until ctx is done, then stops everything in reverse order.
func (a *App) RunWithContext(ctx context.Context) error {
	if err := a.boot(); err != nil {
		return err
	}
	if err := a.lifecycleManager.StartAll(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.lifecycleManager.StopAll(context.Background())
	return nil
}

func (a *App) Shutdown(ctx context.Context) { a.lifecycleManager.StopAll(ctx) }
