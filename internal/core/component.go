package core

import "context"

// Component is the unit the lifecycle manager starts, stops, and
// health-checks. Every piece of the store — the database handle, the
// concurrency catalog, the acquisition engine, the metrics server — is one
// of these so the process has a single uniform bring-up/shutdown path.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	HealthCheck() error
	Dependencies() []string
	IsActive() bool
}

// BaseComponent implements the bookkeeping every Component needs: a name,
// an active flag, and a mutable dependency list. Embed it and override
// Start/Stop/HealthCheck as needed.
type BaseComponent struct {
	name   string
	active bool
	deps   []string
}

func NewBaseComponent(name string, deps ...string) *BaseComponent {
	return &BaseComponent{name: name, deps: deps}
}

func (c *BaseComponent) Name() string          { return c.name }
func (c *BaseComponent) Dependencies() []string { return c.deps }
func (c *BaseComponent) IsActive() bool        { return c.active }
func (c *BaseComponent) SetActive(active bool) { c.active = active }

func (c *BaseComponent) Start(ctx context.Context) error {
	c.active = true
	return nil
}

func (c *BaseComponent) Stop(ctx context.Context) error {
	c.active = false
	return nil
}

func (c *BaseComponent) HealthCheck() error {
	if !c.active {
		return &notActiveError{name: c.name}
	}
	return nil
}

// AddDependencies extends the dependency list after construction. Used by
// the registry to bolt on runtime-only ordering edges (see
// internal/registry.ExtendRuntimeDependencies) before StartAll sorts.
func (c *BaseComponent) AddDependencies(deps ...string) {
	if len(deps) == 0 {
		return
	}
	c.deps = append(c.deps, deps...)
}

type notActiveError struct{ name string }

func (e *notActiveError) Error() string {
	return "component " + e.name + " is not active"
}
