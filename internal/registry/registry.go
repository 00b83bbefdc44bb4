// Package registry orders and builds every component the process needs:
// builders register themselves (usually from an init() in a sibling
// package), BuildAndRegisterAll topologically sorts them by declared
// build-time dependencies and registers the survivors into a
// core.Container, then internal/autowire resolves their `infra:"dep:..."`
// fields.
package registry

import (
	"fmt"
	"sort"

	"github.com/cronforge/jobstore/internal/autowire"
	"github.com/cronforge/jobstore/internal/config"
	"github.com/cronforge/jobstore/internal/core"
)

// BuilderFunc returns (enabled, component, error). enabled=false skips
// registration entirely (e.g. a config section with Enabled=false).
type BuilderFunc func(cfg *config.AppConfig, c *core.Container) (bool, core.Component, error)

// Builder holds one registered builder plus its build-order metadata.
type Builder struct {
	Name string
	Fn   BuilderFunc
	Deps []string // build-time ordering only; runtime deps come from Dependencies()
}

var builders []*Builder

func findBuilder(name string) *Builder {
	for _, b := range builders {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Register adds a named builder with no build-time ordering constraints;
// BuildAndRegisterAll builds such builders in name order.
func Register(name string, fn BuilderFunc) {
	if name == "" {
		panic("registry: empty name in Register")
	}
	if findBuilder(name) != nil {
		panic("registry: duplicate builder name " + name)
	}
	builders = append(builders, &Builder{Name: name, Fn: fn})
}

// RegisterWithDeps adds a named builder that must be built after the
// given dependency names, whether or not those dependencies show up in
// the component's own Dependencies() list. Needed for components whose
// constructor needs a collaborator's concrete type (e.g. the engine
// needs the store's Delegate) before the component tree can be wired by
// autowire, which only runs after every builder has produced a
// component.
func RegisterWithDeps(name string, deps []string, fn BuilderFunc) {
	if name == "" {
		panic("registry: empty name in RegisterWithDeps")
	}
	if findBuilder(name) != nil {
		panic("registry: duplicate builder name " + name)
	}
	builders = append(builders, &Builder{Name: name, Fn: fn, Deps: append([]string(nil), deps...)})
}

// BuildAndRegisterAll topologically sorts registered builders by Deps,
// invokes each in order, registers the resulting components, then runs
// autowire to resolve `infra:"dep:..."` fields across the whole
// container.
func BuildAndRegisterAll(cfg *config.AppConfig, c *core.Container) error {
	ordered, err := topoSortBuilders(builders)
	if err != nil {
		return err
	}
	for _, b := range ordered {
		enabled, comp, err := b.Fn(cfg, c)
		if err != nil {
			return fmt.Errorf("build %s failed: %w", b.Name, err)
		}
		if !enabled || comp == nil {
			continue
		}
		if err := c.Register(b.Name, comp); err != nil {
			return fmt.Errorf("register %s failed: %w", b.Name, err)
		}
	}
	if err := autowire.InjectAll(c); err != nil {
		return fmt.Errorf("autowire: %w", err)
	}
	applyRuntimeDepExtensions(c)
	return nil
}

func topoSortBuilders(list []*Builder) ([]*Builder, error) {
	nameMap := map[string]*Builder{}
	inDeg := map[string]int{}
	adj := map[string][]string{}
	for _, b := range list {
		nameMap[b.Name] = b
		inDeg[b.Name] = 0
	}
	for _, b := range list {
		for _, d := range b.Deps {
			if _, ok := nameMap[d]; !ok {
				continue
			}
			adj[d] = append(adj[d], b.Name)
			inDeg[b.Name]++
		}
	}
	var zero []string
	for n, d := range inDeg {
		if d == 0 {
			zero = append(zero, n)
		}
	}
	sort.Strings(zero)
	var ordered []*Builder
	for len(zero) > 0 {
		n := zero[0]
		zero = zero[1:]
		ordered = append(ordered, nameMap[n])
		for _, nxt := range adj[n] {
			inDeg[nxt]--
			if inDeg[nxt] == 0 {
				zero = append(zero, nxt)
			}
		}
		sort.Strings(zero)
	}
	if len(ordered) != len(nameMap) {
		var cyc []string
		for n, d := range inDeg {
			if d > 0 {
				cyc = append(cyc, n)
			}
		}
		sort.Strings(cyc)
		return nil, fmt.Errorf("registry: cyclic builder deps: %v", cyc)
	}
	return ordered, nil
}
