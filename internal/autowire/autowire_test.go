package autowire

import (
	"testing"

	"github.com/cronforge/jobstore/internal/core"
)

type leafComponent struct {
	*core.BaseComponent
	Value int
}

type consumerComponent struct {
	*core.BaseComponent
	Leaf     *leafComponent `infra:"dep:leaf"`
	Optional *leafComponent `infra:"dep:missing?"`
}

func newLeaf() *leafComponent {
	return &leafComponent{BaseComponent: core.NewBaseComponent("leaf"), Value: 7}
}

func newConsumer() *consumerComponent {
	return &consumerComponent{BaseComponent: core.NewBaseComponent("consumer")}
}

func TestInjectSetsTaggedFieldFromContainer(t *testing.T) {
	c := core.NewContainer()
	leaf := newLeaf()
	consumer := newConsumer()
	if err := c.Register("leaf", leaf); err != nil {
		t.Fatalf("register leaf: %v", err)
	}
	if err := c.Register("consumer", consumer); err != nil {
		t.Fatalf("register consumer: %v", err)
	}

	if err := InjectAll(c); err != nil {
		t.Fatalf("InjectAll: %v", err)
	}

	if consumer.Leaf == nil {
		t.Fatalf("expected Leaf field to be injected")
	}
	if consumer.Leaf.Value != 7 {
		t.Fatalf("expected injected leaf to be the same instance, got value %d", consumer.Leaf.Value)
	}
	if consumer.Optional != nil {
		t.Fatalf("expected an optional dep with no matching component to stay nil")
	}
}

func TestInjectRegistersRuntimeDependencyEdge(t *testing.T) {
	c := core.NewContainer()
	leaf := newLeaf()
	consumer := newConsumer()
	_ = c.Register("leaf", leaf)
	_ = c.Register("consumer", consumer)

	if err := InjectAll(c); err != nil {
		t.Fatalf("InjectAll: %v", err)
	}

	found := false
	for _, d := range consumer.Dependencies() {
		if d == "leaf" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected injecting the leaf dependency to also record it via AddDependencies, got %v", consumer.Dependencies())
	}
}

func TestInjectFailsOnMissingRequiredDependency(t *testing.T) {
	c := core.NewContainer()
	consumer := newConsumer()
	_ = c.Register("consumer", consumer)

	if err := InjectAll(c); err == nil {
		t.Fatalf("expected InjectAll to fail: required dep 'leaf' was never registered")
	}
}
