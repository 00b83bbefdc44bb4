package logging

import (
	"fmt"

	"github.com/cronforge/jobstore/internal/core"
)

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Create(cfg interface{}) (core.Component, error) {
	c, ok := cfg.(*Config)
	if !ok {
		return nil, fmt.Errorf("invalid config type for logging component, expected *Config")
	}
	if !c.Enabled {
		return nil, fmt.Errorf("logging component disabled")
	}
	setDefaults(c)
	return NewComponent(c), nil
}
