package dbstore

import (
	"fmt"

	"github.com/cronforge/jobstore/internal/core"
)

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Create(cfg interface{}) (core.Component, error) {
	c, ok := cfg.(*Config)
	if !ok {
		return nil, fmt.Errorf("invalid config type for dbstore component (*Config required)")
	}
	if c == nil || !c.Enabled {
		return nil, fmt.Errorf("dbstore component disabled")
	}
	if c.Driver == "" {
		c.Driver = "mysql"
	}
	return NewComponent(c), nil
}
