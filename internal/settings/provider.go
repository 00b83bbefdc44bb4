// Package settings is the settings-provider external interface: a
// one-shot (plus optional hot-reload) read of
// Quartz.LimitedConcurrencyOverrides, the ordered {typeShortName: limit}
// map the catalog folds into its rules.
package settings

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Provider interface {
	LimitedConcurrencyOverrides() (map[string]int, error)
}

// FileProvider reads the override map from a YAML file, tolerating the
// file not existing yet (returns an empty map, not an error, so a fresh
// deployment without an overrides file still starts up).
type FileProvider struct {
	Path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

func (p *FileProvider) LimitedConcurrencyOverrides() (map[string]int, error) {
	if p.Path == "" {
		return map[string]int{}, nil
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int{}, nil
		}
		return nil, err
	}
	var out map[string]int
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]int{}
	}
	return out, nil
}

// StaticProvider wraps a fixed map, for in-process configuration already
// parsed by the application config loader.
type StaticProvider map[string]int

func (p StaticProvider) LimitedConcurrencyOverrides() (map[string]int, error) {
	out := make(map[string]int, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out, nil
}
