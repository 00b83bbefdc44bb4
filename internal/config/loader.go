package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cronforge/jobstore/internal/consts"
)

// Loader reads an AppConfig from a yaml or json file.
type Loader struct {
	env        string
	configPath string
}

func NewLoader(env, configPath string) *Loader {
	if env == "" {
		env = consts.EnvDevelopment
	}
	if configPath == "" {
		configPath = consts.DefaultConfigPath
	}
	return &Loader{env: env, configPath: configPath}
}

func (l *Loader) LoadConfig() (*AppConfig, error) {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	switch ext := strings.ToLower(filepath.Ext(l.configPath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}
	return &cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
