package config

import "fmt"

// Validator checks the loaded config shape before components are built
// from it.
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

func (v *Validator) ValidateAppConfig(cfg *AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if cfg.Database != nil && cfg.Database.Enabled && cfg.Database.Driver == "" {
		return fmt.Errorf("database.driver is required when database.enabled is true")
	}
	return nil
}

func (v *Validator) validateConfigFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("config file path cannot be empty")
	}
	if !fileExists(path) {
		return fmt.Errorf("config file does not exist: %s", path)
	}
	return nil
}
