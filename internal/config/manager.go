package config

// Manager owns the load → validate pipeline and caches the result.
type Manager struct {
	loader    *Loader
	validator *Validator
	appConfig *AppConfig
}

func NewManager(env, configPath string) *Manager {
	return &Manager{loader: NewLoader(env, configPath), validator: NewValidator()}
}

func (m *Manager) GetConfig() *AppConfig { return m.appConfig }

func (m *Manager) LoadConfig() error {
	if err := m.validator.validateConfigFilePath(m.loader.configPath); err != nil {
		return err
	}
	cfg, err := m.loader.LoadConfig()
	if err != nil {
		return err
	}
	if err := m.validator.ValidateAppConfig(cfg); err != nil {
		return err
	}
	m.appConfig = cfg
	return nil
}
