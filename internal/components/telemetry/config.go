package telemetry

// Config controls the OpenTelemetry tracer provider used to wrap
// acquisition, fire, and completion spans (SPEC_FULL.md's binding of
// otel/otel-sdk to engine tracing).
type Config struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	ServiceName  string  `yaml:"service_name" json:"service_name"`
	SampleRatio  float64 `yaml:"sample_ratio" json:"sample_ratio"`
	StdoutPretty bool    `yaml:"stdout_pretty" json:"stdout_pretty"`
}

func (c *Config) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "jobstore"
	}
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		c.SampleRatio = 1.0
	}
}
