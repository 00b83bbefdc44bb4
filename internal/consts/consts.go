// Package consts centralizes component names and environment keys shared
// across packages, so registry wiring and config loading agree on string
// literals without importing each other.
package consts

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"

	DefaultConfigPath = "config.yaml"

	KeyTraceID = "trace_id"
)

// Component names, used both as container registration keys and as
// `infra:"dep:<name>"` tag values.
const (
	ComponentLogging    = "logging"
	ComponentDatabase   = "database"
	ComponentRedis      = "redis"
	ComponentPrometheus = "prometheus"
	ComponentTelemetry  = "telemetry"
	ComponentCatalog    = "catalog"
	ComponentStore      = "store"
	ComponentEngine     = "engine"
	ComponentPublisher  = "publisher"
)
