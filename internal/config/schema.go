package config

import (
	"github.com/cronforge/jobstore/internal/catalog"
	"github.com/cronforge/jobstore/internal/components/dbstore"
	"github.com/cronforge/jobstore/internal/components/logging"
	"github.com/cronforge/jobstore/internal/components/metrics"
	"github.com/cronforge/jobstore/internal/components/redis"
	"github.com/cronforge/jobstore/internal/components/telemetry"
)

// AppConfig is the root configuration document: one section per
// component, plus process identity and engine tuning.
type AppConfig struct {
	AppInfo   *AppInfo          `yaml:"app_info" json:"app_info"`
	Logging   *logging.Config   `yaml:"logging" json:"logging"`
	Database  *dbstore.Config   `yaml:"database" json:"database"`
	Redis     *redis.Config     `yaml:"redis" json:"redis"`
	Catalog   *catalog.Config   `yaml:"catalog" json:"catalog"`
	Metrics   *metrics.Config   `yaml:"metrics" json:"metrics"`
	Telemetry *telemetry.Config `yaml:"telemetry" json:"telemetry"`
	Engine    *EngineConfig     `yaml:"engine" json:"engine"`
}

type AppInfo struct {
	AppName string `yaml:"app_name" json:"app_name"`
	Env     string `yaml:"env" json:"env"`
}

// EngineConfig tunes the acquisition loop and the type-load cache.
type EngineConfig struct {
	SchedulerInstance  string `yaml:"scheduler_instance" json:"scheduler_instance"`
	TypeCacheSize      int    `yaml:"type_cache_size" json:"type_cache_size"`
	AcquireMaxCount    int    `yaml:"acquire_max_count" json:"acquire_max_count"`
	AcquireTimeWindowMS int   `yaml:"acquire_time_window_ms" json:"acquire_time_window_ms"`
	ThreadPoolSize     int    `yaml:"thread_pool_size" json:"thread_pool_size"`
}
