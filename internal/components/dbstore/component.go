// Package dbstore wraps the single GORM connection backing the job store.
// It supports mysql and postgres dialects, chosen by Config.Driver: one
// connection component rather than a pair of dialect-specific ones, since
// the job store needs exactly one datasource rather than a named
// multi-datasource pool.
package dbstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	mysqlDriver "gorm.io/driver/mysql"
	pgDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cronforge/jobstore/internal/components/logging"
	"github.com/cronforge/jobstore/internal/consts"
	"github.com/cronforge/jobstore/internal/core"
)

type Component struct {
	*core.BaseComponent
	cfg   *Config
	db    *gorm.DB
	mutex sync.RWMutex
	log   logger.Interface
}

func NewComponent(cfg *Config) *Component {
	c := &Component{
		BaseComponent: core.NewBaseComponent(consts.ComponentDatabase, consts.ComponentLogging),
		cfg:           cfg,
	}
	c.log = newGormLogger(cfg)
	return c
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if c.cfg == nil || !c.cfg.Enabled {
		return fmt.Errorf("dbstore component disabled or nil config")
	}

	dsn, err := buildDSN(c.cfg)
	if err != nil {
		return fmt.Errorf("build dsn: %w", err)
	}

	var dialector gorm.Dialector
	switch strings.ToLower(c.cfg.Driver) {
	case "mysql":
		dialector = mysqlDriver.New(mysqlDriver.Config{DSN: dsn})
	case "postgres", "postgresql":
		dialector = pgDriver.Open(dsn)
	default:
		return fmt.Errorf("unknown dbstore driver %q", c.cfg.Driver)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:                  c.log,
		SkipDefaultTransaction:  c.cfg.SkipDefaultTransaction,
		PrepareStmt:             c.cfg.PrepareStmt,
	})
	if err != nil {
		return fmt.Errorf("open gorm db failed: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("get underlying sql.DB failed: %w", err)
	}

	if c.cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.cfg.MaxOpenConns)
	} else {
		sqlDB.SetMaxOpenConns(50)
	}
	if c.cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.cfg.MaxIdleConns)
	} else {
		sqlDB.SetMaxIdleConns(10)
	}
	if c.cfg.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(c.cfg.ConnMaxLife)
	} else {
		sqlDB.SetConnMaxLifetime(60 * time.Minute)
	}
	if c.cfg.ConnMaxIdle > 0 {
		sqlDB.SetConnMaxIdleTime(c.cfg.ConnMaxIdle)
	}

	if c.cfg.PingOnStart {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := sqlDB.PingContext(pingCtx); err != nil {
			cancel()
			_ = sqlDB.Close()
			return fmt.Errorf("ping db failed: %w", err)
		}
		cancel()
	}

	c.mutex.Lock()
	c.db = gormDB
	c.mutex.Unlock()

	logging.Infof(ctx, "[dbstore] started driver=%s", c.cfg.Driver)
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	defer func() { _ = c.BaseComponent.Stop(ctx) }()
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		logging.Info(ctx, "[dbstore] closed")
	}
	return nil
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.db == nil {
		return fmt.Errorf("dbstore not initialized")
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB failed: %w", err)
	}
	return sqlDB.Ping()
}

func (c *Component) DB() *gorm.DB {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.db
}

func buildDSN(cfg *Config) (string, error) {
	if strings.TrimSpace(cfg.DSN) != "" {
		return cfg.DSN, nil
	}
	if cfg.Host == "" || cfg.User == "" || cfg.Database == "" {
		return "", errors.New("host, user, database required when dsn not provided")
	}
	switch strings.ToLower(cfg.Driver) {
	case "mysql":
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		params := url.Values{}
		params.Set("parseTime", "true")
		params.Set("charset", "utf8mb4")
		params.Set("loc", "Local")
		for k, v := range cfg.Params {
			params.Set(k, v)
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", cfg.User, cfg.Password, cfg.Host, port, cfg.Database, params.Encode()), nil
	case "postgres", "postgresql":
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		base := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d", cfg.Host, cfg.User, cfg.Password, cfg.Database, port)
		var extras []string
		for k, v := range cfg.Params {
			extras = append(extras, fmt.Sprintf("%s=%s", k, v))
		}
		if len(extras) > 0 {
			base += " " + strings.Join(extras, " ")
		}
		return base, nil
	default:
		return "", fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

type gormLogger struct {
	logLevel      logger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(cfg *Config) logger.Interface {
	lvl := logger.Info
	slow := 200 * time.Millisecond
	if cfg != nil {
		switch strings.ToLower(cfg.LogLevel) {
		case "silent":
			lvl = logger.Silent
		case "error":
			lvl = logger.Error
		case "warn", "warning":
			lvl = logger.Warn
		case "info", "debug":
			lvl = logger.Info
		}
		if cfg.SlowThreshold > 0 {
			slow = cfg.SlowThreshold
		}
	}
	return &gormLogger{logLevel: lvl, slowThreshold: slow}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	nl := *l
	nl.logLevel = level
	return &nl
}
func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		logging.Infof(ctx, "[gorm] "+msg, data...)
	}
}
func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		logging.Warnf(ctx, "[gorm] "+msg, data...)
	}
}
func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		logging.Errorf(ctx, "[gorm] "+msg, data...)
	}
}
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sqlStr, rows := fc()
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.logLevel >= logger.Error {
		logging.Errorf(ctx, "[gorm] error elapsed=%s rows=%d sql=%s err=%v", elapsed, rows, sqlStr, err)
		return
	}
	if l.slowThreshold > 0 && elapsed > l.slowThreshold && l.logLevel >= logger.Warn {
		logging.Warnf(ctx, "[gorm] slow elapsed=%s threshold=%s rows=%d sql=%s", elapsed, l.slowThreshold, rows, sqlStr)
		return
	}
	if l.logLevel >= logger.Info {
		logging.Debugf(ctx, "[gorm] elapsed=%s rows=%d sql=%s", elapsed, rows, sqlStr)
	}
}
