package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/cronforge/jobstore/internal/components/logging"
	"github.com/cronforge/jobstore/internal/consts"
	"github.com/cronforge/jobstore/internal/core"
)

// Component owns the process-wide TracerProvider and installs it as the
// global otel provider. The publisher pulls a Tracer from it; the engine
// wraps acquisition/fire/complete spans with a Tracer from the global
// provider.
type Component struct {
	*core.BaseComponent
	cfg     *Config
	tp      *sdktrace.TracerProvider
	started bool
}

func NewComponent(cfg *Config) *Component {
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.ComponentTelemetry, consts.ComponentLogging),
		cfg:           cfg,
	}
}

func (c *Component) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	c.cfg.applyDefaults()

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithHost(),
		resource.WithAttributes(semconv.ServiceName(c.cfg.ServiceName)),
	)
	if err != nil {
		return fmt.Errorf("telemetry: build resource: %w", err)
	}

	exporterOpts := []stdouttrace.Option{}
	if !c.cfg.StdoutPretty {
		exporterOpts = append(exporterOpts, stdouttrace.WithoutTimestamps())
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return fmt.Errorf("telemetry: build exporter: %w", err)
	}

	c.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.cfg.SampleRatio))),
	)
	otel.SetTracerProvider(c.tp)

	logging.Infof(ctx, "telemetry tracer provider started (service=%s sample_ratio=%.2f)", c.cfg.ServiceName, c.cfg.SampleRatio)
	c.started = true
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	defer func() { _ = c.BaseComponent.Stop(ctx) }()
	if !c.started || c.tp == nil {
		return nil
	}
	if err := c.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutdown: %w", err)
	}
	logging.Info(ctx, "telemetry component stopped")
	return nil
}

func (c *Component) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if !c.started {
		return fmt.Errorf("telemetry not started")
	}
	return nil
}

// Tracer returns the named tracer for span creation. Safe to call before
// Start; returns the global no-op tracer in that case.
func (c *Component) Tracer(name string) trace.Tracer {
	if c.tp == nil {
		return otel.Tracer(name)
	}
	return c.tp.Tracer(name)
}
