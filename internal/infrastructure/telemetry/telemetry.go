package telemetry

import (
	"context"
	"errors"

	"github.com/tierhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Telemetry groups the signal providers started and stopped with the server.
// Providers for disabled signals are zero values.
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts every signal enabled in cfg. On failure the providers already
// started are shut down.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Telemetry, error) {
	t := &Telemetry{
		Tracer:   &TracerProvider{logger: logger},
		Meter:    &MeterProvider{},
		Logs:     &LoggerProvider{},
		Profiler: &Profiler{logger: logger},
	}
	logger.Info("Telemetry signals",
		zap.Bool("tracing", cfg.Enabled),
		zap.Bool("metrics", cfg.MetricsEnabled),
		zap.Bool("log_export", cfg.LogExportEnabled),
		zap.Bool("profiling", cfg.ProfilingEnabled),
	)

	exporting := cfg.Enabled || cfg.MetricsEnabled || cfg.LogExportEnabled
	if exporting {
		col, err := newCollector(cfg)
		if err != nil {
			return nil, err
		}
		if err := t.startExporters(ctx, cfg, col, logger); err != nil {
			return nil, errors.Join(err, t.Shutdown(ctx))
		}
	}

	if cfg.ProfilingEnabled {
		profiler, err := NewProfiler(ProfilerConfig{
			Enabled:         true,
			ServerAddress:   cfg.PyroscopeURL,
			ApplicationName: cfg.ServiceName,
		}, logger)
		if err != nil {
			return nil, errors.Join(err, t.Shutdown(ctx))
		}
		t.Profiler = profiler
		t.Tracer.EnableSpanProfiles()
	}
	return t, nil
}

func (t *Telemetry) startExporters(ctx context.Context, cfg config.TelemetryConfig, col collector, logger *zap.Logger) error {
	if cfg.Enabled {
		tp, err := newTracerProvider(ctx, col, cfg.SamplingRatio, logger)
		if err != nil {
			return err
		}
		t.Tracer = tp
	}
	if cfg.MetricsEnabled {
		mp, err := newMeterProvider(ctx, col, cfg.MetricsInterval, logger)
		if err != nil {
			return err
		}
		t.Meter = mp
	}
	if cfg.LogExportEnabled {
		lp, err := newLoggerProvider(ctx, col, cfg.ServiceName, logger)
		if err != nil {
			return err
		}
		t.Logs = lp
	}
	return nil
}

// Shutdown stops the profiler, then flushes exporters in reverse start order
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.Profiler.Stop(),
		t.Logs.Shutdown(ctx),
		t.Meter.Shutdown(ctx),
		t.Tracer.Shutdown(ctx),
	)
}
