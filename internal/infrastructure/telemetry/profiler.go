package telemetry

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ErrProfilerConfig reports an enabled profiler without a server or name
var ErrProfilerConfig = errors.New("telemetry: profiler needs a server address and application name")

// ProfilerConfig points the Pyroscope agent at its server
type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string
	ApplicationName string
}

// profileTypes covers CPU plus the heap and goroutine views used when
// chasing webhook backlog
var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// Profiler owns the Pyroscope agent. The zero value collects nothing.
type Profiler struct {
	agent  *pyroscope.Profiler
	logger *zap.Logger
	once   sync.Once
}

// NewProfiler starts the agent when cfg is enabled
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		return p, nil
	}
	if cfg.ServerAddress == "" || cfg.ApplicationName == "" {
		return nil, ErrProfilerConfig
	}

	tags := map[string]string{"version": ServiceVersion}
	if hostname, err := os.Hostname(); err == nil {
		tags["hostname"] = hostname
	}

	agent, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          logger.Named("pyroscope").Sugar(),
		Tags:            tags,
		ProfileTypes:    profileTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope agent: %w", err)
	}
	p.agent = agent

	logger.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
	)
	return p, nil
}

func (p *Profiler) IsEnabled() bool { return p.agent != nil }

// Stop uploads the last profiles. Later calls do nothing.
func (p *Profiler) Stop() error {
	var err error
	p.once.Do(func() {
		if p.agent == nil {
			return
		}
		if stopErr := p.agent.Stop(); stopErr != nil {
			err = fmt.Errorf("stop pyroscope agent: %w", stopErr)
		}
	})
	return err
}
