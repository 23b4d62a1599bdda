/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"github.com/carverauto/pumpsync/pkg/devicestate"
	"github.com/carverauto/pumpsync/pkg/kv"
	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/metrics"
	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/natsutil"
	"github.com/carverauto/pumpsync/pkg/pumpops"
	"github.com/carverauto/pumpsync/pkg/pumpsync"
	"github.com/carverauto/pumpsync/pkg/remote"
	"github.com/carverauto/pumpsync/pkg/session"
	"github.com/carverauto/pumpsync/pkg/status"
	"github.com/carverauto/pumpsync/pkg/trigger"
)

const (
	tracerName = "github.com/carverauto/pumpsync/pkg/manager"
	meterName  = "github.com/carverauto/pumpsync"
)

var (
	_ trigger.HeartbeatHandler = (*Manager)(nil)
	_ trigger.StatusHandler    = (*Manager)(nil)
	_ trigger.Cycler           = (*Manager)(nil)
)

// Service wires a Manager to its NATS connection, stores, remote backend
// and triggers.
type Service struct {
	config *ServiceConfig

	nc          *nats.Conn
	store       kv.KVStore
	closeRemote func()
	metrics     metrics.Metrics
	flags       *pumpsync.Flags
	manager     *Manager
	scheduler   *trigger.Scheduler
	heartbeat   *trigger.Heartbeat
	statuses    *trigger.StatusListener

	logger logger.Logger
}

func componentLogger(log logger.Logger, component string) logger.Logger {
	return logger.FromZerolog(log.WithComponent(component))
}

// NewService connects to NATS, opens the state store and remote backend,
// restores the glucose watermark and installs the pump comms configuration.
func NewService(ctx context.Context, cfg *ServiceConfig, log logger.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	autoConnect, err := cfg.AutoConnectBridges()
	if err != nil {
		return nil, err
	}

	svc := &Service{config: cfg, closeRemote: func() {}, logger: log}

	svc.nc, err = natsutil.ConnectWithSecurity(ctx, cfg.NATSURL, cfg.Security, componentLogger(log, "nats"))
	if err != nil {
		return nil, err
	}

	if err := svc.build(ctx, loc, autoConnect); err != nil {
		_ = svc.release()

		return nil, err
	}

	return svc, nil
}

func (s *Service) build(ctx context.Context, loc *time.Location, autoConnect []models.BridgeID) error {
	cfg := s.config
	log := s.logger

	var err error

	s.store, err = kv.Open(ctx, &cfg.KV, s.nc)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}

	s.metrics, err = metrics.NewOTelMetrics(otel.Meter(meterName),
		metrics.NewInMemoryMetrics(componentLogger(log, "metrics")))
	if err != nil {
		return fmt.Errorf("failed to create metric instruments: %w", err)
	}

	client, closeRemote, err := remote.Open(ctx, &cfg.Remote, s.nc, componentLogger(log, "remote"), s.metrics)
	if err != nil {
		return fmt.Errorf("failed to open remote backend: %w", err)
	}

	s.closeRemote = closeRemote

	ops, err := pumpops.NewNATSPumpOps(s.nc, cfg.PumpOps.SubjectPrefix, componentLogger(log, "pumpops"))
	if err != nil {
		return err
	}

	runner := session.NewRunner(componentLogger(log, "session"),
		session.WithMetrics(s.metrics),
		session.WithTracer(logger.GetTracer(tracerName)),
	)

	states, err := devicestate.NewStore(s.store, componentLogger(log, "devicestate"))
	if err != nil {
		return err
	}

	prefs, err := devicestate.NewPreferences(s.store, componentLogger(log, "preferences"))
	if err != nil {
		return err
	}

	s.flags = pumpsync.NewFlags(cfg.Features.UploadEnabled, cfg.Features.FetchCGMEnabled)

	syncOpts := []pumpsync.Option{
		pumpsync.WithWatermarkStore(pumpsync.NewKVWatermarkStore(s.store)),
		pumpsync.WithMetrics(s.metrics),
	}

	if cfg.Cascade.InitialBackoff > 0 || cfg.Cascade.MaxBackoff > 0 {
		syncOpts = append(syncOpts,
			pumpsync.WithCascadeBackoff(cfg.Cascade.InitialBackoff.Std(), cfg.Cascade.MaxBackoff.Std()))
	}

	synchronizer := pumpsync.NewSynchronizer(runner, client, s.flags, pumpsync.NewWatermark(time.Now()),
		componentLogger(log, "pumpsync"), syncOpts...)
	synchronizer.Restore(ctx)

	uploader := status.NewUploader(client, s.flags, componentLogger(log, "status"))

	s.manager = New(Dependencies{
		Runner:       runner,
		States:       states,
		Preferences:  prefs,
		Synchronizer: synchronizer,
		Uploader:     uploader,
	}, componentLogger(log, "manager"),
		WithMetrics(s.metrics),
		WithTuneTolerance(cfg.TuneTolerance.Std()),
		WithMaxConcurrentBridges(cfg.MaxConcurrentBridges),
		WithCycleTimeout(cfg.Schedule.CycleTimeout.Std()),
	)

	s.manager.PumpManagerDidUpdateState(PumpCommsConfig{TimeZone: loc, PumpOps: ops})

	for _, bridge := range autoConnect {
		if err := s.manager.SetAutoConnect(ctx, bridge, true); err != nil {
			return fmt.Errorf("failed to seed auto-connect for %s: %w", bridge, err)
		}
	}

	s.scheduler, err = trigger.NewScheduler(cfg.Schedule.Spec, s.manager, cfg.Schedule.CycleTimeout.Std(),
		componentLogger(log, "scheduler"))
	if err != nil {
		return err
	}

	if cfg.Heartbeat.Enabled {
		s.heartbeat = trigger.NewHeartbeat(s.manager, cfg.Heartbeat.MinInterval.Std(), componentLogger(log, "heartbeat"))
	}

	if !cfg.Status.Disabled {
		s.statuses = trigger.NewStatusListener(s.manager, componentLogger(log, "status-listener"))
	}

	return nil
}

// Start begins scheduled cycles and the enabled NATS listeners.
func (s *Service) Start(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}

	if s.heartbeat != nil {
		if err := s.heartbeat.Subscribe(ctx, s.nc, s.config.Heartbeat.Subject); err != nil {
			return errors.Join(err, s.scheduler.Stop(ctx))
		}
	}

	if s.statuses != nil {
		if err := s.statuses.Subscribe(ctx, s.nc, s.config.Status.Subject); err != nil {
			return errors.Join(err, s.stopTriggers(ctx))
		}
	}

	s.logger.Info().
		Str("schedule", s.config.Schedule.Spec).
		Bool("heartbeat", s.heartbeat != nil).
		Bool("status_listener", s.statuses != nil).
		Int("bridges", len(s.manager.ActiveBridges(ctx))).
		Msg("pumpsync service started")

	return nil
}

// Stop waits for in-flight cycles within ctx, deactivates the manager and
// releases every backend.
func (s *Service) Stop(ctx context.Context) error {
	errs := []error{s.stopTriggers(ctx)}

	if s.manager != nil {
		errs = append(errs, s.manager.Drain(ctx))
		s.manager.PumpManagerWillDeactivate()
	}

	errs = append(errs, s.release())

	s.logger.Info().Msg("pumpsync service stopped")

	return errors.Join(errs...)
}

func (s *Service) stopTriggers(ctx context.Context) error {
	var errs []error

	if s.scheduler != nil {
		errs = append(errs, s.scheduler.Stop(ctx))
	}

	if s.heartbeat != nil {
		errs = append(errs, s.heartbeat.Stop(ctx))
	}

	if s.statuses != nil {
		errs = append(errs, s.statuses.Stop(ctx))
	}

	return errors.Join(errs...)
}

func (s *Service) release() error {
	var errs []error

	s.closeRemote()

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close state store: %w", err))
		}
	}

	if s.nc != nil {
		if err := s.nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			errs = append(errs, fmt.Errorf("failed to drain nats connection: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (s *Service) Manager() *Manager { return s.manager }

// Flags exposes the runtime-mutable feature flags.
func (s *Service) Flags() *pumpsync.Flags { return s.flags }

func (s *Service) Metrics() metrics.Metrics { return s.metrics }
