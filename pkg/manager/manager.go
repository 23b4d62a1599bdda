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

// Package manager coordinates per-bridge tuning and event synchronization.
// Each trigger runs one cycle per bridge: tune check, then history sync,
// which may cascade into a glucose sync.
package manager

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/carverauto/pumpsync/pkg/devicestate"
	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/metrics"
	"github.com/carverauto/pumpsync/pkg/pumpsync"
	"github.com/carverauto/pumpsync/pkg/session"
	"github.com/carverauto/pumpsync/pkg/status"
	"github.com/carverauto/pumpsync/pkg/tuning"
)

// LabelTune names the radio tuning session.
const LabelTune = "Tune pump"

// DefaultCycleTimeout bounds one triggered cycle.
const DefaultCycleTimeout = 5 * time.Minute

// Dependencies are the collaborators a Manager drives.
type Dependencies struct {
	Runner       *session.Runner
	States       *devicestate.Store
	Preferences  *devicestate.Preferences
	Synchronizer *pumpsync.Synchronizer
	// Uploader is optional.
	Uploader *status.Uploader
}

// Manager owns the pump comms configuration, the watermark (through its
// synchronizer) and the per-bridge tuning state.
type Manager struct {
	runner   *session.Runner
	states   *devicestate.Store
	prefs    *devicestate.Preferences
	sync     *pumpsync.Synchronizer
	uploader *status.Uploader

	tolerance    time.Duration
	cycleTimeout time.Duration
	maxParallel  int
	clock        Clock
	metrics      metrics.Metrics
	logger       logger.Logger

	cycles   singleflight.Group
	inflight sync.WaitGroup

	mu                   sync.RWMutex
	comms                *PumpCommsConfig
	latestPumpStatusDate *time.Time
}

var _ LifecycleObserver = (*Manager)(nil)

type Option func(*Manager)

func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithTuneTolerance(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.tolerance = d
		}
	}
}

// WithCycleTimeout bounds each shared cycle run by Trigger.
func WithCycleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.cycleTimeout = d
		}
	}
}

func WithMetrics(mt metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithMaxConcurrentBridges bounds TriggerAll fan-out; zero means unbounded.
func WithMaxConcurrentBridges(n int) Option {
	return func(m *Manager) { m.maxParallel = n }
}

func New(deps Dependencies, log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		runner:       deps.Runner,
		states:       deps.States,
		prefs:        deps.Preferences,
		sync:         deps.Synchronizer,
		uploader:     deps.Uploader,
		tolerance:    tuning.DefaultTolerance,
		cycleTimeout: DefaultCycleTimeout,
		clock:        realClock{},
		metrics:      &metrics.NoOpMetrics{},
		logger:       log,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Configured reports whether a PumpCommsConfig is installed.
func (m *Manager) Configured() bool {
	return m.runner.Configured()
}

// Watermark exposes the synchronization watermark for observers.
func (m *Manager) Watermark() pumpsync.WatermarkSnapshot {
	return m.sync.Watermark().Snapshot()
}
