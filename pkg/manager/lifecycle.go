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
	"time"

	"github.com/carverauto/pumpsync/pkg/models"
)

// PumpManagerDidUpdateState installs or replaces the comms configuration.
func (m *Manager) PumpManagerDidUpdateState(config PumpCommsConfig) {
	m.mu.Lock()
	cfg := config
	m.comms = &cfg
	m.mu.Unlock()

	m.runner.Bind(config.PumpOps)

	m.logger.Info().Bool("has_pump_ops", config.PumpOps != nil).Msg("Pump comms configuration updated")
}

// PumpManagerWillDeactivate clears the comms configuration. Later
// session-dependent calls report ErrNotConfigured.
func (m *Manager) PumpManagerWillDeactivate() {
	m.mu.Lock()
	m.comms = nil
	m.mu.Unlock()

	m.runner.Bind(nil)

	m.logger.Info().Msg("Pump manager deactivated")
}

// PumpManagerDidUpdateStatus uploads the status record and records the
// pump clock reading.
func (m *Manager) PumpManagerDidUpdateStatus(ctx context.Context, displayName string, status *models.PumpStatus) {
	if status != nil && !status.Clock.IsZero() {
		m.RecordPolledStatus(status.Clock)
	}

	if m.uploader != nil {
		m.uploader.UploadStatus(ctx, displayName, status)
	}
}

func (m *Manager) PumpManagerBLEHeartbeatDidFire(ctx context.Context, bridge models.BridgeID) error {
	return m.Trigger(ctx, bridge)
}

func (*Manager) PumpManagerShouldProvideBLEHeartbeat() bool {
	return true
}

// RecordPolledStatus records the clock of a status read in a session.
func (m *Manager) RecordPolledStatus(clock time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := clock
	m.latestPumpStatusDate = &t
}

// RecordBroadcastStatus records a broadcast status whose clock carries no
// zone. It is resolved in the comms time zone and ignored when none is set.
func (m *Manager) RecordBroadcastStatus(components models.ClockComponents) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.comms == nil || m.comms.TimeZone == nil {
		m.logger.Debug().Msg("Ignoring broadcast status, no pump time zone")
		return
	}

	t := components.In(m.comms.TimeZone)
	m.latestPumpStatusDate = &t
}

// LatestPumpStatusDate returns the newest recorded pump status time.
func (m *Manager) LatestPumpStatusDate() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.latestPumpStatusDate == nil {
		return time.Time{}, false
	}

	return *m.latestPumpStatusDate, true
}
