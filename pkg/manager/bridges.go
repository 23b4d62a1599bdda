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

	"github.com/carverauto/pumpsync/pkg/models"
)

// ActiveBridges returns the bridges marked for auto-connect.
func (m *Manager) ActiveBridges(ctx context.Context) []models.BridgeID {
	return m.prefs.Connected(ctx)
}

func (m *Manager) SetAutoConnect(ctx context.Context, bridge models.BridgeID, enabled bool) error {
	return m.prefs.SetAutoConnect(ctx, bridge, enabled)
}

// ForgetBridge permanently removes the bridge's tuning state and its
// auto-connect preference.
func (m *Manager) ForgetBridge(ctx context.Context, bridge models.BridgeID) error {
	stateErr := m.states.Delete(ctx, bridge)
	prefErr := m.prefs.SetAutoConnect(ctx, bridge, false)

	if err := errors.Join(stateErr, prefErr); err != nil {
		return err
	}

	m.logger.Info().Str("bridge", bridge.String()).Msg("Forgot bridge")

	return nil
}
