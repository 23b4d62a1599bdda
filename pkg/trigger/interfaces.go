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

//go:generate mockgen -destination=mock_trigger.go -package=trigger github.com/carverauto/pumpsync/pkg/trigger Cycler,HeartbeatHandler,StatusHandler

// Package trigger drives manager cycles from a timer and from bridge heartbeats.
package trigger

import (
	"context"

	"github.com/carverauto/pumpsync/pkg/models"
)

// Cycler runs one cycle for every active bridge.
type Cycler interface {
	TriggerAll(ctx context.Context) error
}

// HeartbeatHandler receives bridge heartbeats.
type HeartbeatHandler interface {
	PumpManagerShouldProvideBLEHeartbeat() bool
	PumpManagerBLEHeartbeatDidFire(ctx context.Context, bridge models.BridgeID) error
}

// StatusHandler receives pump status reports.
type StatusHandler interface {
	PumpManagerDidUpdateStatus(ctx context.Context, displayName string, status *models.PumpStatus)
	RecordBroadcastStatus(components models.ClockComponents)
}
