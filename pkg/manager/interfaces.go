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
	"github.com/carverauto/pumpsync/pkg/pumpops"
)

// PumpCommsConfig is the authorization context for device sessions.
type PumpCommsConfig struct {
	// TimeZone resolves pump clock readings that carry no zone.
	TimeZone *time.Location
	PumpOps  pumpops.PumpOps
}

// LifecycleObserver receives pump manager lifecycle notifications.
type LifecycleObserver interface {
	PumpManagerDidUpdateState(config PumpCommsConfig)
	PumpManagerWillDeactivate()
	PumpManagerDidUpdateStatus(ctx context.Context, displayName string, status *models.PumpStatus)
	PumpManagerBLEHeartbeatDidFire(ctx context.Context, bridge models.BridgeID) error
	PumpManagerShouldProvideBLEHeartbeat() bool
}

// Clock abstracts time for testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}
