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

//go:generate mockgen -destination=mock_remote.go -package=remote github.com/carverauto/pumpsync/pkg/remote Client

// Package remote forwards synchronized pump data to the remote store.
package remote

import (
	"context"
	"time"

	"github.com/carverauto/pumpsync/pkg/models"
)

// Client is the remote data collaborator. Implementations must be safe for
// concurrent use.
type Client interface {
	// ProcessPumpEvents forwards one batch of history events. It either
	// accepts the whole batch or returns an error.
	ProcessPumpEvents(ctx context.Context, events []models.HistoryEvent, source string, model models.PumpModel) error

	// ProcessGlucoseEvents forwards glucose events and returns the latest
	// timestamp the store has durably accepted, or nil if it reports none.
	ProcessGlucoseEvents(ctx context.Context, events []models.GlucoseEvent, source string) (*time.Time, error)

	UploadDeviceStatus(ctx context.Context, status models.DeviceStatus) error
}
