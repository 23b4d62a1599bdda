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

// Package status uploads the pump and uploader device status record.
package status

import (
	"context"
	"errors"
	"time"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/pumpsync"
	"github.com/carverauto/pumpsync/pkg/remote"
)

const fallbackHostName = "pumpsync"

// Uploader builds device status records and forwards them to the remote
// store. Uploads are fire-and-forget.
type Uploader struct {
	remote  remote.Client
	flags   pumpsync.FeatureFlags
	host    HostInfoSource
	battery BatterySource
	now     func() time.Time
	logger  logger.Logger
}

type Option func(*Uploader)

func WithHostInfo(src HostInfoSource) Option {
	return func(u *Uploader) { u.host = src }
}

func WithBattery(src BatterySource) Option {
	return func(u *Uploader) { u.battery = src }
}

func WithClock(now func() time.Time) Option {
	return func(u *Uploader) { u.now = now }
}

// NewUploader returns an Uploader. client may be nil when no remote store
// is configured.
func NewUploader(client remote.Client, flags pumpsync.FeatureFlags, log logger.Logger, opts ...Option) *Uploader {
	u := &Uploader{
		remote:  client,
		flags:   flags,
		host:    GopsutilHost{},
		battery: SysfsBattery{},
		now:     time.Now,
		logger:  log,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// UploadStatus forwards one status record for the bridge named displayName.
func (u *Uploader) UploadStatus(ctx context.Context, displayName string, pump *models.PumpStatus) {
	if u.remote == nil || u.flags == nil || !u.flags.UploadEnabled() {
		return
	}

	now := u.now()
	record := models.DeviceStatus{
		Device:         models.DeviceURI(displayName),
		Timestamp:      now,
		PumpStatus:     pump,
		UploaderStatus: u.uploaderStatus(ctx, now),
	}

	if err := u.remote.UploadDeviceStatus(ctx, record); err != nil {
		u.logger.Warn().
			Err(err).
			Str("device", record.Device).
			Msg("Failed to upload device status")

		return
	}

	u.logger.Debug().Str("device", record.Device).Msg("Uploaded device status")
}

func (u *Uploader) uploaderStatus(ctx context.Context, now time.Time) models.UploaderStatus {
	status := models.UploaderStatus{Name: fallbackHostName, Timestamp: now}

	if name, err := u.host.HostName(ctx); err != nil {
		u.logger.Debug().Err(err).Msg("Host name unavailable")
	} else if name != "" {
		status.Name = name
	}

	percent, err := u.battery.BatteryPercent(ctx)

	switch {
	case err == nil:
		status.Battery = &percent
	case !errors.Is(err, ErrBatteryUnavailable):
		u.logger.Debug().Err(err).Msg("Battery level unreadable")
	}

	return status
}
