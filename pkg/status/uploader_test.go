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

package status

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/pumpsync"
	"github.com/carverauto/pumpsync/pkg/remote"
)

var errUploadFailed = errors.New("upload failed")

type staticHost string

func (h staticHost) HostName(context.Context) (string, error) { return string(h), nil }

type staticBattery int

func (b staticBattery) BatteryPercent(context.Context) (int, error) { return int(b), nil }

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func TestUploadStatusForwardsRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := remote.NewMockClient(ctrl)

	reservoir := 120.5
	pump := &models.PumpStatus{PumpID: "123456", ReservoirUnits: &reservoir}
	battery := 77

	client.EXPECT().UploadDeviceStatus(gomock.Any(), models.DeviceStatus{
		Device:     "rileylink://Kitchen RL",
		Timestamp:  fixedClock(),
		PumpStatus: pump,
		UploaderStatus: models.UploaderStatus{
			Name:      "pi-bedside",
			Timestamp: fixedClock(),
			Battery:   &battery,
		},
	}).Return(nil)

	u := NewUploader(client, pumpsync.NewFlags(true, false), logger.NewTestLogger(),
		WithHostInfo(staticHost("pi-bedside")),
		WithBattery(staticBattery(77)),
		WithClock(fixedClock),
	)

	u.UploadStatus(context.Background(), "Kitchen RL", pump)
}

func TestUploadStatusNoopWhenDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := remote.NewMockClient(ctrl)

	u := NewUploader(client, pumpsync.NewFlags(false, true), logger.NewTestLogger())
	u.UploadStatus(context.Background(), "Kitchen RL", nil)

	u = NewUploader(nil, pumpsync.NewFlags(true, true), logger.NewTestLogger())
	u.UploadStatus(context.Background(), "Kitchen RL", nil)
}

func TestUploadStatusFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := remote.NewMockClient(ctrl)

	client.EXPECT().UploadDeviceStatus(gomock.Any(), gomock.Any()).Return(errUploadFailed).Times(1)

	u := NewUploader(client, pumpsync.NewFlags(true, false), logger.NewTestLogger(),
		WithHostInfo(staticHost("")),
		WithBattery(NoBattery{}),
	)

	u.UploadStatus(context.Background(), "Kitchen RL", nil)
}

func TestUploaderStatusFallbacks(t *testing.T) {
	u := NewUploader(nil, nil, logger.NewTestLogger(),
		WithHostInfo(staticHost("")),
		WithBattery(NoBattery{}),
	)

	status := u.uploaderStatus(context.Background(), fixedClock())
	assert.Equal(t, fallbackHostName, status.Name)
	assert.Nil(t, status.Battery)
}

func writeSupply(t *testing.T, root, name, kind, capacity string) {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "type"), []byte(kind+"\n"), 0o600))

	if capacity != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "capacity"), []byte(capacity+"\n"), 0o600))
	}
}

func TestSysfsBattery(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "AC", "Mains", "")
	writeSupply(t, root, "BAT0", "Battery", "64")

	percent, err := SysfsBattery{Root: root}.BatteryPercent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 64, percent)
}

func TestSysfsBatteryUnavailable(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "AC", "Mains", "")
	writeSupply(t, root, "BAT0", "Battery", "garbage")

	_, err := SysfsBattery{Root: root}.BatteryPercent(context.Background())
	require.ErrorIs(t, err, ErrBatteryUnavailable)

	_, err = SysfsBattery{Root: filepath.Join(root, "missing")}.BatteryPercent(context.Background())
	require.ErrorIs(t, err, ErrBatteryUnavailable)
}

func TestGopsutilHost(t *testing.T) {
	orig := hostInfoWithContext
	t.Cleanup(func() { hostInfoWithContext = orig })

	hostInfoWithContext = func(context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{Hostname: "pi-bedside"}, nil
	}

	name, err := GopsutilHost{}.HostName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pi-bedside", name)

	hostInfoWithContext = func(context.Context) (*host.InfoStat, error) {
		return nil, errUploadFailed
	}

	_, err = GopsutilHost{}.HostName(context.Background())
	require.ErrorIs(t, err, errUploadFailed)
}
