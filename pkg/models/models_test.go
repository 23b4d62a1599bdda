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

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseBridgeID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    BridgeID
		wantErr bool
	}{
		{name: "uuid is canonicalized", raw: " 6F1C1D2E-3A4B-4C5D-8E9F-0A1B2C3D4E5F ", want: "6f1c1d2e-3a4b-4c5d-8e9f-0a1b2c3d4e5f"},
		{name: "opaque id kept verbatim", raw: "RL-Bedroom", want: "RL-Bedroom"},
		{name: "empty", raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBridgeID(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeviceURI(t *testing.T) {
	assert.Equal(t, "rileylink://kitchen", DeviceURI("kitchen"))
	assert.Equal(t, "rileylink://abc", BridgeID("abc").URI())
}

func TestDurationUnmarshal(t *testing.T) {
	var cfg struct {
		Tolerance Duration `json:"tolerance" yaml:"tolerance"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"tolerance":"14m"}`), &cfg))
	assert.Equal(t, 14*time.Minute, cfg.Tolerance.Std())

	require.NoError(t, json.Unmarshal([]byte(`{"tolerance":1000000000}`), &cfg))
	assert.Equal(t, time.Second, cfg.Tolerance.Std())

	require.NoError(t, yaml.Unmarshal([]byte("tolerance: 5m\n"), &cfg))
	assert.Equal(t, 5*time.Minute, cfg.Tolerance.Std())

	assert.Error(t, json.Unmarshal([]byte(`{"tolerance":"soon"}`), &cfg))
	assert.Error(t, json.Unmarshal([]byte(`{"tolerance":true}`), &cfg))
}

func TestDeviceStateEqual(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	freq := Frequency(916.55)

	a := DeviceState{LastTuned: &now, LastValidFrequency: &freq}
	b := DeviceState{LastTuned: &now, LastValidFrequency: &freq}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(DeviceState{}))
	assert.True(t, DeviceState{}.IsZero())
	assert.Equal(t, "916.550 MHz", freq.String())
}

func TestLatestGlucoseTimestamp(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, LatestGlucoseTimestamp(nil))

	latest := LatestGlucoseTimestamp([]GlucoseEvent{
		{Timestamp: base},
		{Timestamp: base.Add(10 * time.Minute)},
		{Timestamp: base.Add(5 * time.Minute)},
	})
	require.NotNil(t, latest)
	assert.Equal(t, base.Add(10*time.Minute), *latest)
}
