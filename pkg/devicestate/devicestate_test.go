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

package devicestate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/pumpsync/pkg/kv"
	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
)

var errBackend = errors.New("disk full")

func newStore(t *testing.T) (*Store, *kv.MemoryStore) {
	t.Helper()

	mem := kv.NewMemoryStore()

	store, err := NewStore(mem, logger.NewTestLogger())
	require.NoError(t, err)

	return store, mem
}

func TestStoreDefaultsWhenAbsent(t *testing.T) {
	store, _ := newStore(t)

	state := store.Get(context.Background(), "bridge-1")
	assert.True(t, state.IsZero())
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	tuned := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	freq := models.Frequency(916.6)
	want := models.DeviceState{LastTuned: &tuned, LastValidFrequency: &freq}

	require.NoError(t, store.Put(ctx, "bridge-1", want))

	got := store.Get(ctx, "bridge-1")
	assert.True(t, want.Equal(got))
	assert.True(t, store.Get(ctx, "bridge-2").IsZero())

	require.NoError(t, store.Delete(ctx, "bridge-1"))
	assert.True(t, store.Get(ctx, "bridge-1").IsZero())
}

func TestStoreDecodePaths(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantZero bool
		wantFreq float64
	}{
		{name: "current version", raw: `{"v":1,"last_tuned":"2024-03-01T12:00:00Z","last_valid_frequency_mhz":916.5}`, wantFreq: 916.5},
		{name: "missing version is current", raw: `{"last_valid_frequency_mhz":868.3}`, wantFreq: 868.3},
		{name: "unknown keys ignored", raw: `{"v":1,"last_valid_frequency_mhz":916.5,"rssi":-70}`, wantFreq: 916.5},
		{name: "unknown version", raw: `{"v":7,"last_valid_frequency_mhz":916.5}`, wantZero: true},
		{name: "garbage", raw: `not json`, wantZero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mem := newStore(t)
			require.NoError(t, mem.Put(context.Background(), kv.Key(stateNamespace, "b"), []byte(tt.raw), 0))

			state := store.Get(context.Background(), "b")
			if tt.wantZero {
				assert.True(t, state.IsZero())
				return
			}

			require.NotNil(t, state.LastValidFrequency)
			assert.InDelta(t, tt.wantFreq, float64(*state.LastValidFrequency), 1e-9)
		})
	}
}

func TestStoreReadFailureYieldsDefault(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockKV := kv.NewMockKVStore(ctrl)

	mockKV.EXPECT().Get(gomock.Any(), "device.b").Return(nil, false, errBackend)

	store, err := NewStore(mockKV, logger.NewTestLogger())
	require.NoError(t, err)

	assert.True(t, store.Get(context.Background(), "b").IsZero())
}

func TestStorePutFailureIsPersistenceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockKV := kv.NewMockKVStore(ctrl)

	mockKV.EXPECT().Put(gomock.Any(), "device.b", gomock.Any(), time.Duration(0)).Return(errBackend)

	store, err := NewStore(mockKV, logger.NewTestLogger())
	require.NoError(t, err)

	err = store.Put(context.Background(), "b", models.DeviceState{})

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "put", perr.Op)
	assert.Equal(t, models.BridgeID("b"), perr.Bridge)
	assert.ErrorIs(t, err, errBackend)
}

func TestNewStoreRequiresKV(t *testing.T) {
	_, err := NewStore(nil, logger.NewTestLogger())
	require.ErrorIs(t, err, errNilStore)
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()

	prefs, err := NewPreferences(kv.NewMemoryStore(), logger.NewTestLogger())
	require.NoError(t, err)

	assert.Empty(t, prefs.Connected(ctx))

	require.NoError(t, prefs.SetAutoConnect(ctx, "b2", true))
	require.NoError(t, prefs.SetAutoConnect(ctx, "b1", true))
	require.NoError(t, prefs.SetAutoConnect(ctx, "b1", true))

	assert.Equal(t, []models.BridgeID{"b1", "b2"}, prefs.Connected(ctx))
	assert.True(t, prefs.AutoConnect(ctx, "b1"))

	require.NoError(t, prefs.SetAutoConnect(ctx, "b1", false))
	assert.False(t, prefs.AutoConnect(ctx, "b1"))
	assert.Equal(t, []models.BridgeID{"b2"}, prefs.Connected(ctx))
}

func TestPreferencesPutFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockKV := kv.NewMockKVStore(ctrl)

	mockKV.EXPECT().Get(gomock.Any(), autoConnectKey).Return(nil, false, nil)
	mockKV.EXPECT().Put(gomock.Any(), autoConnectKey, gomock.Any(), gomock.Any()).Return(errBackend)

	prefs, err := NewPreferences(mockKV, logger.NewTestLogger())
	require.NoError(t, err)

	err = prefs.SetAutoConnect(context.Background(), "b1", true)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
}

func TestPreferencesReadFailureKeepsStoredSet(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockKV := kv.NewMockKVStore(ctrl)

	stored := []byte(`{"v":1,"auto_connect":["a","b","c"]}`)

	gomock.InOrder(
		mockKV.EXPECT().Get(gomock.Any(), autoConnectKey).Return(nil, false, errBackend),
		mockKV.EXPECT().Get(gomock.Any(), autoConnectKey).Return(stored, true, nil),
	)
	mockKV.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	prefs, err := NewPreferences(mockKV, logger.NewTestLogger())
	require.NoError(t, err)

	err = prefs.SetAutoConnect(ctx, "c", false)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "get", perr.Op)
	assert.ErrorIs(t, err, errBackend)

	assert.Equal(t, []models.BridgeID{"a", "b", "c"}, prefs.Connected(ctx))
}

func TestPreferencesUndecodableRecordIsNotOverwritten(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "garbage", raw: `not json`},
		{name: "unknown version", raw: `{"v":9,"auto_connect":["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mem := kv.NewMemoryStore()
			require.NoError(t, mem.Put(ctx, autoConnectKey, []byte(tt.raw), 0))

			prefs, err := NewPreferences(mem, logger.NewTestLogger())
			require.NoError(t, err)

			assert.Empty(t, prefs.Connected(ctx))

			var perr *PersistenceError
			require.ErrorAs(t, prefs.SetAutoConnect(ctx, "b", true), &perr)

			data, found, err := mem.Get(ctx, autoConnectKey)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.raw, string(data))
		})
	}
}
