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
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/pumpsync/pkg/devicestate"
	"github.com/carverauto/pumpsync/pkg/kv"
	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/pumpops"
	"github.com/carverauto/pumpsync/pkg/pumpsync"
	"github.com/carverauto/pumpsync/pkg/remote"
	"github.com/carverauto/pumpsync/pkg/session"
	"github.com/carverauto/pumpsync/pkg/status"
	"github.com/carverauto/pumpsync/pkg/trigger"
)

const (
	bridgeA = models.BridgeID("6f1c1d2e-3a4b-4c5d-8e9f-0a1b2c3d4e5f")
	bridgeB = models.BridgeID("0b7e2f44-91aa-4c1e-9d3b-5a6c7d8e9f01")
)

var start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type fixture struct {
	ops    *pumpops.MockPumpOps
	sess   *pumpops.MockSession
	clock  *fakeClock
	states *devicestate.Store
	prefs  *devicestate.Preferences
	wm     *pumpsync.Watermark
	mgr    *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	store := kv.NewMemoryStore()
	log := logger.NewTestLogger()

	states, err := devicestate.NewStore(store, log)
	require.NoError(t, err)

	prefs, err := devicestate.NewPreferences(store, log)
	require.NoError(t, err)

	f := &fixture{
		ops:    pumpops.NewMockPumpOps(ctrl),
		sess:   pumpops.NewMockSession(ctrl),
		clock:  &fakeClock{now: start},
		states: states,
		prefs:  prefs,
		wm:     pumpsync.NewWatermark(start),
	}

	runner := session.NewRunner(log)
	synchronizer := pumpsync.NewSynchronizer(runner, nil, pumpsync.NewFlags(false, false), f.wm, log)

	f.mgr = New(Dependencies{
		Runner:       runner,
		States:       states,
		Preferences:  prefs,
		Synchronizer: synchronizer,
	}, log, WithClock(f.clock))

	f.mgr.PumpManagerDidUpdateState(PumpCommsConfig{PumpOps: f.ops})

	return f
}

// expectSession routes label sessions on bridge to the mock session.
func (f *fixture) expectSession(bridge models.BridgeID, label string) *gomock.Call {
	return f.ops.EXPECT().RunSession(gomock.Any(), bridge, label, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ models.BridgeID, _ string,
			body func(context.Context, pumpops.Session) error) error {
			return body(ctx, f.sess)
		})
}

func (f *fixture) putState(t *testing.T, bridge models.BridgeID, tunedAgo time.Duration, freq models.Frequency) models.DeviceState {
	t.Helper()

	tuned := f.clock.Now().Add(-tunedAgo)
	state := models.DeviceState{LastTuned: &tuned, LastValidFrequency: &freq}
	require.NoError(t, f.states.Put(context.Background(), bridge, state))

	return state
}

func TestRunCycleTunesStaleBridge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.putState(t, bridgeA, 15*time.Minute, 916.5)

	f.expectSession(bridgeA, LabelTune)
	f.sess.EXPECT().TuneRadio(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, hint *models.Frequency) (pumpops.TuneOutcome, error) {
			require.NotNil(t, hint)
			assert.Equal(t, models.Frequency(916.5), *hint)

			return pumpops.TuneOutcome{BestFrequency: 916.7}, nil
		})

	f.expectSession(bridgeA, pumpsync.LabelHistory).Times(2)
	f.sess.EXPECT().GetHistoryEvents(gomock.Any(), gomock.Any()).Return(nil, models.PumpModel("723"), nil).Times(2)

	require.NoError(t, f.mgr.RunCycle(ctx, bridgeA))

	state := f.states.Get(ctx, bridgeA)
	require.NotNil(t, state.LastTuned)
	assert.True(t, state.LastTuned.Equal(start))
	assert.Equal(t, models.Frequency(916.7), *state.LastValidFrequency)

	// one minute later the tune is fresh, so only history runs
	f.clock.Advance(time.Minute)
	require.NoError(t, f.mgr.RunCycle(ctx, bridgeA))

	assert.True(t, f.states.Get(ctx, bridgeA).Equal(state))
	assert.Equal(t, start.Add(time.Minute), f.wm.LastHistoryAttempt())
}

func TestRunCycleNeverTunedBridge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.expectSession(bridgeA, LabelTune)
	f.sess.EXPECT().TuneRadio(gomock.Any(), (*models.Frequency)(nil)).Return(pumpops.TuneOutcome{BestFrequency: 868.3}, nil)
	f.expectSession(bridgeA, pumpsync.LabelHistory)
	f.sess.EXPECT().GetHistoryEvents(gomock.Any(), start.Add(-pumpsync.HistoryWindow)).Return(nil, models.PumpModel("554"), nil)

	require.NoError(t, f.mgr.RunCycle(ctx, bridgeA))
	assert.Equal(t, models.Frequency(868.3), *f.states.Get(ctx, bridgeA).LastValidFrequency)
}

func TestRunCycleTuneFailureKeepsState(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "no response", err: errors.New("no response on any frequency")},
		{name: "no usable frequency", err: fmt.Errorf("%w: tune_radio returned frequency 0", pumpops.ErrProtocol)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			before := f.putState(t, bridgeA, 20*time.Minute, 916.5)

			f.expectSession(bridgeA, LabelTune)
			f.sess.EXPECT().TuneRadio(gomock.Any(), gomock.Any()).Return(pumpops.TuneOutcome{}, tt.err)
			f.expectSession(bridgeA, pumpsync.LabelHistory)
			f.sess.EXPECT().GetHistoryEvents(gomock.Any(), gomock.Any()).Return(nil, models.PumpModel("723"), nil)

			require.NoError(t, f.mgr.RunCycle(ctx, bridgeA))
			assert.True(t, f.states.Get(ctx, bridgeA).Equal(before))
		})
	}
}

func TestRunCycleTransportFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before := f.putState(t, bridgeA, time.Hour, 916.5)
	glucoseBefore := f.wm.LastGlucoseEntry()

	linkErr := fmt.Errorf("%w: bridge unreachable", pumpops.ErrTransport)
	f.ops.EXPECT().RunSession(gomock.Any(), bridgeA, gomock.Any(), gomock.Any()).Return(linkErr).Times(2)

	err := f.mgr.RunCycle(ctx, bridgeA)
	require.Error(t, err)
	assert.True(t, session.IsKind(err, session.KindTransport))
	assert.ErrorIs(t, err, pumpops.ErrTransport)

	assert.True(t, f.states.Get(ctx, bridgeA).Equal(before))
	assert.Equal(t, glucoseBefore, f.wm.LastGlucoseEntry())
}

func TestNotConfigured(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.mgr.Configured())
	require.NoError(t, f.mgr.SetAutoConnect(ctx, bridgeA, true))

	f.mgr.PumpManagerWillDeactivate()

	assert.False(t, f.mgr.Configured())
	assert.ErrorIs(t, f.mgr.RunCycle(ctx, bridgeA), ErrNotConfigured)
	assert.ErrorIs(t, f.mgr.Trigger(ctx, bridgeA), ErrNotConfigured)
	assert.ErrorIs(t, f.mgr.TriggerAll(ctx), ErrNotConfigured)
	assert.True(t, f.states.Get(ctx, bridgeA).IsZero())
}

func TestTriggerCoalescesConcurrentCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.putState(t, bridgeA, 0, 916.5)

	entered := make(chan struct{})
	release := make(chan struct{})

	f.expectSession(bridgeA, pumpsync.LabelHistory).Times(1)
	f.sess.EXPECT().GetHistoryEvents(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) ([]models.HistoryEvent, models.PumpModel, error) {
			close(entered)
			<-release

			return nil, models.PumpModel("723"), nil
		})

	errs := make(chan error, 2)

	go func() { errs <- f.mgr.Trigger(ctx, bridgeA) }()

	<-entered

	go func() { errs <- f.mgr.Trigger(ctx, bridgeA) }()

	// let the second trigger join the in-flight cycle
	time.Sleep(100 * time.Millisecond)
	close(release)

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
}

func TestTriggerJoinerOutlivesCanceledLeader(t *testing.T) {
	f := newFixture(t)

	f.putState(t, bridgeA, 0, 916.5)

	entered := make(chan struct{})
	release := make(chan struct{})

	var cycleCtx context.Context

	f.expectSession(bridgeA, pumpsync.LabelHistory).Times(1)
	f.sess.EXPECT().GetHistoryEvents(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ time.Time) ([]models.HistoryEvent, models.PumpModel, error) {
			cycleCtx = ctx
			close(entered)
			<-release

			return nil, models.PumpModel("723"), ctx.Err()
		})

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	defer cancelLeader()

	leader := make(chan error, 1)
	joiner := make(chan error, 1)

	go func() { leader <- f.mgr.Trigger(leaderCtx, bridgeA) }()

	<-entered

	go func() { joiner <- f.mgr.Trigger(context.Background(), bridgeA) }()

	time.Sleep(100 * time.Millisecond)
	cancelLeader()

	require.ErrorIs(t, <-leader, context.Canceled)

	close(release)

	require.NoError(t, <-joiner)
	require.NoError(t, f.mgr.Drain(context.Background()))

	_, hasDeadline := cycleCtx.Deadline()
	assert.True(t, hasDeadline)
}

func TestTriggerAllJoinsBridgeErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, bridge := range []models.BridgeID{bridgeA, bridgeB} {
		f.putState(t, bridge, 0, 916.5)
		require.NoError(t, f.mgr.SetAutoConnect(ctx, bridge, true))
	}

	f.expectSession(bridgeA, pumpsync.LabelHistory)
	f.sess.EXPECT().GetHistoryEvents(gomock.Any(), gomock.Any()).Return(nil, models.PumpModel("723"), nil)
	f.ops.EXPECT().RunSession(gomock.Any(), bridgeB, pumpsync.LabelHistory, gomock.Any()).
		Return(fmt.Errorf("%w: lost", pumpops.ErrDisconnected))

	err := f.mgr.TriggerAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, pumpops.ErrDisconnected)

	var serr *session.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, bridgeB, serr.Bridge)
}

func TestTriggerAllWithoutBridges(t *testing.T) {
	f := newFixture(t)

	assert.NoError(t, f.mgr.TriggerAll(context.Background()))
}

func TestForgetBridge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.putState(t, bridgeA, time.Minute, 916.5)
	require.NoError(t, f.mgr.SetAutoConnect(ctx, bridgeA, true))
	require.NoError(t, f.mgr.SetAutoConnect(ctx, bridgeB, true))

	require.NoError(t, f.mgr.ForgetBridge(ctx, bridgeA))

	assert.True(t, f.states.Get(ctx, bridgeA).IsZero())
	assert.Equal(t, []models.BridgeID{bridgeB}, f.mgr.ActiveBridges(ctx))
}

func TestHeartbeatRunsCycle(t *testing.T) {
	f := newFixture(t)

	f.putState(t, bridgeA, 0, 916.5)
	f.expectSession(bridgeA, pumpsync.LabelHistory)
	f.sess.EXPECT().GetHistoryEvents(gomock.Any(), gomock.Any()).Return(nil, models.PumpModel("723"), nil)

	assert.True(t, f.mgr.PumpManagerShouldProvideBLEHeartbeat())
	require.NoError(t, f.mgr.PumpManagerBLEHeartbeatDidFire(context.Background(), bridgeA))
}

func TestRecordBroadcastStatus(t *testing.T) {
	f := newFixture(t)

	components := models.ClockComponents{Year: 2024, Month: time.March, Day: 1, Hour: 4, Minute: 30}

	f.mgr.RecordBroadcastStatus(components)

	_, ok := f.mgr.LatestPumpStatusDate()
	assert.False(t, ok)

	pacific := time.FixedZone("PST", -8*60*60)
	f.mgr.PumpManagerDidUpdateState(PumpCommsConfig{TimeZone: pacific, PumpOps: f.ops})
	f.mgr.RecordBroadcastStatus(components)

	got, ok := f.mgr.LatestPumpStatusDate()
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)))
}

func TestDidUpdateStatusRecordsPolledClock(t *testing.T) {
	f := newFixture(t)

	clock := start.Add(-2 * time.Minute)
	f.mgr.PumpManagerDidUpdateStatus(context.Background(), "Pump 723", &models.PumpStatus{Clock: clock, PumpID: "123456"})

	got, ok := f.mgr.LatestPumpStatusDate()
	require.True(t, ok)
	assert.Equal(t, clock, got)

	f.mgr.PumpManagerDidUpdateStatus(context.Background(), "Pump 723", nil)

	got, _ = f.mgr.LatestPumpStatusDate()
	assert.Equal(t, clock, got)
}

type fixedHost string

func (h fixedHost) HostName(context.Context) (string, error) { return string(h), nil }

func TestStatusReportReachesUploader(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logger.NewTestLogger()
	client := remote.NewMockClient(ctrl)

	store := kv.NewMemoryStore()

	states, err := devicestate.NewStore(store, log)
	require.NoError(t, err)

	prefs, err := devicestate.NewPreferences(store, log)
	require.NoError(t, err)

	runner := session.NewRunner(log)
	flags := pumpsync.NewFlags(true, false)

	mgr := New(Dependencies{
		Runner:       runner,
		States:       states,
		Preferences:  prefs,
		Synchronizer: pumpsync.NewSynchronizer(runner, client, flags, pumpsync.NewWatermark(start), log),
		Uploader: status.NewUploader(client, flags, log,
			status.WithHostInfo(fixedHost("loop-host")),
			status.WithBattery(status.NoBattery{}),
			status.WithClock(func() time.Time { return start })),
	}, log, WithClock(&fakeClock{now: start}))

	client.EXPECT().UploadDeviceStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record models.DeviceStatus) error {
			assert.Equal(t, models.DeviceURI("Pump 723"), record.Device)
			require.NotNil(t, record.PumpStatus)
			assert.Equal(t, "123456", record.PumpStatus.PumpID)
			assert.Equal(t, "loop-host", record.UploaderStatus.Name)

			return nil
		})

	listener := trigger.NewStatusListener(mgr, log)
	require.NoError(t, listener.Handle(context.Background(),
		[]byte(`{"bridge_name":"Pump 723","pump_status":{"clock":"2024-03-01T11:58:00Z","pump_id":"123456"}}`)))

	got, ok := mgr.LatestPumpStatusDate()
	require.True(t, ok)
	assert.True(t, got.Equal(start.Add(-2*time.Minute)))
}

func TestServiceConfigValidate(t *testing.T) {
	valid := func() ServiceConfig {
		return ServiceConfig{
			NATSURL: "nats://127.0.0.1:4222",
			KV:      kv.Config{Backend: kv.BackendMemory},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ServiceConfig)
		wantErr error
	}{
		{name: "defaults", mutate: func(*ServiceConfig) {}},
		{name: "missing nats url", mutate: func(c *ServiceConfig) { c.NATSURL = "" }, wantErr: errNATSURLRequired},
		{name: "bad zone", mutate: func(c *ServiceConfig) { c.TimeZone = "Mars/Olympus" }, wantErr: errInvalidTimeZone},
		{name: "bad bridge", mutate: func(c *ServiceConfig) { c.AutoConnect = []string{"  "} }, wantErr: errInvalidBridgeID},
		{name: "negative parallel", mutate: func(c *ServiceConfig) { c.MaxConcurrentBridges = -1 }, wantErr: errNegativeParallel},
		{name: "bad schedule", mutate: func(c *ServiceConfig) { c.Schedule.Spec = "every so often" }, wantErr: errInvalidSchedule},
		{name: "duration schedule", mutate: func(c *ServiceConfig) { c.Schedule.Spec = "90s" }},
		{name: "utc zone", mutate: func(c *ServiceConfig) { c.TimeZone = "UTC" }},
		{name: "postgres without settings", mutate: func(c *ServiceConfig) { c.Remote.Backend = remote.BackendPostgres }, wantErr: errAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()

			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
			case errors.Is(tt.wantErr, errAny):
				require.Error(t, err)
			default:
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, defaultSchedule, cfg.Schedule.Spec)
}

var errAny = errors.New("any error")

func TestTracerScopeIsManagerPackage(t *testing.T) {
	assert.Equal(t, reflect.TypeOf((*Manager)(nil)).Elem().PkgPath(), tracerName)
}
