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

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/metrics"
	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/pumpops"
)

var (
	errScanExhausted = errors.New("no frequency responded")
	errLinkLost      = errors.New("rssi dropped")
)

// passthroughOps opens a session backed by the given Session and runs body.
type passthroughOps struct {
	session pumpops.Session
}

func (p *passthroughOps) RunSession(ctx context.Context, _ models.BridgeID, _ string,
	body func(ctx context.Context, s pumpops.Session) error) error {
	return body(ctx, p.session)
}

func newRunner(ops pumpops.PumpOps, opts ...Option) *Runner {
	return NewRunner(logger.NewTestLogger(), append([]Option{WithPumpOps(ops)}, opts...)...)
}

func TestRunNotConfigured(t *testing.T) {
	r := NewRunner(logger.NewTestLogger())

	called := false
	_, err := Run(context.Background(), r, "b1", "Tune pump", func(context.Context, pumpops.Session) (int, error) {
		called = true
		return 0, nil
	})

	require.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, called)
	assert.False(t, r.Configured())
}

func TestRunReturnsResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := pumpops.NewMockSession(ctrl)

	sess.EXPECT().TuneRadio(gomock.Any(), gomock.Nil()).Return(pumpops.TuneOutcome{BestFrequency: 916.55}, nil)

	m := metrics.NewInMemoryMetrics(logger.NewTestLogger())
	r := newRunner(&passthroughOps{session: sess}, WithMetrics(m))

	outcome, err := Run(context.Background(), r, "b1", "Tune pump",
		func(ctx context.Context, s pumpops.Session) (pumpops.TuneOutcome, error) {
			return s.TuneRadio(ctx, nil)
		})
	require.NoError(t, err)
	assert.Equal(t, models.Frequency(916.55), outcome.BestFrequency)

	sessions := m.GetMetrics()["sessions"].(map[string]interface{})
	assert.Equal(t, map[string]int{"Tune pump": 1}, sessions["success"])
}

func TestRunClassifiesFailures(t *testing.T) {
	tests := []struct {
		name     string
		opErr    error
		wantKind Kind
	}{
		{name: "operation error verbatim", opErr: errScanExhausted, wantKind: KindOperation},
		{name: "transport", opErr: fmt.Errorf("%w: %w", pumpops.ErrTransport, errLinkLost), wantKind: KindTransport},
		{name: "disconnect", opErr: pumpops.ErrDisconnected, wantKind: KindTransport},
		{name: "protocol", opErr: fmt.Errorf("decode: %w", pumpops.ErrProtocol), wantKind: KindProtocol},
		{name: "deadline", opErr: context.DeadlineExceeded, wantKind: KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.NewInMemoryMetrics(logger.NewTestLogger())
			r := newRunner(&passthroughOps{}, WithMetrics(m))

			_, err := Run(context.Background(), r, "b1", "Get pump history",
				func(context.Context, pumpops.Session) (struct{}, error) {
					return struct{}{}, tt.opErr
				})

			var serr *Error
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.wantKind, serr.Kind)
			assert.Equal(t, models.BridgeID("b1"), serr.Bridge)
			assert.Equal(t, "Get pump history", serr.Label)
			assert.ErrorIs(t, err, tt.opErr)
			assert.True(t, IsKind(err, tt.wantKind))

			failures := m.GetMetrics()["sessions"].(map[string]interface{})["failures"]
			assert.Equal(t, map[string]map[string]int{"Get pump history": {tt.wantKind.String(): 1}}, failures)
		})
	}
}

func TestRunSessionOpenFailureIsTransport(t *testing.T) {
	ctrl := gomock.NewController(t)
	ops := pumpops.NewMockPumpOps(ctrl)

	ops.EXPECT().RunSession(gomock.Any(), models.BridgeID("b1"), "Tune pump", gomock.Any()).
		Return(errors.New("bridge busy"))

	r := newRunner(ops)

	called := false
	err := r.Do(context.Background(), "b1", "Tune pump", func(context.Context, pumpops.Session) error {
		called = true
		return nil
	})

	assert.True(t, IsKind(err, KindTransport))
	assert.False(t, called)
}

func TestRunRecoversPanic(t *testing.T) {
	r := newRunner(&passthroughOps{})

	err := r.Do(context.Background(), "b1", "Tune pump", func(context.Context, pumpops.Session) error {
		panic("nil frequency table")
	})

	assert.True(t, IsKind(err, KindOperation))
	assert.ErrorIs(t, err, errPanicked)

	// the slot was released
	err = r.Do(context.Background(), "b1", "Tune pump", func(context.Context, pumpops.Session) error { return nil })
	require.NoError(t, err)
}

func TestRunPerBridgeMutualExclusion(t *testing.T) {
	r := newRunner(&passthroughOps{})

	var (
		active  int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := r.Do(context.Background(), "b1", "Get pump history", func(context.Context, pumpops.Session) error {
				n := atomic.AddInt32(&active, 1)
				for {
					prev := atomic.LoadInt32(&maxSeen)
					if n <= prev || atomic.CompareAndSwapInt32(&maxSeen, prev, n) {
						break
					}
				}

				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&active, -1)

				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxSeen))

	r.mu.Lock()
	assert.Empty(t, r.slots)
	r.mu.Unlock()
}

func TestRunDistinctBridgesOverlap(t *testing.T) {
	r := newRunner(&passthroughOps{})

	var entered sync.WaitGroup
	entered.Add(2)

	bothIn := make(chan struct{})

	go func() {
		entered.Wait()
		close(bothIn)
	}()

	errs := make(chan error, 2)

	for _, bridge := range []models.BridgeID{"b1", "b2"} {
		go func(bridge models.BridgeID) {
			errs <- r.Do(context.Background(), bridge, "Tune pump", func(context.Context, pumpops.Session) error {
				entered.Done()

				select {
				case <-bothIn:
					return nil
				case <-time.After(5 * time.Second):
					return errors.New("sessions on distinct bridges did not overlap")
				}
			})
		}(bridge)
	}

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
}

func TestRunCancelledWhileWaiting(t *testing.T) {
	r := newRunner(&passthroughOps{})

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- r.Do(context.Background(), "b1", "Get pump history", func(context.Context, pumpops.Session) error {
			close(holding)
			<-release

			return nil
		})
	}()

	<-holding

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := r.Do(ctx, "b1", "Tune pump", func(context.Context, pumpops.Session) error {
		called = true
		return nil
	})

	assert.True(t, IsKind(err, KindTransport))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)

	close(release)
	require.NoError(t, <-done)
}

func TestRunCancelledMidSession(t *testing.T) {
	r := newRunner(&passthroughOps{})
	ctx, cancel := context.WithCancel(context.Background())

	err := r.Do(ctx, "b1", "Get glucose history", func(context.Context, pumpops.Session) error {
		cancel()
		return errLinkLost
	})

	assert.True(t, IsKind(err, KindTransport))
}

func TestBindSwapsCapability(t *testing.T) {
	r := NewRunner(logger.NewTestLogger())
	require.False(t, r.Configured())

	r.Bind(&passthroughOps{})
	require.True(t, r.Configured())
	require.NoError(t, r.Do(context.Background(), "b1", "Tune pump", func(context.Context, pumpops.Session) error { return nil }))

	r.Bind(nil)
	require.ErrorIs(t, r.Do(context.Background(), "b1", "Tune pump", func(context.Context, pumpops.Session) error { return nil }), ErrNotConfigured)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "transport", KindTransport.String())
	assert.Equal(t, "protocol", KindProtocol.String())
	assert.Equal(t, "operation", KindOperation.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
