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
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/pumpops"
	"github.com/carverauto/pumpsync/pkg/session"
	"github.com/carverauto/pumpsync/pkg/tuning"
)

// RunCycle runs one tune-check and history sync for bridge. A tuning
// failure is logged and does not stop the history sync. The history result
// is returned.
func (m *Manager) RunCycle(ctx context.Context, bridge models.BridgeID) error {
	if !m.Configured() {
		m.logger.Info().Str("bridge", bridge.String()).Msg("Skipping cycle, pump comms not configured")
		return ErrNotConfigured
	}

	if err := m.tuneIfDue(ctx, bridge); err != nil && !errors.Is(err, ErrNotConfigured) {
		m.logger.Warn().Err(err).Str("bridge", bridge.String()).Msg("Device auto-tune failed")
	}

	return m.sync.SyncHistory(ctx, bridge, m.clock.Now())
}

// tuneIfDue re-tunes the bridge radio when its last tune is older than the
// tolerance. Only a successful tune changes the persisted state.
func (m *Manager) tuneIfDue(ctx context.Context, bridge models.BridgeID) error {
	state := m.states.Get(ctx, bridge)

	if !tuning.ShouldTune(state, m.clock.Now(), m.tolerance) {
		return nil
	}

	hint := tuning.Hint(state)

	outcome, tuneErr := session.Run(ctx, m.runner, bridge, LabelTune,
		func(ctx context.Context, s pumpops.Session) (pumpops.TuneOutcome, error) {
			return s.TuneRadio(ctx, hint)
		})

	var next models.DeviceState

	switch {
	case errors.Is(tuneErr, ErrNotConfigured):
		return tuneErr
	case tuneErr != nil:
		m.metrics.RecordTuneOutcome(bridge.String(), false)
		next = tuning.OnTuneFailure(state)
	default:
		m.metrics.RecordTuneOutcome(bridge.String(), true)
		next = tuning.OnTuneSuccess(outcome.BestFrequency, m.clock.Now())

		m.logger.Info().
			Str("bridge", bridge.String()).
			Str("frequency", outcome.BestFrequency.String()).
			Msg("Device auto-tuned")
	}

	if !next.Equal(state) {
		if err := m.states.Put(ctx, bridge, next); err != nil {
			m.logger.Warn().Err(err).Str("bridge", bridge.String()).Msg("Failed to persist tuning state")
		}
	}

	return tuneErr
}

// Trigger runs a cycle for bridge. A trigger that arrives while a cycle for
// the same bridge is in flight waits for and shares that cycle's result.
// The shared cycle is detached from every caller's cancellation and bounded
// by the cycle timeout instead; ctx only limits how long this caller waits.
func (m *Manager) Trigger(ctx context.Context, bridge models.BridgeID) error {
	results := m.cycles.DoChan(bridge.String(), func() (interface{}, error) {
		m.inflight.Add(1)
		defer m.inflight.Done()

		cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cycleTimeout)
		defer cancel()

		return nil, m.RunCycle(cycleCtx, bridge)
	})

	select {
	case res := <-results:
		if res.Shared {
			m.logger.Debug().Str("bridge", bridge.String()).Msg("Trigger shared a cycle")
		}

		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain waits for detached cycles started by Trigger to finish.
func (m *Manager) Drain(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		m.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerAll runs a cycle for every auto-connect bridge. Bridges are cycled
// concurrently and one bridge's failure does not cancel the others.
func (m *Manager) TriggerAll(ctx context.Context) error {
	if !m.Configured() {
		m.logger.Info().Msg("Skipping cycles, pump comms not configured")
		return ErrNotConfigured
	}

	bridges := m.ActiveBridges(ctx)
	if len(bridges) == 0 {
		m.logger.Debug().Msg("No active bridges")
		return nil
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	if m.maxParallel > 0 {
		g.SetLimit(m.maxParallel)
	}

	for _, bridge := range bridges {
		g.Go(func() error {
			if err := m.Trigger(ctx, bridge); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	return errors.Join(errs...)
}
