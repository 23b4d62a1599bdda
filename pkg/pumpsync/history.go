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

package pumpsync

import (
	"context"
	"fmt"
	"time"

	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/pumpops"
	"github.com/carverauto/pumpsync/pkg/session"
)

type historyResult struct {
	events []models.HistoryEvent
	model  models.PumpModel
}

// SyncHistory fetches the last HistoryWindow of pump history through bridge
// and forwards events not yet confirmed. When glucose data is stale it then
// runs SyncGlucose in the same cycle. The returned error is the history
// outcome; a failed cascade is only logged.
func (s *Synchronizer) SyncHistory(ctx context.Context, bridge models.BridgeID, now time.Time) error {
	s.watermark.MarkHistoryAttempt(now)

	since := now.Add(-HistoryWindow)

	result, err := session.Run(ctx, s.runner, bridge, LabelHistory,
		func(ctx context.Context, sess pumpops.Session) (historyResult, error) {
			events, model, err := sess.GetHistoryEvents(ctx, since)

			return historyResult{events: events, model: model}, err
		})
	if err != nil {
		return err
	}

	if err := s.forwardHistory(ctx, bridge, result, since); err != nil {
		return err
	}

	s.maybeCascade(ctx, bridge, now)

	return nil
}

func (s *Synchronizer) forwardHistory(ctx context.Context, bridge models.BridgeID, result historyResult, since time.Time) error {
	if !s.uploadEnabled() {
		s.logger.Debug().
			Str("bridge", string(bridge)).
			Int("events", len(result.events)).
			Msg("Upload disabled, dropping pump history")

		return nil
	}

	fresh := s.unseen(result.events, since)
	if len(fresh) == 0 {
		return nil
	}

	if err := s.remote.ProcessPumpEvents(ctx, fresh, bridge.URI(), result.model); err != nil {
		return fmt.Errorf("forward %d pump events: %w", len(fresh), err)
	}

	s.markSeen(fresh)
	s.metrics.RecordHistoryForwarded(len(fresh))

	s.logger.Info().
		Str("bridge", string(bridge)).
		Int("events", len(fresh)).
		Str("pump_model", string(result.model)).
		Msg("Forwarded pump history")

	return nil
}

// unseen drops confirmed keys older than since and returns the events that
// have not been confirmed, without duplicates.
func (s *Synchronizer) unseen(events []models.HistoryEvent, since time.Time) []models.HistoryEvent {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	for key := range s.seen {
		if key.Timestamp.Before(since) {
			delete(s.seen, key)
		}
	}

	batch := make(map[models.EventKey]struct{}, len(events))
	fresh := make([]models.HistoryEvent, 0, len(events))

	for _, ev := range events {
		key := ev.Key()

		if _, ok := s.seen[key]; ok {
			continue
		}

		if _, ok := batch[key]; ok {
			continue
		}

		batch[key] = struct{}{}
		fresh = append(fresh, ev)
	}

	return fresh
}

func (s *Synchronizer) markSeen(events []models.HistoryEvent) {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	for _, ev := range events {
		s.seen[ev.Key()] = struct{}{}
	}
}

func (s *Synchronizer) maybeCascade(ctx context.Context, bridge models.BridgeID, now time.Time) {
	switch {
	case !s.uploadEnabled():
		return
	case !s.flags.FetchCGMEnabled():
		return
	case now.Sub(s.watermark.LastGlucoseEntry()) <= GlucoseStaleness:
		return
	case !s.cascade.Allow(now):
		s.metrics.RecordCascadeSkipped("backoff")
		s.logger.Debug().
			Str("bridge", string(bridge)).
			Time("next_allowed", s.cascade.NextAllowed()).
			Msg("Glucose cascade backing off")

		return
	}

	err := s.SyncGlucose(ctx, bridge)
	s.cascade.Record(now, err)

	if err != nil {
		s.logger.Warn().Err(err).
			Str("bridge", string(bridge)).
			Time("next_allowed", s.cascade.NextAllowed()).
			Msg("Glucose cascade failed")
	}
}
