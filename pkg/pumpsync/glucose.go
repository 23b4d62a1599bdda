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

	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/pumpops"
	"github.com/carverauto/pumpsync/pkg/session"
)

// SyncGlucose fetches glucose events newer than the watermark through bridge
// and forwards them. The watermark advances only to the timestamp the remote
// store confirms, never to the newest event seen locally.
func (s *Synchronizer) SyncGlucose(ctx context.Context, bridge models.BridgeID) error {
	since := s.watermark.LastGlucoseEntry()

	events, err := session.Run(ctx, s.runner, bridge, LabelGlucose,
		func(ctx context.Context, sess pumpops.Session) ([]models.GlucoseEvent, error) {
			return sess.GetGlucoseHistoryEvents(ctx, since)
		})
	if err != nil {
		return err
	}

	if !s.uploadEnabled() {
		s.logger.Debug().
			Str("bridge", string(bridge)).
			Int("events", len(events)).
			Msg("Upload disabled, glucose watermark unchanged")

		return nil
	}

	if len(events) == 0 {
		return nil
	}

	confirmed, err := s.remote.ProcessGlucoseEvents(ctx, events, bridge.URI())
	if err != nil {
		return fmt.Errorf("forward %d glucose events: %w", len(events), err)
	}

	s.metrics.RecordGlucoseForwarded(len(events))

	if confirmed == nil {
		s.logger.Debug().Str("bridge", string(bridge)).Msg("Remote store confirmed no glucose timestamp")

		return nil
	}

	if !s.watermark.AdvanceGlucose(*confirmed) {
		return nil
	}

	s.metrics.RecordWatermarkAdvance(*confirmed)

	s.logger.Info().
		Str("bridge", string(bridge)).
		Int("events", len(events)).
		Time("last_glucose_entry", *confirmed).
		Msg("Advanced glucose watermark")

	if s.store != nil {
		if err := s.store.SaveGlucose(ctx, *confirmed); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist glucose watermark")
		}
	}

	return nil
}
