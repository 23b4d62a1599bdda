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

// Package pumpsync moves pump history and glucose events to the remote store
// with watermark-based, at-most-once forwarding.
package pumpsync

import (
	"context"
	"sync"
	"time"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/metrics"
	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/remote"
	"github.com/carverauto/pumpsync/pkg/session"
)

const (
	LabelHistory = "Get pump history"
	LabelGlucose = "Get glucose history"

	// HistoryWindow is how far back every history fetch reaches.
	HistoryWindow = 24 * time.Hour
	// GlucoseStaleness is how old the glucose watermark must be before a
	// history sync cascades into a glucose sync.
	GlucoseStaleness = 5 * time.Minute
	// DefaultGlucoseLookback is the initial distance of the glucose watermark.
	DefaultGlucoseLookback = 24 * time.Hour

	defaultCascadeBackoff    = 5 * time.Minute
	defaultCascadeMaxBackoff = time.Hour
)

// Synchronizer runs the history and glucose syncs for every bridge. The
// watermark it owns is shared by all bridges because the events come from a
// single pump.
type Synchronizer struct {
	runner    *session.Runner
	remote    remote.Client
	flags     FeatureFlags
	watermark *Watermark
	store     WatermarkStore
	cascade   *cascadeGate
	metrics   metrics.Metrics
	logger    logger.Logger

	seenMu sync.Mutex
	seen   map[models.EventKey]struct{}
}

type Option func(*Synchronizer)

// WithWatermarkStore persists the glucose watermark after every advance.
func WithWatermarkStore(store WatermarkStore) Option {
	return func(s *Synchronizer) { s.store = store }
}

func WithMetrics(m metrics.Metrics) Option {
	return func(s *Synchronizer) { s.metrics = m }
}

// WithCascadeBackoff sets the wait after the first failed cascade and the
// cap it doubles up to.
func WithCascadeBackoff(initial, maxInterval time.Duration) Option {
	return func(s *Synchronizer) { s.cascade = newCascadeGate(initial, maxInterval) }
}

// NewSynchronizer builds a Synchronizer. client may be nil, in which case
// nothing is ever forwarded.
func NewSynchronizer(runner *session.Runner, client remote.Client, flags FeatureFlags, watermark *Watermark,
	log logger.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		runner:    runner,
		remote:    client,
		flags:     flags,
		watermark: watermark,
		cascade:   newCascadeGate(defaultCascadeBackoff, defaultCascadeMaxBackoff),
		metrics:   &metrics.NoOpMetrics{},
		logger:    log,
		seen:      make(map[models.EventKey]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Restore loads the persisted glucose watermark. A stored value never moves
// the watermark backwards.
func (s *Synchronizer) Restore(ctx context.Context) {
	if s.store == nil {
		return
	}

	stored, found, err := s.store.LoadGlucose(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load glucose watermark, keeping default")

		return
	}

	if found && s.watermark.AdvanceGlucose(stored) {
		s.logger.Info().Time("last_glucose_entry", stored).Msg("Restored glucose watermark")
	}
}

// Watermark exposes the shared watermark.
func (s *Synchronizer) Watermark() *Watermark {
	return s.watermark
}

func (s *Synchronizer) uploadEnabled() bool {
	return s.remote != nil && s.flags.UploadEnabled()
}
