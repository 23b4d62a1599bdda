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
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/pumpsync/pkg/kv"
)

// Watermark holds the process-wide sync bookkeeping. LastGlucoseEntry only
// moves forward.
type Watermark struct {
	mu                 sync.RWMutex
	lastHistoryAttempt time.Time
	lastGlucoseEntry   time.Time
}

// WatermarkSnapshot is a consistent copy of a Watermark.
type WatermarkSnapshot struct {
	LastHistoryAttempt *time.Time `json:"last_history_attempt,omitempty"`
	LastGlucoseEntry   time.Time  `json:"last_glucose_entry"`
}

// NewWatermark starts the glucose watermark DefaultGlucoseLookback before now.
func NewWatermark(now time.Time) *Watermark {
	return &Watermark{lastGlucoseEntry: now.Add(-DefaultGlucoseLookback)}
}

// MarkHistoryAttempt records when a history fetch was attempted.
func (w *Watermark) MarkHistoryAttempt(at time.Time) {
	w.mu.Lock()
	w.lastHistoryAttempt = at
	w.mu.Unlock()
}

// LastHistoryAttempt returns the zero time if no fetch was attempted yet.
func (w *Watermark) LastHistoryAttempt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.lastHistoryAttempt
}

func (w *Watermark) LastGlucoseEntry() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.lastGlucoseEntry
}

// AdvanceGlucose moves the glucose watermark to to if it is later than the
// current value, and reports whether it moved.
func (w *Watermark) AdvanceGlucose(to time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !to.After(w.lastGlucoseEntry) {
		return false
	}

	w.lastGlucoseEntry = to

	return true
}

func (w *Watermark) Snapshot() WatermarkSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := WatermarkSnapshot{LastGlucoseEntry: w.lastGlucoseEntry}

	if !w.lastHistoryAttempt.IsZero() {
		t := w.lastHistoryAttempt
		snap.LastHistoryAttempt = &t
	}

	return snap
}

// WatermarkStore persists the glucose watermark across restarts.
type WatermarkStore interface {
	LoadGlucose(ctx context.Context) (time.Time, bool, error)
	SaveGlucose(ctx context.Context, t time.Time) error
}

const glucoseWatermarkKey = "sync.glucose_watermark"

var errUnsupportedWatermarkVersion = errors.New("unsupported watermark version")

type watermarkRecord struct {
	Version          int       `json:"v"`
	LastGlucoseEntry time.Time `json:"last_glucose_entry"`
}

// KVWatermarkStore keeps the glucose watermark in a kv.KVStore.
type KVWatermarkStore struct {
	kv kv.KVStore
}

func NewKVWatermarkStore(store kv.KVStore) *KVWatermarkStore {
	return &KVWatermarkStore{kv: store}
}

func (s *KVWatermarkStore) LoadGlucose(ctx context.Context) (time.Time, bool, error) {
	data, found, err := s.kv.Get(ctx, glucoseWatermarkKey)
	if err != nil || !found {
		return time.Time{}, false, err
	}

	var rec watermarkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return time.Time{}, false, fmt.Errorf("decode glucose watermark: %w", err)
	}

	if rec.Version != 0 && rec.Version != 1 {
		return time.Time{}, false, fmt.Errorf("%w: %d", errUnsupportedWatermarkVersion, rec.Version)
	}

	return rec.LastGlucoseEntry, true, nil
}

func (s *KVWatermarkStore) SaveGlucose(ctx context.Context, t time.Time) error {
	data, err := json.Marshal(watermarkRecord{Version: 1, LastGlucoseEntry: t.UTC()})
	if err != nil {
		return err
	}

	return s.kv.Put(ctx, glucoseWatermarkKey, data, 0)
}
