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

// Package metrics records in-process counters for sessions, tuning and
// synchronization.
package metrics

import (
	"sync"
	"time"

	"github.com/carverauto/pumpsync/pkg/logger"
)

// Metrics collects counters about pump communication.
type Metrics interface {
	RecordSessionAttempt(label string)
	RecordSessionSuccess(label string, duration time.Duration)
	RecordSessionFailure(label, kind string, duration time.Duration)

	RecordTuneOutcome(bridge string, success bool)

	RecordHistoryForwarded(count int)
	RecordGlucoseForwarded(count int)
	RecordWatermarkAdvance(to time.Time)
	RecordCascadeSkipped(reason string)

	RecordCircuitBreakerStateChange(name, from, to string)

	GetMetrics() map[string]interface{}
}

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

func (*NoOpMetrics) RecordSessionAttempt(string)                            {}
func (*NoOpMetrics) RecordSessionSuccess(string, time.Duration)             {}
func (*NoOpMetrics) RecordSessionFailure(string, string, time.Duration)     {}
func (*NoOpMetrics) RecordTuneOutcome(string, bool)                         {}
func (*NoOpMetrics) RecordHistoryForwarded(int)                             {}
func (*NoOpMetrics) RecordGlucoseForwarded(int)                             {}
func (*NoOpMetrics) RecordWatermarkAdvance(time.Time)                       {}
func (*NoOpMetrics) RecordCascadeSkipped(string)                            {}
func (*NoOpMetrics) RecordCircuitBreakerStateChange(string, string, string) {}
func (*NoOpMetrics) GetMetrics() map[string]interface{}                     { return map[string]interface{}{} }

// InMemoryMetrics keeps counters in memory for the status endpoint and tests.
type InMemoryMetrics struct {
	mu     sync.RWMutex
	logger logger.Logger

	sessionAttempts map[string]int
	sessionSuccess  map[string]int
	sessionFailures map[string]map[string]int
	sessionDuration map[string]time.Duration

	tuneSuccess  map[string]int
	tuneFailures map[string]int

	historyForwarded int
	glucoseForwarded int
	lastWatermark    time.Time
	cascadeSkipped   map[string]int

	circuitBreakerStates map[string]string

	lastUpdated time.Time
}

func NewInMemoryMetrics(log logger.Logger) *InMemoryMetrics {
	return &InMemoryMetrics{
		logger:               log,
		sessionAttempts:      make(map[string]int),
		sessionSuccess:       make(map[string]int),
		sessionFailures:      make(map[string]map[string]int),
		sessionDuration:      make(map[string]time.Duration),
		tuneSuccess:          make(map[string]int),
		tuneFailures:         make(map[string]int),
		cascadeSkipped:       make(map[string]int),
		circuitBreakerStates: make(map[string]string),
		lastUpdated:          time.Now(),
	}
}

func (m *InMemoryMetrics) RecordSessionAttempt(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionAttempts[label]++
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordSessionSuccess(label string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionSuccess[label]++
	m.sessionDuration[label] = duration
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordSessionFailure(label, kind string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byKind, ok := m.sessionFailures[label]
	if !ok {
		byKind = make(map[string]int)
		m.sessionFailures[label] = byKind
	}

	byKind[kind]++
	m.sessionDuration[label] = duration
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordTuneOutcome(bridge string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if success {
		m.tuneSuccess[bridge]++
	} else {
		m.tuneFailures[bridge]++
	}

	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordHistoryForwarded(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.historyForwarded += count
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordGlucoseForwarded(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.glucoseForwarded += count
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordWatermarkAdvance(to time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastWatermark = to
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordCascadeSkipped(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cascadeSkipped[reason]++
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) RecordCircuitBreakerStateChange(name, from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.circuitBreakerStates[name] = to
	m.lastUpdated = time.Now()

	m.logger.Info().
		Str("circuit_breaker", name).
		Str("old_state", from).
		Str("new_state", to).
		Msg("Circuit breaker state changed")
}

// GetMetrics returns a snapshot safe to serialize.
func (m *InMemoryMetrics) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	failures := make(map[string]map[string]int, len(m.sessionFailures))
	for label, byKind := range m.sessionFailures {
		failures[label] = copyCounts(byKind)
	}

	durations := make(map[string]string, len(m.sessionDuration))
	for label, d := range m.sessionDuration {
		durations[label] = d.String()
	}

	states := make(map[string]string, len(m.circuitBreakerStates))
	for name, state := range m.circuitBreakerStates {
		states[name] = state
	}

	snapshot := map[string]interface{}{
		"sessions": map[string]interface{}{
			"attempts":      copyCounts(m.sessionAttempts),
			"success":       copyCounts(m.sessionSuccess),
			"failures":      failures,
			"last_duration": durations,
		},
		"tuning": map[string]interface{}{
			"success":  copyCounts(m.tuneSuccess),
			"failures": copyCounts(m.tuneFailures),
		},
		"sync": map[string]interface{}{
			"history_forwarded": m.historyForwarded,
			"glucose_forwarded": m.glucoseForwarded,
			"cascade_skipped":   copyCounts(m.cascadeSkipped),
		},
		"circuit_breakers": states,
		"last_updated":     m.lastUpdated,
	}

	if !m.lastWatermark.IsZero() {
		snapshot["sync"].(map[string]interface{})["glucose_watermark"] = m.lastWatermark
	}

	return snapshot
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}
