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
	"time"
)

// PumpModel is the model string the pump reports alongside its history.
type PumpModel string

// EventKey is the deduplication identity of a device event.
type EventKey struct {
	Timestamp time.Time
	Type      string
}

// HistoryEvent is a single dosing/insulin-delivery record read from the pump.
type HistoryEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Raw       []byte          `json:"raw,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// Key returns the deduplication identity of the event.
func (e HistoryEvent) Key() EventKey {
	return EventKey{Timestamp: e.Timestamp.UTC(), Type: e.Type}
}

// GlucoseEvent is a sensor glucose record relayed by the pump's CGM link.
type GlucoseEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	// Glucose is in mg/dL; nil for records that carry no reading (e.g. calibration markers).
	Glucose *float64 `json:"glucose,omitempty"`
	Raw     []byte   `json:"raw,omitempty"`
}

// Key returns the deduplication identity of the event.
func (e GlucoseEvent) Key() EventKey {
	return EventKey{Timestamp: e.Timestamp.UTC(), Type: e.Type}
}

// LatestGlucoseTimestamp returns the newest timestamp in events, or nil when empty.
func LatestGlucoseTimestamp(events []GlucoseEvent) *time.Time {
	var latest *time.Time

	for i := range events {
		ts := events[i].Timestamp
		if latest == nil || ts.After(*latest) {
			latest = &ts
		}
	}

	return latest
}

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// PumpEventBatch is the payload forwarded for a history sync.
type PumpEventBatch struct {
	Source    string         `json:"source"`
	PumpModel PumpModel      `json:"pump_model"`
	Events    []HistoryEvent `json:"events"`
}

// GlucoseEventBatch is the payload forwarded for a glucose sync.
type GlucoseEventBatch struct {
	Source string         `json:"source"`
	Events []GlucoseEvent `json:"events"`
}
