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

import "time"

// PumpStatus is a point-in-time snapshot of the pump as reported by the
// pump manager.
type PumpStatus struct {
	Clock          time.Time `json:"clock"`
	PumpID         string    `json:"pump_id"`
	ReservoirUnits *float64  `json:"reservoir,omitempty"`
	BatteryPercent *int      `json:"battery_percent,omitempty"`
	BatteryVoltage *float64  `json:"battery_voltage,omitempty"`
	Suspended      bool      `json:"suspended"`
	Bolusing       bool      `json:"bolusing"`
}

// UploaderStatus identifies the host running the uploader.
type UploaderStatus struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	// Battery is a percentage; nil when the host has no battery or it cannot be read.
	Battery *int `json:"battery,omitempty"`
}

// DeviceStatus is forwarded to the remote store as one unit.
type DeviceStatus struct {
	Device         string         `json:"device"`
	Timestamp      time.Time      `json:"created_at"`
	PumpStatus     *PumpStatus    `json:"pump,omitempty"`
	UploaderStatus UploaderStatus `json:"uploader"`
}

// ClockComponents is a wall-clock reading without zone information, as
// broadcast by the pump.
type ClockComponents struct {
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Day    int        `json:"day"`
	Hour   int        `json:"hour"`
	Minute int        `json:"minute"`
	Second int        `json:"second"`
}

// In resolves the components into an absolute time in loc.
func (c ClockComponents) In(loc *time.Location) time.Time {
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, 0, loc)
}
