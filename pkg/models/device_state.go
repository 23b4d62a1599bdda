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
	"fmt"
	"time"
)

// Frequency is a radio carrier frequency in MHz.
type Frequency float64

func (f Frequency) String() string {
	return fmt.Sprintf("%.3f MHz", float64(f))
}

// DeviceState is the persisted radio tuning state of a single bridge.
// The zero value means "never tuned".
type DeviceState struct {
	// LastTuned is only ever set by a successful tune session.
	LastTuned *time.Time
	// LastValidFrequency is a search hint for the next tune, not a correctness requirement.
	LastValidFrequency *Frequency
}

// IsZero reports whether the state carries no tuning information.
func (s DeviceState) IsZero() bool {
	return s.LastTuned == nil && s.LastValidFrequency == nil
}

// Equal compares two states by value.
func (s DeviceState) Equal(other DeviceState) bool {
	switch {
	case (s.LastTuned == nil) != (other.LastTuned == nil):
		return false
	case s.LastTuned != nil && !s.LastTuned.Equal(*other.LastTuned):
		return false
	case (s.LastValidFrequency == nil) != (other.LastValidFrequency == nil):
		return false
	case s.LastValidFrequency != nil && *s.LastValidFrequency != *other.LastValidFrequency:
		return false
	}

	return true
}
