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

// Package tuning decides when a bridge's radio must be re-tuned and what
// state a tune attempt leaves behind. Every function here is pure.
package tuning

import (
	"time"

	"github.com/carverauto/pumpsync/pkg/models"
)

// DefaultTolerance is how long a tuned frequency is trusted before the link
// is assumed to have drifted.
const DefaultTolerance = 14 * time.Minute

// ShouldTune reports whether the bridge must be re-tuned at now. A bridge
// that was never tuned always needs tuning.
func ShouldTune(state models.DeviceState, now time.Time, tolerance time.Duration) bool {
	if state.LastTuned == nil {
		return true
	}

	return now.Sub(*state.LastTuned) >= tolerance
}

// OnTuneSuccess is the state after a tune that settled on frequency at now.
func OnTuneSuccess(frequency models.Frequency, now time.Time) models.DeviceState {
	tuned := now
	freq := frequency

	return models.DeviceState{LastTuned: &tuned, LastValidFrequency: &freq}
}

// OnTuneFailure is the state after a failed tune: previous, unchanged, so
// the next cycle retries instead of waiting out the tolerance window.
func OnTuneFailure(previous models.DeviceState) models.DeviceState {
	return previous
}

// Hint is the frequency to start the next search from, if any.
func Hint(state models.DeviceState) *models.Frequency {
	if state.LastValidFrequency == nil {
		return nil
	}

	f := *state.LastValidFrequency

	return &f
}
