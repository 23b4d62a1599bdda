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

package devicestate

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/carverauto/pumpsync/pkg/models"
)

const currentVersion = 1

// record is the persisted form of models.DeviceState. A record without "v"
// is read as version 1.
type record struct {
	Version            int        `json:"v"`
	LastTuned          *time.Time `json:"last_tuned,omitempty"`
	LastValidFrequency *float64   `json:"last_valid_frequency_mhz,omitempty"`
}

func encodeState(state models.DeviceState) ([]byte, error) {
	rec := record{Version: currentVersion}

	if state.LastTuned != nil {
		t := state.LastTuned.UTC()
		rec.LastTuned = &t
	}

	if state.LastValidFrequency != nil {
		f := float64(*state.LastValidFrequency)
		rec.LastValidFrequency = &f
	}

	return json.Marshal(rec)
}

func decodeState(data []byte) (models.DeviceState, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.DeviceState{}, err
	}

	if rec.Version == 0 {
		rec.Version = currentVersion
	}

	if rec.Version != currentVersion {
		return models.DeviceState{}, fmt.Errorf("%w: %d", errUnsupportedVersion, rec.Version)
	}

	var state models.DeviceState

	if rec.LastTuned != nil {
		t := *rec.LastTuned
		state.LastTuned = &t
	}

	if rec.LastValidFrequency != nil {
		f := models.Frequency(*rec.LastValidFrequency)
		state.LastValidFrequency = &f
	}

	return state, nil
}
