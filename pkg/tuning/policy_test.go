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

package tuning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/pumpsync/pkg/models"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }

func TestShouldTuneNeverTuned(t *testing.T) {
	for _, now := range []time.Time{{}, base, base.Add(-48 * time.Hour), base.Add(10 * 365 * 24 * time.Hour)} {
		assert.True(t, ShouldTune(models.DeviceState{}, now, DefaultTolerance), "now=%s", now)
	}

	freq := models.Frequency(916.5)
	assert.True(t, ShouldTune(models.DeviceState{LastValidFrequency: &freq}, base, DefaultTolerance))
}

func TestShouldTuneBoundary(t *testing.T) {
	state := models.DeviceState{LastTuned: ptrTime(base)}

	tests := []struct {
		name      string
		now       time.Time
		tolerance time.Duration
		want      bool
	}{
		{name: "just tuned", now: base, tolerance: DefaultTolerance, want: false},
		{name: "inside window", now: base.Add(13*time.Minute + 59*time.Second), tolerance: DefaultTolerance, want: false},
		{name: "exactly at tolerance", now: base.Add(DefaultTolerance), tolerance: DefaultTolerance, want: true},
		{name: "past tolerance", now: base.Add(15 * time.Minute), tolerance: DefaultTolerance, want: true},
		{name: "zero tolerance", now: base, tolerance: 0, want: true},
		{name: "clock moved back", now: base.Add(-time.Hour), tolerance: DefaultTolerance, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldTune(state, tt.now, tt.tolerance))
		})
	}
}

func TestShouldTuneMatchesElapsed(t *testing.T) {
	for offset := -30 * time.Minute; offset <= 30*time.Minute; offset += 30 * time.Second {
		for _, tol := range []time.Duration{time.Minute, DefaultTolerance, time.Hour} {
			state := models.DeviceState{LastTuned: ptrTime(base)}
			now := base.Add(offset)

			assert.Equal(t, now.Sub(base) >= tol, ShouldTune(state, now, tol))
		}
	}
}

func TestTuneScenario(t *testing.T) {
	now := base
	state := models.DeviceState{LastTuned: ptrTime(now.Add(-15 * time.Minute))}

	require.True(t, ShouldTune(state, now, DefaultTolerance))

	state = OnTuneSuccess(916.55, now)
	require.NotNil(t, state.LastTuned)
	assert.Equal(t, now, *state.LastTuned)
	require.NotNil(t, state.LastValidFrequency)
	assert.Equal(t, models.Frequency(916.55), *state.LastValidFrequency)

	assert.False(t, ShouldTune(state, now.Add(time.Minute), DefaultTolerance))
}

func TestOnTuneFailureIsIdentity(t *testing.T) {
	freq := models.Frequency(868.4)

	states := []models.DeviceState{
		{},
		{LastTuned: ptrTime(base)},
		{LastValidFrequency: &freq},
		{LastTuned: ptrTime(base), LastValidFrequency: &freq},
	}

	for _, s := range states {
		once := OnTuneFailure(s)
		assert.True(t, s.Equal(once))
		assert.True(t, once.Equal(OnTuneFailure(once)))
	}
}

func TestHint(t *testing.T) {
	assert.Nil(t, Hint(models.DeviceState{}))

	freq := models.Frequency(916.5)
	state := models.DeviceState{LastValidFrequency: &freq}

	hint := Hint(state)
	require.NotNil(t, hint)
	assert.Equal(t, freq, *hint)

	*hint = 1
	assert.Equal(t, models.Frequency(916.5), *state.LastValidFrequency)
}
