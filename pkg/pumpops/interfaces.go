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

//go:generate mockgen -destination=mock_pumpops.go -package=pumpops github.com/carverauto/pumpsync/pkg/pumpops PumpOps,Session

// Package pumpops is the boundary to the pump-operations capability: opening
// labelled device sessions through a bridge and issuing commands in them.
package pumpops

import (
	"context"
	"time"

	"github.com/carverauto/pumpsync/pkg/models"
)

// PumpOps opens device sessions. RunSession holds the session open for the
// duration of body and closes it on every exit path.
type PumpOps interface {
	RunSession(ctx context.Context, bridge models.BridgeID, label string, body func(ctx context.Context, s Session) error) error
}

// Session is an open, exclusive exchange with a pump through one bridge.
// Implementations wrap ErrTransport, ErrDisconnected or ErrProtocol so
// callers can classify failures.
type Session interface {
	TuneRadio(ctx context.Context, hint *models.Frequency) (TuneOutcome, error)
	GetHistoryEvents(ctx context.Context, since time.Time) ([]models.HistoryEvent, models.PumpModel, error)
	GetGlucoseHistoryEvents(ctx context.Context, since time.Time) ([]models.GlucoseEvent, error)
}

// TuneOutcome is the result of a frequency scan.
type TuneOutcome struct {
	BestFrequency models.Frequency `json:"best_frequency_mhz"`
	Trials        []FrequencyTrial `json:"trials,omitempty"`
}

// FrequencyTrial records how one candidate frequency performed.
type FrequencyTrial struct {
	Frequency models.Frequency `json:"frequency_mhz"`
	Tries     int              `json:"tries"`
	Successes int              `json:"successes"`
	AvgRSSI   *float64         `json:"avg_rssi,omitempty"`
}
