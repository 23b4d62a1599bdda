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

// Package devicestate persists per-bridge radio tuning state and the
// connection preferences of known bridges.
package devicestate

import (
	"context"

	"github.com/carverauto/pumpsync/pkg/kv"
	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
)

const stateNamespace = "device"

// Store reads and writes DeviceState records keyed by bridge.
type Store struct {
	kv     kv.KVStore
	logger logger.Logger
}

func NewStore(store kv.KVStore, log logger.Logger) (*Store, error) {
	if store == nil {
		return nil, errNilStore
	}

	return &Store{kv: store, logger: log}, nil
}

// Get returns the stored state for bridge. It never fails: a missing,
// unreadable or undecodable record yields the default (never tuned) state.
func (s *Store) Get(ctx context.Context, bridge models.BridgeID) models.DeviceState {
	data, found, err := s.kv.Get(ctx, kv.Key(stateNamespace, string(bridge)))
	if err != nil {
		s.logger.Warn().Err(err).Str("bridge", string(bridge)).Msg("Failed to read device state, using defaults")

		return models.DeviceState{}
	}

	if !found {
		return models.DeviceState{}
	}

	state, err := decodeState(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("bridge", string(bridge)).Msg("Discarding undecodable device state")

		return models.DeviceState{}
	}

	return state
}

// Put replaces the stored state for bridge with a single write.
func (s *Store) Put(ctx context.Context, bridge models.BridgeID, state models.DeviceState) error {
	data, err := encodeState(state)
	if err != nil {
		return &PersistenceError{Op: "encode", Bridge: bridge, Err: err}
	}

	if err := s.kv.Put(ctx, kv.Key(stateNamespace, string(bridge)), data, 0); err != nil {
		return &PersistenceError{Op: "put", Bridge: bridge, Err: err}
	}

	return nil
}

// Delete forgets bridge permanently.
func (s *Store) Delete(ctx context.Context, bridge models.BridgeID) error {
	if err := s.kv.Delete(ctx, kv.Key(stateNamespace, string(bridge))); err != nil {
		return &PersistenceError{Op: "delete", Bridge: bridge, Err: err}
	}

	return nil
}
