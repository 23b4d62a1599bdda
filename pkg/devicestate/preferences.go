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
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/carverauto/pumpsync/pkg/kv"
	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
)

const autoConnectKey = "preferences.auto_connect"

type preferencesRecord struct {
	Version     int      `json:"v"`
	AutoConnect []string `json:"auto_connect"`
}

// Preferences holds the set of bridges the user wants connected. The set is
// stored as one record so it is replaced atomically.
type Preferences struct {
	mu     sync.Mutex
	kv     kv.KVStore
	logger logger.Logger
}

func NewPreferences(store kv.KVStore, log logger.Logger) (*Preferences, error) {
	if store == nil {
		return nil, errNilStore
	}

	return &Preferences{kv: store, logger: log}, nil
}

// SetAutoConnect adds or removes bridge from the auto-connect set.
func (p *Preferences) SetAutoConnect(ctx context.Context, bridge models.BridgeID, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, err := p.read(ctx)
	if err != nil {
		return &PersistenceError{Op: "get", Bridge: bridge, Err: err}
	}

	if enabled {
		set[bridge] = struct{}{}
	} else {
		delete(set, bridge)
	}

	rec := preferencesRecord{Version: currentVersion, AutoConnect: make([]string, 0, len(set))}
	for id := range set {
		rec.AutoConnect = append(rec.AutoConnect, string(id))
	}

	sort.Strings(rec.AutoConnect)

	data, err := json.Marshal(rec)
	if err != nil {
		return &PersistenceError{Op: "encode", Bridge: bridge, Err: err}
	}

	if err := p.kv.Put(ctx, autoConnectKey, data, 0); err != nil {
		return &PersistenceError{Op: "put", Bridge: bridge, Err: err}
	}

	return nil
}

// AutoConnect reports whether bridge is in the auto-connect set.
func (p *Preferences) AutoConnect(ctx context.Context, bridge models.BridgeID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.load(ctx)[bridge]

	return ok
}

// Connected returns the auto-connect set in a stable order.
func (p *Preferences) Connected(ctx context.Context) []models.BridgeID {
	p.mu.Lock()
	defer p.mu.Unlock()

	set := p.load(ctx)

	out := make([]models.BridgeID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// load is the lenient read used by queries: any failure yields an empty set.
func (p *Preferences) load(ctx context.Context) map[models.BridgeID]struct{} {
	set, err := p.read(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to read connection preferences")

		return make(map[models.BridgeID]struct{})
	}

	return set
}

// read returns the stored set, or an error when the record cannot be read or
// decoded. A missing record is an empty set.
func (p *Preferences) read(ctx context.Context) (map[models.BridgeID]struct{}, error) {
	set := make(map[models.BridgeID]struct{})

	data, found, err := p.kv.Get(ctx, autoConnectKey)
	if err != nil {
		return nil, err
	}

	if !found {
		return set, nil
	}

	var rec preferencesRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode connection preferences: %w", err)
	}

	if rec.Version != 0 && rec.Version != currentVersion {
		return nil, fmt.Errorf("%w: %d", errUnsupportedVersion, rec.Version)
	}

	for _, id := range rec.AutoConnect {
		if id != "" {
			set[models.BridgeID(id)] = struct{}{}
		}
	}

	return set, nil
}
