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

package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/carverauto/pumpsync/pkg/kv"
)

// KVConfigLoader loads configuration stored in a KV store under the config
// namespace, keyed by the config file's base name.
type KVConfigLoader struct {
	store kv.KVStore
}

func NewKVConfigLoader(store kv.KVStore) *KVConfigLoader {
	return &KVConfigLoader{store: store}
}

// KeyFor returns the KV key holding the config for path.
func KeyFor(path string) string {
	return kv.Key("config", filepath.Base(path))
}

// Load implements ConfigLoader by fetching and decoding the stored document.
func (k *KVConfigLoader) Load(ctx context.Context, path string, dst interface{}) error {
	key := KeyFor(path)

	data, found, err := k.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get key '%s' from KV store: %w", key, err)
	}

	if !found {
		return fmt.Errorf("%w: '%s'", errKVKeyNotFound, key)
	}

	if err := decode(key, data, dst); err != nil {
		return fmt.Errorf("failed to decode key '%s': %w", key, err)
	}

	return nil
}
