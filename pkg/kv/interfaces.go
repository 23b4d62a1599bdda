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

//go:generate mockgen -destination=mock_kv.go -package=kv github.com/carverauto/pumpsync/pkg/kv KVStore

// Package kv provides the byte-oriented key-value stores that back persisted
// bridge state, connection preferences and the glucose watermark.
package kv

import (
	"context"
	"time"
)

// KVStore is a key-value store of opaque values.
type KVStore interface {
	// Get returns the value for key and whether it was found. A missing key
	// is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put replaces the value for key in a single write. A zero ttl keeps the
	// value until it is deleted; backends without per-key expiry ignore ttl.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error

	Close() error
}
