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

package kv

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/pumpsync/pkg/models"
)

const (
	BackendNATS   = "nats"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	defaultBucket = "pumpsync-state"
)

// Config selects and configures the store backing persisted bridge state.
type Config struct {
	Backend    string          `json:"backend" yaml:"backend"`
	NATSURL    string          `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
	Bucket     string          `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	BucketTTL  models.Duration `json:"bucket_ttl,omitempty" yaml:"bucket_ttl,omitempty"`
	SQLitePath string          `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	DataDir    string          `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
}

// Validate checks the backend settings and fills defaults.
func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}

	switch c.Backend {
	case BackendNATS:
		if c.Bucket == "" {
			c.Bucket = defaultBucket
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errSQLitePathRequired
		}

		if c.DataDir != "" && !filepath.IsAbs(c.SQLitePath) {
			c.SQLitePath = filepath.Join(c.DataDir, c.SQLitePath)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, c.Backend)
	}

	return nil
}

// Open builds the configured store. For the nats backend an existing
// connection is reused when nc is non-nil; otherwise NATSURL is dialed.
func Open(ctx context.Context, c *Config, nc *nats.Conn, opts ...nats.Option) (KVStore, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Backend {
	case BackendNATS:
		if nc != nil {
			return NewNatsStoreFromConn(ctx, nc, c.Bucket, c.BucketTTL.Std())
		}

		if c.NATSURL == "" {
			return nil, errNatsURLRequired
		}

		return NewNatsStore(ctx, c.NATSURL, c.Bucket, c.BucketTTL.Std(), opts...)
	case BackendSQLite:
		return NewSQLiteStore(c.SQLitePath)
	default:
		return NewMemoryStore(), nil
	}
}
