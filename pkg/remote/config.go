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

package remote

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/metrics"
	"github.com/carverauto/pumpsync/pkg/models"
)

// Supported remote backends. An empty backend means no remote store is
// configured and nothing is forwarded.
const (
	BackendNone     = ""
	BackendNATS     = "nats"
	BackendPostgres = "postgres"
)

// Config selects and configures the remote data store.
type Config struct {
	Backend  string          `json:"backend" yaml:"backend"`
	NATS     NATSConfig      `json:"nats" yaml:"nats"`
	Postgres *PostgresConfig `json:"postgres,omitempty" yaml:"postgres,omitempty"`
	Breaker  BreakerConfig   `json:"circuit_breaker" yaml:"circuit_breaker"`
}

// NATSConfig configures the JetStream event sink.
type NATSConfig struct {
	Stream        string `json:"stream" yaml:"stream"`
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix"`
}

// PostgresConfig configures the SQL sink.
type PostgresConfig struct {
	Host               string            `json:"host" yaml:"host"`
	Port               int               `json:"port" yaml:"port"`
	Database           string            `json:"database" yaml:"database"`
	Username           string            `json:"username" yaml:"username"`
	Password           string            `json:"password" yaml:"password"`
	SSLMode            string            `json:"ssl_mode" yaml:"ssl_mode"`
	ApplicationName    string            `json:"application_name" yaml:"application_name"`
	CertDir            string            `json:"cert_dir" yaml:"cert_dir"`
	TLS                *models.TLSConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
	MaxConnections     int32             `json:"max_connections" yaml:"max_connections"`
	MinConnections     int32             `json:"min_connections" yaml:"min_connections"`
	MaxConnLifetime    models.Duration   `json:"max_conn_lifetime" yaml:"max_conn_lifetime"`
	HealthCheckPeriod  models.Duration   `json:"health_check_period" yaml:"health_check_period"`
	StatementTimeout   models.Duration   `json:"statement_timeout" yaml:"statement_timeout"`
	ExtraRuntimeParams map[string]string `json:"runtime_params,omitempty" yaml:"runtime_params,omitempty"`
}

// BreakerConfig tunes the circuit breaker wrapped around the remote client.
type BreakerConfig struct {
	Disabled    bool            `json:"disabled" yaml:"disabled"`
	MaxFailures uint32          `json:"max_failures" yaml:"max_failures"`
	Timeout     models.Duration `json:"timeout" yaml:"timeout"`
	Interval    models.Duration `json:"interval" yaml:"interval"`
}

// Validate implements the config loader's Validator.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNone, BackendNATS:
		return nil
	case BackendPostgres:
		if c.Postgres == nil {
			return errPostgresRequired
		}

		if c.Postgres.Host == "" {
			return errPostgresHostRequired
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, c.Backend)
	}
}

// Open builds the configured remote client. It returns a nil Client when no
// backend is configured. The returned func releases backend resources and
// is always safe to call.
func Open(
	ctx context.Context, cfg *Config, nc *nats.Conn, log logger.Logger, m metrics.Metrics,
) (Client, func(), error) {
	noop := func() {}

	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}

	var (
		client  Client
		closeFn = noop
	)

	switch cfg.Backend {
	case BackendNone:
		log.Info().Msg("No remote backend configured, uploads are disabled")

		return nil, noop, nil
	case BackendNATS:
		if nc == nil {
			return nil, noop, errNATSConnRequired
		}

		natsClient, err := NewNATSClient(ctx, nc, cfg.NATS, log)
		if err != nil {
			return nil, noop, err
		}

		client = natsClient
	case BackendPostgres:
		pgClient, err := NewPostgresClient(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, noop, err
		}

		client = pgClient
		closeFn = pgClient.Close
	}

	if cfg.Breaker.Disabled {
		return client, closeFn, nil
	}

	return NewCircuitBreakerClient(client, cfg.Breaker, log, m), closeFn, nil
}
