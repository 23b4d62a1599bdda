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
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
)

const (
	defaultPostgresPort = 5432

	createPumpEventsSQL = `CREATE TABLE IF NOT EXISTS pump_events (
	source      TEXT        NOT NULL,
	event_time  TIMESTAMPTZ NOT NULL,
	event_type  TEXT        NOT NULL,
	pump_model  TEXT        NOT NULL DEFAULT '',
	raw         BYTEA,
	details     JSONB,
	received_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, event_time, event_type)
)`

	createGlucoseEventsSQL = `CREATE TABLE IF NOT EXISTS glucose_events (
	source      TEXT        NOT NULL,
	event_time  TIMESTAMPTZ NOT NULL,
	event_type  TEXT        NOT NULL,
	glucose     DOUBLE PRECISION,
	raw         BYTEA,
	received_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, event_time, event_type)
)`

	createDeviceStatusSQL = `CREATE TABLE IF NOT EXISTS device_status (
	device     TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	payload    JSONB       NOT NULL,
	PRIMARY KEY (device, created_at)
)`

	insertPumpEventSQL = `INSERT INTO pump_events (source, event_time, event_type, pump_model, raw, details)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (source, event_time, event_type) DO NOTHING`

	insertGlucoseEventSQL = `INSERT INTO glucose_events (source, event_time, event_type, glucose, raw)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (source, event_time, event_type) DO NOTHING`

	insertDeviceStatusSQL = `INSERT INTO device_status (device, created_at, payload)
VALUES ($1, $2, $3)
ON CONFLICT (device, created_at) DO NOTHING`
)

// pgxConn is the subset of *pgxpool.Pool the client needs.
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresClient writes synchronized data into Postgres. Each batch is sent
// as one pgx batch, which the server runs in a single implicit transaction.
type PostgresClient struct {
	conn   pgxConn
	pool   *pgxpool.Pool
	logger logger.Logger
}

var _ Client = (*PostgresClient)(nil)

// NewPostgresClient dials Postgres and creates the tables if missing.
func NewPostgresClient(ctx context.Context, cfg *PostgresConfig, log logger.Logger) (*PostgresClient, error) {
	pool, err := NewPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	client := newPostgresClient(pool, log)
	client.pool = pool

	if err := client.migrate(ctx); err != nil {
		pool.Close()

		return nil, err
	}

	return client, nil
}

func newPostgresClient(conn pgxConn, log logger.Logger) *PostgresClient {
	return &PostgresClient{conn: conn, logger: log}
}

// Close releases the connection pool.
func (c *PostgresClient) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

func (c *PostgresClient) migrate(ctx context.Context) error {
	for _, stmt := range []string{createPumpEventsSQL, createGlucoseEventsSQL, createDeviceStatusSQL} {
		if _, err := c.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}

	return nil
}

func (c *PostgresClient) ProcessPumpEvents(
	ctx context.Context, events []models.HistoryEvent, source string, model models.PumpModel,
) error {
	batch := &pgx.Batch{}

	for i := range events {
		ev := &events[i]

		var details []byte
		if len(ev.Details) > 0 {
			details = ev.Details
		}

		batch.Queue(insertPumpEventSQL, source, ev.Timestamp.UTC(), ev.Type, string(model), ev.Raw, details)
	}

	return sendBatchExecAll(ctx, batch, c.conn.SendBatch, "pump events")
}

func (c *PostgresClient) ProcessGlucoseEvents(
	ctx context.Context, events []models.GlucoseEvent, source string,
) (*time.Time, error) {
	if len(events) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}

	for i := range events {
		ev := &events[i]
		batch.Queue(insertGlucoseEventSQL, source, ev.Timestamp.UTC(), ev.Type, ev.Glucose, ev.Raw)
	}

	if err := sendBatchExecAll(ctx, batch, c.conn.SendBatch, "glucose events"); err != nil {
		return nil, err
	}

	return models.LatestGlucoseTimestamp(events), nil
}

func (c *PostgresClient) UploadDeviceStatus(ctx context.Context, status models.DeviceStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("postgres: marshal device status: %w", err)
	}

	if _, err := c.conn.Exec(ctx, insertDeviceStatusSQL, status.Device, status.Timestamp.UTC(), payload); err != nil {
		return fmt.Errorf("postgres: insert device status: %w", err)
	}

	return nil
}

func sendBatchExecAll(
	ctx context.Context, batch *pgx.Batch, send func(context.Context, *pgx.Batch) pgx.BatchResults, operation string,
) (err error) {
	if batch == nil || batch.Len() == 0 {
		return nil
	}

	br := send(ctx, batch)
	defer func() {
		if closeErr := br.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%s batch close: %w", operation, closeErr)
		}
	}()

	for i := 0; i < batch.Len(); i++ {
		if _, err = br.Exec(); err != nil {
			return fmt.Errorf("%s batch exec (command %d): %w", operation, i, err)
		}
	}

	return nil
}

// NewPool dials the configured Postgres server and returns a pgx pool.
func NewPool(ctx context.Context, cfg *PostgresConfig, log logger.Logger) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, errPostgresRequired
	}

	poolConfig, err := buildPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to initialize pool: %w", err)
	}

	if pool == nil {
		return nil, errNilPool
	}

	log.Info().
		Str("host", cfg.Host).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("connected to Postgres")

	return pool, nil
}

func buildPoolConfig(cfg *PostgresConfig) (*pgxpool.Config, error) {
	if cfg.Host == "" {
		return nil, errPostgresHostRequired
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	connURL := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}

	if cfg.Username != "" {
		if cfg.Password != "" {
			connURL.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			connURL.User = url.User(cfg.Username)
		}
	}

	query := connURL.Query()

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	query.Set("sslmode", sslMode)

	if cfg.ApplicationName != "" {
		query.Set("application_name", cfg.ApplicationName)
	}

	connURL.RawQuery = query.Encode()

	poolConfig, err := pgxpool.ParseConfig(connURL.String())
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse connection string: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}

	if cfg.MinConnections > 0 {
		poolConfig.MinConns = cfg.MinConnections
	}

	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime.Std()
	}

	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod.Std()
	}

	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = make(map[string]string)
	}

	for k, v := range cfg.ExtraRuntimeParams {
		if k == "" {
			continue
		}

		poolConfig.ConnConfig.RuntimeParams[k] = v
	}

	if cfg.StatementTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] =
			strconv.FormatInt(cfg.StatementTimeout.Std().Milliseconds(), 10)
	}

	tlsConfig, err := buildPostgresTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	if tlsConfig != nil {
		poolConfig.ConnConfig.TLSConfig = tlsConfig
	}

	return poolConfig, nil
}

func buildPostgresTLSConfig(cfg *PostgresConfig) (*tls.Config, error) {
	if cfg.TLS == nil {
		return nil, nil
	}

	resolve := func(path string) string {
		if path == "" || filepath.IsAbs(path) || cfg.CertDir == "" {
			return path
		}

		return filepath.Join(cfg.CertDir, path)
	}

	certFile := resolve(cfg.TLS.CertFile)
	keyFile := resolve(cfg.TLS.KeyFile)
	caFile := resolve(cfg.TLS.CAFile)

	if certFile == "" || keyFile == "" || caFile == "" {
		return nil, errPostgresTLSIncomplete
	}

	clientCert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("postgres tls: failed to load client keypair: %w", err)
	}

	caBytes, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("postgres tls: failed to read CA file: %w", err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caBytes) {
		return nil, errPostgresCAParse
	}

	return &tls.Config{
		Certificates: []tls.Certificate{clientCert},
		RootCAs:      caPool,
		MinVersion:   tls.VersionTLS12,
		ServerName:   cfg.Host,
	}, nil
}
