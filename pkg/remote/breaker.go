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
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/metrics"
	"github.com/carverauto/pumpsync/pkg/models"
)

const (
	defaultBreakerMaxFailures uint32 = 5
	defaultBreakerTimeout            = 30 * time.Second
	defaultBreakerInterval           = 60 * time.Second
	breakerName                      = "remote"
)

// CircuitBreakerClient wraps a Client so that a failing remote store fails
// fast instead of holding every sync cycle on a dead connection.
type CircuitBreakerClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker[*time.Time]
	logger  logger.Logger
}

var _ Client = (*CircuitBreakerClient)(nil)

// NewCircuitBreakerClient wraps inner. Zero config values take defaults.
func NewCircuitBreakerClient(inner Client, cfg BreakerConfig, log logger.Logger, m metrics.Metrics) *CircuitBreakerClient {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}

	if m == nil {
		m = &metrics.NoOpMetrics{}
	}

	cb := gobreaker.NewCircuitBreaker[*time.Time](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    cfg.Interval.OrDefault(defaultBreakerInterval),
		Timeout:     cfg.Timeout.OrDefault(defaultBreakerTimeout),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")

			m.RecordCircuitBreakerStateChange(name, from.String(), to.String())
		},
		IsSuccessful: func(err error) bool {
			// Cancellation says nothing about the remote's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &CircuitBreakerClient{inner: inner, breaker: cb, logger: log}
}

// State returns the current breaker state for monitoring.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}

func (c *CircuitBreakerClient) ProcessPumpEvents(
	ctx context.Context, events []models.HistoryEvent, source string, model models.PumpModel,
) error {
	_, err := c.breaker.Execute(func() (*time.Time, error) {
		return nil, c.inner.ProcessPumpEvents(ctx, events, source, model)
	})

	return wrapBreakerErr(err)
}

func (c *CircuitBreakerClient) ProcessGlucoseEvents(
	ctx context.Context, events []models.GlucoseEvent, source string,
) (*time.Time, error) {
	latest, err := c.breaker.Execute(func() (*time.Time, error) {
		return c.inner.ProcessGlucoseEvents(ctx, events, source)
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}

	return latest, nil
}

func (c *CircuitBreakerClient) UploadDeviceStatus(ctx context.Context, status models.DeviceStatus) error {
	_, err := c.breaker.Execute(func() (*time.Time, error) {
		return nil, c.inner.UploadDeviceStatus(ctx, status)
	})

	return wrapBreakerErr(err)
}

func wrapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}

	return err
}
