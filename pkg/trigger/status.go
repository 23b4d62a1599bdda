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

package trigger

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
)

// DefaultStatusSubject is where the pump-ops side publishes status reports.
const DefaultStatusSubject = "pumpsync.status"

// statusMessage is either a polled pump status or a broadcast clock reading.
type statusMessage struct {
	BridgeName     string                  `json:"bridge_name"`
	PumpStatus     *models.PumpStatus      `json:"pump_status,omitempty"`
	BroadcastClock *models.ClockComponents `json:"broadcast_clock,omitempty"`
}

// StatusListener hands pump status reports to the manager. Polled reports
// are uploaded; broadcast clocks only update the latest status date.
type StatusListener struct {
	handler StatusHandler
	logger  logger.Logger

	mu     sync.Mutex
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStatusListener(handler StatusHandler, log logger.Logger) *StatusListener {
	return &StatusListener{handler: handler, logger: log}
}

// Handle dispatches one decoded report.
func (l *StatusListener) Handle(ctx context.Context, data []byte) error {
	var msg statusMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}

	if msg.PumpStatus == nil && msg.BroadcastClock == nil {
		return errEmptyStatus
	}

	if msg.BroadcastClock != nil {
		l.handler.RecordBroadcastStatus(*msg.BroadcastClock)
	}

	if msg.PumpStatus != nil {
		l.handler.PumpManagerDidUpdateStatus(ctx, msg.BridgeName, msg.PumpStatus)
	}

	return nil
}

// Subscribe listens for status reports on subject until Stop.
func (l *StatusListener) Subscribe(ctx context.Context, nc *nats.Conn, subject string) error {
	if nc == nil {
		return errNilConn
	}

	if subject == "" {
		subject = DefaultStatusSubject
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sub != nil {
		return errAlreadyStarted
	}

	l.ctx, l.cancel = context.WithCancel(ctx)

	sub, err := nc.Subscribe(subject, l.onMessage)
	if err != nil {
		l.cancel()
		return err
	}

	l.sub = sub

	l.logger.Info().Str("subject", subject).Msg("Listening for pump status reports")

	return nil
}

func (l *StatusListener) onMessage(msg *nats.Msg) {
	l.mu.Lock()
	ctx := l.ctx

	if ctx == nil || ctx.Err() != nil {
		l.mu.Unlock()
		return
	}

	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()

		if err := l.Handle(ctx, msg.Data); err != nil {
			l.logger.Warn().Err(err).Msg("Dropping pump status report")
		}
	}()
}

// Stop unsubscribes and waits for in-flight uploads.
func (l *StatusListener) Stop(ctx context.Context) error {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil

	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to unsubscribe from status reports")
		}
	}

	done := make(chan struct{})

	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
