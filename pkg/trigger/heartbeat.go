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
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/models"
)

const (
	// DefaultHeartbeatSubject is where bridge heartbeats are published.
	DefaultHeartbeatSubject = "pumpsync.heartbeat"
	// DefaultHeartbeatInterval is the minimum spacing of heartbeat-driven cycles per bridge.
	DefaultHeartbeatInterval = time.Minute
)

// heartbeatMessage is the payload published by the BLE side on each heartbeat.
type heartbeatMessage struct {
	BridgeID string `json:"bridge_id"`
}

// Heartbeat turns bridge heartbeats into manager cycles, at most one per
// bridge per interval.
type Heartbeat struct {
	handler  HeartbeatHandler
	interval time.Duration
	logger   logger.Logger

	mu       sync.Mutex
	limiters map[models.BridgeID]*rate.Limiter
	sub      *nats.Subscription
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewHeartbeat(handler HeartbeatHandler, interval time.Duration, log logger.Logger) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}

	return &Heartbeat{
		handler:  handler,
		interval: interval,
		logger:   log,
		limiters: make(map[models.BridgeID]*rate.Limiter),
	}
}

func (h *Heartbeat) limiter(bridge models.BridgeID) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[bridge]
	if !ok {
		l = rate.NewLimiter(rate.Every(h.interval), 1)
		h.limiters[bridge] = l
	}

	return l
}

// Fire handles one heartbeat synchronously. It reports whether a cycle ran.
func (h *Heartbeat) Fire(ctx context.Context, bridge models.BridgeID) (bool, error) {
	if !h.handler.PumpManagerShouldProvideBLEHeartbeat() {
		return false, nil
	}

	if !h.limiter(bridge).Allow() {
		h.logger.Trace().Str("bridge", bridge.String()).Msg("Heartbeat rate limited")
		return false, nil
	}

	return true, h.handler.PumpManagerBLEHeartbeatDidFire(ctx, bridge)
}

// Subscribe listens for heartbeats on subject until Stop.
func (h *Heartbeat) Subscribe(ctx context.Context, nc *nats.Conn, subject string) error {
	if nc == nil {
		return errNilConn
	}

	if subject == "" {
		subject = DefaultHeartbeatSubject
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sub != nil {
		return errAlreadyStarted
	}

	h.ctx, h.cancel = context.WithCancel(ctx)

	sub, err := nc.Subscribe(subject, h.onMessage)
	if err != nil {
		h.cancel()
		return err
	}

	h.sub = sub

	h.logger.Info().Str("subject", subject).Dur("interval", h.interval).Msg("Listening for bridge heartbeats")

	return nil
}

func (h *Heartbeat) onMessage(msg *nats.Msg) {
	var hb heartbeatMessage
	if err := json.Unmarshal(msg.Data, &hb); err != nil {
		h.logger.Warn().Err(err).Msg("Malformed heartbeat")
		return
	}

	bridge, err := models.ParseBridgeID(hb.BridgeID)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Heartbeat without bridge id")
		return
	}

	h.mu.Lock()
	ctx := h.ctx

	if ctx == nil || ctx.Err() != nil {
		h.mu.Unlock()
		return
	}

	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()

		if _, err := h.Fire(ctx, bridge); err != nil {
			h.logger.Warn().Err(err).Str("bridge", bridge.String()).Msg("Heartbeat cycle failed")
		}
	}()
}

// Stop unsubscribes and waits for in-flight cycles.
func (h *Heartbeat) Stop(ctx context.Context) error {
	h.mu.Lock()
	sub := h.sub
	h.sub = nil

	if h.cancel != nil {
		h.cancel()
	}
	h.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to unsubscribe from heartbeats")
		}
	}

	done := make(chan struct{})

	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
