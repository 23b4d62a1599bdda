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

// Package session runs labelled pump sessions with per-bridge mutual
// exclusion and a typed failure taxonomy.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/metrics"
	"github.com/carverauto/pumpsync/pkg/models"
	"github.com/carverauto/pumpsync/pkg/pumpops"
)

const tracerName = "github.com/carverauto/pumpsync/pkg/session"

// Runner serializes sessions per bridge. Sessions on different bridges run
// independently.
type Runner struct {
	mu    sync.Mutex
	ops   pumpops.PumpOps
	slots map[models.BridgeID]*slot

	logger  logger.Logger
	metrics metrics.Metrics
	tracer  trace.Tracer
}

// slot is a one-token semaphore shared by every caller waiting on a bridge.
// It is dropped from the map once nobody holds or waits for it.
type slot struct {
	sem  chan struct{}
	refs int
}

type Option func(*Runner)

func WithMetrics(m metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

func WithPumpOps(ops pumpops.PumpOps) Option {
	return func(r *Runner) { r.ops = ops }
}

func NewRunner(log logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		slots:   make(map[models.BridgeID]*slot),
		logger:  log,
		metrics: &metrics.NoOpMetrics{},
		tracer:  otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Bind installs or clears (nil) the pump-ops capability. Sessions already
// running keep the capability they started with.
func (r *Runner) Bind(ops pumpops.PumpOps) {
	r.mu.Lock()
	r.ops = ops
	r.mu.Unlock()
}

// Configured reports whether a capability is bound.
func (r *Runner) Configured() bool {
	return r.boundOps() != nil
}

func (r *Runner) boundOps() pumpops.PumpOps {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ops
}

// Run executes op inside a session labelled label on bridge. It waits for any
// session already running on that bridge, and the slot is released on every
// exit path. Failures are returned as *Error; a panic in op is recovered and
// reported as KindOperation.
func Run[T any](ctx context.Context, r *Runner, bridge models.BridgeID, label string,
	op func(ctx context.Context, s pumpops.Session) (T, error)) (T, error) {
	var result T

	err := r.run(ctx, bridge, label, func(ctx context.Context, s pumpops.Session) error {
		v, err := op(ctx, s)
		if err != nil {
			return err
		}

		result = v

		return nil
	})
	if err != nil {
		var zero T

		return zero, err
	}

	return result, nil
}

// Do is Run for operations without a result.
func (r *Runner) Do(ctx context.Context, bridge models.BridgeID, label string,
	op func(ctx context.Context, s pumpops.Session) error) error {
	return r.run(ctx, bridge, label, op)
}

func (r *Runner) run(ctx context.Context, bridge models.BridgeID, label string,
	op func(ctx context.Context, s pumpops.Session) error) error {
	ops := r.boundOps()
	if ops == nil {
		r.logger.Info().Str("bridge", string(bridge)).Str("label", label).Msg("Skipping session, pump comms not configured")

		return ErrNotConfigured
	}

	ctx, span := r.tracer.Start(ctx, label, trace.WithAttributes(
		attribute.String("bridge.id", string(bridge)),
		attribute.String("session.label", label),
	))
	defer span.End()

	r.metrics.RecordSessionAttempt(label)

	start := time.Now()

	err := r.runExclusive(ctx, ops, bridge, label, op)
	duration := time.Since(start)

	if err != nil {
		var serr *Error
		if errors.As(err, &serr) {
			span.SetAttributes(attribute.String("session.error_kind", serr.Kind.String()))
			r.metrics.RecordSessionFailure(label, serr.Kind.String(), duration)
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		r.logger.Warn().Err(err).
			Str("bridge", string(bridge)).
			Str("label", label).
			Dur("duration", duration).
			Msg("Session failed")

		return err
	}

	r.metrics.RecordSessionSuccess(label, duration)

	r.logger.Debug().
		Str("bridge", string(bridge)).
		Str("label", label).
		Dur("duration", duration).
		Msg("Session completed")

	return nil
}

func (r *Runner) runExclusive(ctx context.Context, ops pumpops.PumpOps, bridge models.BridgeID, label string,
	op func(ctx context.Context, s pumpops.Session) error) (err error) {
	release, err := r.acquire(ctx, bridge)
	if err != nil {
		return &Error{Bridge: bridge, Label: label, Kind: KindTransport, Err: err}
	}
	defer release()

	var (
		invoked bool
		opErr   error
	)

	defer func() {
		if p := recover(); p != nil {
			err = &Error{Bridge: bridge, Label: label, Kind: KindTransport,
				Err: fmt.Errorf("%w: pump ops: %v", errPanicked, p)}
		}
	}()

	err = ops.RunSession(ctx, bridge, label, func(ctx context.Context, s pumpops.Session) error {
		invoked = true
		opErr = invokeOp(ctx, s, op)

		return opErr
	})
	if err == nil {
		return nil
	}

	return &Error{Bridge: bridge, Label: label, Kind: classify(ctx, err, invoked, opErr), Err: err}
}

func invokeOp(ctx context.Context, s pumpops.Session, op func(ctx context.Context, s pumpops.Session) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p}
		}
	}()

	return op(ctx, s)
}

type panicError struct {
	value interface{}
}

func (p *panicError) Error() string {
	return fmt.Sprintf("%v: %v", errPanicked, p.value)
}

func (p *panicError) Unwrap() error {
	return errPanicked
}

func classify(ctx context.Context, err error, invoked bool, opErr error) Kind {
	var perr *panicError

	switch {
	case errors.As(err, &perr):
		return KindOperation
	case errors.Is(err, pumpops.ErrTransport),
		errors.Is(err, pumpops.ErrDisconnected),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		ctx.Err() != nil:
		return KindTransport
	case errors.Is(err, pumpops.ErrProtocol):
		return KindProtocol
	case !invoked:
		// the session never opened
		return KindTransport
	case opErr != nil:
		return KindOperation
	default:
		// op succeeded but closing the session failed
		return KindTransport
	}
}

func (r *Runner) acquire(ctx context.Context, bridge models.BridgeID) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()

	s, ok := r.slots[bridge]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		r.slots[bridge] = s
	}

	s.refs++
	r.mu.Unlock()

	select {
	case s.sem <- struct{}{}:
		return func() {
			<-s.sem
			r.unref(bridge, s)
		}, nil
	case <-ctx.Done():
		r.unref(bridge, s)

		return nil, ctx.Err()
	}
}

func (r *Runner) unref(bridge models.BridgeID, s *slot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(r.slots, bridge)
	}
}
