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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/carverauto/pumpsync/pkg/logger"
	"github.com/carverauto/pumpsync/pkg/session"
)

const defaultCycleTimeout = 5 * time.Minute

// Scheduler fires TriggerAll on a cron schedule. A tick that arrives while
// the previous one is still running is skipped.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	cycler  Cycler
	timeout time.Duration
	logger  logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewScheduler parses spec (a cron expression, a descriptor such as
// "@every 5m", or a plain duration) and registers the cycle job.
func NewScheduler(spec string, cycler Cycler, timeout time.Duration, log logger.Logger) (*Scheduler, error) {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = defaultCycleTimeout
	}

	cl := cronLogger{log: log}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		cycler:  cycler,
		timeout: timeout,
		logger:  log,
	}

	s.cron.Schedule(schedule, cron.FuncJob(s.tick))

	return s, nil
}

// Start begins firing. Jobs run with a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errAlreadyStarted
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.started = true

	return nil
}

// Stop cancels the running job, if any, and waits for it to return or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()

	if !s.started {
		s.mu.Unlock()
		return nil
	}

	s.cancel()
	stopCtx := s.cron.Stop()
	s.started = false
	s.mu.Unlock()

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}

	s.RunOnce(ctx)
}

// RunOnce runs one cycle for every active bridge and logs the outcome.
func (s *Scheduler) RunOnce(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.cycler.TriggerAll(cycleCtx)

	switch {
	case err == nil:
		s.logger.Debug().Dur("duration", time.Since(start)).Msg("Scheduled cycle completed")
	case errors.Is(err, session.ErrNotConfigured):
		s.logger.Info().Msg("Scheduled cycle skipped, pump comms not configured")
	default:
		s.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Scheduled cycle failed")
	}
}

// ParseSchedule tries spec as a cron expression first, then as a duration.
func ParseSchedule(spec string) (cron.Schedule, error) {
	if spec == "" {
		return nil, errEmptySchedule
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if sched, err := parser.Parse(spec); err == nil {
		return sched, nil
	}

	d, err := time.ParseDuration(spec)
	if err != nil || d <= 0 {
		return nil, fmt.Errorf("%w: %q", errInvalidSchedule, spec)
	}

	return cron.Every(d), nil
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
