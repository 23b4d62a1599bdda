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

package pumpsync

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// cascadeGate spaces out glucose cascades after consecutive failures. It is
// open until the first failure; each further failure doubles the wait, and a
// success reopens it.
type cascadeGate struct {
	mu          sync.Mutex
	backoff     *backoff.ExponentialBackOff
	nextAllowed time.Time
}

func newCascadeGate(initial, maxInterval time.Duration) *cascadeGate {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()

	return &cascadeGate{backoff: b}
}

func (g *cascadeGate) Allow(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return !now.Before(g.nextAllowed)
}

func (g *cascadeGate) Record(now time.Time, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err == nil {
		g.backoff.Reset()
		g.nextAllowed = time.Time{}

		return
	}

	g.nextAllowed = now.Add(g.backoff.NextBackOff())
}

func (g *cascadeGate) NextAllowed() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.nextAllowed
}
