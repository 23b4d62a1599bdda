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

package manager

import (
	"errors"

	"github.com/carverauto/pumpsync/pkg/session"
)

// ErrNotConfigured is returned by session-dependent operations while no
// PumpCommsConfig is installed.
var ErrNotConfigured = session.ErrNotConfigured

var (
	errNATSURLRequired  = errors.New("nats_url is required")
	errInvalidTimeZone  = errors.New("invalid time_zone")
	errInvalidBridgeID  = errors.New("invalid auto_connect bridge id")
	errInvalidSchedule  = errors.New("invalid schedule")
	errNegativeParallel = errors.New("max_concurrent_bridges must not be negative")
)
