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

import "errors"

var (
	errUnknownBackend        = errors.New("unknown remote backend")
	errNATSConnRequired      = errors.New("nats connection is required for the nats remote backend")
	errPostgresRequired      = errors.New("postgres settings are required for the postgres remote backend")
	errPostgresHostRequired  = errors.New("postgres host is required")
	errPostgresTLSIncomplete = errors.New("postgres tls: cert_file, key_file, and ca_file are required")
	errPostgresCAParse       = errors.New("postgres tls: unable to append CA certificate")
	errNilPool               = errors.New("postgres pool is nil")

	// ErrCircuitOpen is returned while the remote circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("remote circuit open")
)
