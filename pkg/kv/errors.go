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

package kv

import (
	"errors"
)

var (
	errNatsURLRequired    = errors.New("nats_url is required")
	errSQLitePathRequired = errors.New("sqlite_path is required")
	errUnknownBackend     = errors.New("unknown kv backend")
	errEmptyKey           = errors.New("key must not be empty")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("kv store closed")
)
