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

package devicestate

import (
	"errors"
	"fmt"

	"github.com/carverauto/pumpsync/pkg/models"
)

var (
	errUnsupportedVersion = errors.New("unsupported device state version")
	errNilStore           = errors.New("kv store is required")
)

// PersistenceError reports that a bridge record could not be persisted, or
// could not be read back before an update. Callers treat it as non-fatal; the next cycle retries.
type PersistenceError struct {
	Op     string
	Bridge models.BridgeID
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("device state %s for bridge %s: %v", e.Op, e.Bridge, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
