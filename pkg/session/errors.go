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

package session

import (
	"errors"
	"fmt"

	"github.com/carverauto/pumpsync/pkg/models"
)

// ErrNotConfigured is returned when no pump-ops capability is bound. It is
// informational: the operation was skipped on purpose.
var ErrNotConfigured = errors.New("pump communications not configured")

var errPanicked = errors.New("session operation panicked")

// Kind classifies a session failure.
type Kind int

const (
	// KindTransport is a link failure, cancellation or disconnect.
	KindTransport Kind = iota + 1
	// KindProtocol is a malformed or unexpected device response.
	KindProtocol
	// KindOperation is the operation's own failure.
	KindOperation
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindOperation:
		return "operation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the only error type a session run returns besides
// ErrNotConfigured.
type Error struct {
	Bridge models.BridgeID
	Label  string
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error in %q session on bridge %s: %v", e.Kind, e.Label, e.Bridge, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a session error of kind.
func IsKind(err error, kind Kind) bool {
	var serr *Error

	return errors.As(err, &serr) && serr.Kind == kind
}
