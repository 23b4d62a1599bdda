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

package pumpops

import (
	"errors"
)

var (
	// ErrTransport marks a link-level failure such as a timeout.
	ErrTransport = errors.New("pump transport failure")
	// ErrDisconnected marks a bridge that went away mid-session.
	ErrDisconnected = errors.New("bridge disconnected")
	// ErrProtocol marks a malformed or unexpected device response.
	ErrProtocol = errors.New("unexpected pump response")

	errNilConn = errors.New("nats connection is required")
)

// RemoteError is a failure reported by the pump-ops service itself.
type RemoteError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Kind == "" {
		return e.Message
	}

	return e.Kind + ": " + e.Message
}

// Unwrap maps the remote kind onto the package sentinels. Unknown kinds are
// operation failures and unwrap to nothing.
func (e *RemoteError) Unwrap() error {
	switch e.Kind {
	case KindTransport:
		return ErrTransport
	case KindDisconnected:
		return ErrDisconnected
	case KindProtocol:
		return ErrProtocol
	default:
		return nil
	}
}

// Kinds carried in RemoteError.Kind.
const (
	KindTransport    = "transport"
	KindDisconnected = "disconnected"
	KindProtocol     = "protocol"
	KindOperation    = "operation"
)
