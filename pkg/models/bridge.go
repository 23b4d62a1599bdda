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

package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const deviceURIScheme = "rileylink://"

var errEmptyBridgeID = errors.New("bridge id is required")

// BridgeID identifies a radio bridge. It is normally the peripheral UUID
// reported by the BLE stack and is never reused within a process lifetime.
type BridgeID string

// ParseBridgeID normalizes a raw bridge identifier. UUIDs are canonicalized to
// their lower-case hyphenated form, anything else is accepted verbatim.
func ParseBridgeID(raw string) (BridgeID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errEmptyBridgeID
	}

	if id, err := uuid.Parse(raw); err == nil {
		return BridgeID(id.String()), nil
	}

	return BridgeID(raw), nil
}

// MustParseBridgeID is ParseBridgeID for static identifiers; it panics on error.
func MustParseBridgeID(raw string) BridgeID {
	id, err := ParseBridgeID(raw)
	if err != nil {
		panic(fmt.Sprintf("models: %v", err))
	}

	return id
}

func (b BridgeID) String() string {
	return string(b)
}

// URI is the source identifier attached to data relayed by this bridge.
func (b BridgeID) URI() string {
	return DeviceURI(string(b))
}

// DeviceURI builds the stable device URI for a bridge display name.
func DeviceURI(name string) string {
	return deviceURIScheme + name
}
