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

// Package version reports the pumpsync build, set through -ldflags
// "-X github.com/carverauto/pumpsync/pkg/version.version=...".
package version

import "runtime/debug"

//nolint:gochecknoglobals // ldflags injection
var (
	version = "dev"
	commit  = ""
)

// Version returns the release version.
func Version() string {
	return version
}

// Commit returns the VCS revision, falling back to the one embedded by the
// Go toolchain when ldflags did not set it.
func Commit() string {
	if commit != "" {
		return commit
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}

	return "unknown"
}

func String() string {
	return "pumpsync " + Version() + " (" + Commit() + ")"
}
