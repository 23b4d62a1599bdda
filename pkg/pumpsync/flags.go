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

import "sync/atomic"

// FeatureFlags is the read-only view of the user's sync settings.
type FeatureFlags interface {
	UploadEnabled() bool
	FetchCGMEnabled() bool
}

// Flags is a FeatureFlags that can be flipped at runtime.
type Flags struct {
	upload atomic.Bool
	cgm    atomic.Bool
}

func NewFlags(upload, fetchCGM bool) *Flags {
	f := &Flags{}
	f.upload.Store(upload)
	f.cgm.Store(fetchCGM)

	return f
}

func (f *Flags) UploadEnabled() bool   { return f.upload.Load() }
func (f *Flags) FetchCGMEnabled() bool { return f.cgm.Load() }

func (f *Flags) SetUploadEnabled(enabled bool)   { f.upload.Store(enabled) }
func (f *Flags) SetFetchCGMEnabled(enabled bool) { f.cgm.Store(enabled) }
