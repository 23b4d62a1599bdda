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

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := commit
	t.Cleanup(func() { commit = old })

	commit = "abc123"

	assert.Equal(t, "dev", Version())
	assert.Equal(t, "abc123", Commit())
	assert.Equal(t, "pumpsync dev (abc123)", String())
}

func TestCommitFallback(t *testing.T) {
	old := commit
	t.Cleanup(func() { commit = old })

	commit = ""

	assert.NotEmpty(t, Commit())
}
