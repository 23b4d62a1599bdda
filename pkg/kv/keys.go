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
	"encoding/base64"
	"strings"
)

const encodedKeyPrefix = "b64."

// Key joins a namespace and an identifier into a key that is valid for every
// backend. NATS KV keys allow only [-/_=.a-zA-Z0-9] and may not begin or end
// with '.', so identifiers outside that alphabet are base64url encoded.
// id must not be empty.
func Key(namespace, id string) string {
	if isSafeKeyToken(id) {
		return namespace + "." + id
	}

	return namespace + "." + encodedKeyPrefix + base64.RawURLEncoding.EncodeToString([]byte(id))
}

func isSafeKeyToken(s string) bool {
	if s == "" || s[0] == '.' || s[len(s)-1] == '.' || strings.HasPrefix(s, encodedKeyPrefix) {
		return false
	}

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '/', r == '_', r == '=', r == '.':
		default:
			return false
		}
	}

	return true
}
