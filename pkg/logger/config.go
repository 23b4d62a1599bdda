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

package logger

import (
	"os"
	"strings"
	"time"

	"github.com/carverauto/pumpsync/pkg/models"
)

// Environment overrides read by DefaultConfig. The OTLP names follow the
// OpenTelemetry exporter conventions.
const (
	envLogLevel      = "LOG_LEVEL"
	envDebug         = "DEBUG"
	envLogOutput     = "LOG_OUTPUT"
	envLogTimeFormat = "LOG_TIME_FORMAT"

	envOTelEnabled  = "OTEL_LOGS_ENABLED"
	envOTelEndpoint = "OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"
	envOTelHeaders  = "OTEL_EXPORTER_OTLP_LOGS_HEADERS"
	envOTelTimeout  = "OTEL_EXPORTER_OTLP_LOGS_TIMEOUT"
	envOTelInsecure = "OTEL_EXPORTER_OTLP_LOGS_INSECURE"
	envServiceName  = "OTEL_SERVICE_NAME"

	defaultServiceName  = "pumpsync"
	defaultBatchTimeout = 5 * time.Second
)

// DefaultConfig is the logging config used when the service config has no
// logging section.
func DefaultConfig() *Config {
	return &Config{
		Level:      envString(envLogLevel, "info"),
		Debug:      envBool(envDebug),
		Output:     envString(envLogOutput, "stdout"),
		TimeFormat: os.Getenv(envLogTimeFormat),
		OTel:       DefaultOTelConfig(),
	}
}

func DefaultOTelConfig() OTelConfig {
	batchTimeout := defaultBatchTimeout
	if d, err := time.ParseDuration(os.Getenv(envOTelTimeout)); err == nil {
		batchTimeout = d
	}

	return OTelConfig{
		Enabled:      envBool(envOTelEnabled),
		Endpoint:     os.Getenv(envOTelEndpoint),
		Headers:      parseHeaders(os.Getenv(envOTelHeaders)),
		ServiceName:  envString(envServiceName, defaultServiceName),
		BatchTimeout: models.Duration(batchTimeout),
		Insecure:     envBool(envOTelInsecure),
	}
}

// parseHeaders reads "k1=v1,k2=v2". Pairs without "=" are skipped.
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return headers
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
