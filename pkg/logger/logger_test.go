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
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log, err := New(context.Background(), &Config{Level: "warn", Output: "stderr"})
	require.NoError(t, err)
	require.NotNil(t, log)

	_, err = New(context.Background(), &Config{Level: "chatty"})
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   zerolog.Level
	}{
		{name: "debug flag wins", config: Config{Level: "error", Debug: true}, want: zerolog.DebugLevel},
		{name: "empty is info", config: Config{}, want: zerolog.InfoLevel},
		{name: "explicit", config: Config{Level: "trace"}, want: zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLevel(&tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer

	log := NewWriterLogger(&buf, zerolog.InfoLevel)
	component := log.WithComponent("pumpsync")
	component.Info().Str("bridge", "abc").Msg("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "pumpsync", line["component"])
	assert.Equal(t, "abc", line["bridge"])
	assert.Equal(t, "hello", line["message"])
}

func TestWriterLoggerLevel(t *testing.T) {
	var buf bytes.Buffer

	log := NewWriterLogger(&buf, zerolog.InfoLevel)
	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")

	assert.NotPanics(t, func() { NewTestLogger().Error().Msg("discarded") })
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_HEADERS", "x-token=abc, x-org = pump")
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_TIMEOUT", "2s")

	config := DefaultConfig()

	assert.Equal(t, "debug", config.Level)
	assert.Equal(t, "stdout", config.Output)
	assert.Equal(t, "pumpsync", config.OTel.ServiceName)
	assert.Equal(t, map[string]string{"x-token": "abc", "x-org": "pump"}, config.OTel.Headers)
	assert.Equal(t, "2s", config.OTel.BatchTimeout.Std().String())
	assert.False(t, config.OTel.Enabled)
}

func TestParseHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y"}, parseHeaders(" a = 1 ,junk,b=x=y"))
	assert.Empty(t, parseHeaders(""))
}

func TestTruncateString(t *testing.T) {
	short, cut := truncateString("abc", 10)
	assert.Equal(t, "abc", short)
	assert.False(t, cut)

	long, cut := truncateString(strings.Repeat("x", 20), 10)
	assert.Equal(t, "xxxxxxx...", long)
	assert.True(t, cut)
}

func TestNewOTELWriterRequiresEndpoint(t *testing.T) {
	_, err := NewOTELWriter(context.Background(), OTelConfig{})
	require.ErrorIs(t, err, ErrOTelLoggingDisabled)

	_, err = NewOTELWriter(context.Background(), OTelConfig{Enabled: true})
	require.ErrorIs(t, err, ErrOTelEndpointRequired)
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer

	n, err := NewMultiWriter(&a, &b).Write([]byte("line"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "line", a.String())
	assert.Equal(t, "line", b.String())

	_, err = NewMultiWriter(shortWriter{}).Write([]byte("line"))
	assert.Error(t, err)
}

func TestInitializeMetricsDisabled(t *testing.T) {
	_, err := InitializeMetrics(context.Background(), MetricsConfig{})
	require.ErrorIs(t, err, ErrOTelMetricsDisabled)

	_, err = InitializeMetrics(context.Background(), MetricsConfig{OTel: &OTelConfig{Enabled: true}})
	require.ErrorIs(t, err, ErrOTelMetricsDisabled)

	assert.NoError(t, ShutdownMetrics(context.Background()))
}
