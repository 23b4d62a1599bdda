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

package metrics

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics records every event as OpenTelemetry instruments and forwards
// it to an inner Metrics, which also serves GetMetrics.
type OTelMetrics struct {
	inner Metrics

	sessionAttempts  metric.Int64Counter
	sessionFailures  metric.Int64Counter
	sessionDuration  metric.Float64Histogram
	tuneOutcomes     metric.Int64Counter
	historyForwarded metric.Int64Counter
	glucoseForwarded metric.Int64Counter
	watermark        metric.Int64Gauge
	cascadeSkipped   metric.Int64Counter
	breakerChanges   metric.Int64Counter
}

var _ Metrics = (*OTelMetrics)(nil)

// NewOTelMetrics creates the pumpsync instruments on meter. A nil inner is
// replaced with NoOpMetrics.
func NewOTelMetrics(meter metric.Meter, inner Metrics) (*OTelMetrics, error) {
	if inner == nil {
		inner = &NoOpMetrics{}
	}

	m := &OTelMetrics{inner: inner}

	var errs []error

	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)

		return c
	}

	m.sessionAttempts = counter("pumpsync.session.attempts", "Device sessions started")
	m.sessionFailures = counter("pumpsync.session.failures", "Device sessions that failed, by kind")
	m.tuneOutcomes = counter("pumpsync.tune.outcomes", "Radio tune attempts, by result")
	m.historyForwarded = counter("pumpsync.history.forwarded", "Pump history events confirmed by the remote")
	m.glucoseForwarded = counter("pumpsync.glucose.forwarded", "Glucose readings confirmed by the remote")
	m.cascadeSkipped = counter("pumpsync.cascade.skipped", "Glucose cascades not run, by reason")
	m.breakerChanges = counter("pumpsync.circuit_breaker.transitions", "Remote circuit breaker state changes")

	var err error

	m.sessionDuration, err = meter.Float64Histogram("pumpsync.session.duration",
		metric.WithDescription("Device session duration"), metric.WithUnit("s"))
	errs = append(errs, err)

	m.watermark, err = meter.Int64Gauge("pumpsync.glucose.watermark",
		metric.WithDescription("Newest confirmed glucose entry"), metric.WithUnit("s"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return m, nil
}

func labelAttr(label string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("session.label", label))
}

func (m *OTelMetrics) RecordSessionAttempt(label string) {
	m.sessionAttempts.Add(context.Background(), 1, labelAttr(label))
	m.inner.RecordSessionAttempt(label)
}

func (m *OTelMetrics) RecordSessionSuccess(label string, duration time.Duration) {
	m.sessionDuration.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(attribute.String("session.label", label), attribute.Bool("success", true)))
	m.inner.RecordSessionSuccess(label, duration)
}

func (m *OTelMetrics) RecordSessionFailure(label, kind string, duration time.Duration) {
	ctx := context.Background()

	m.sessionFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("session.label", label), attribute.String("error.kind", kind)))
	m.sessionDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("session.label", label), attribute.Bool("success", false)))
	m.inner.RecordSessionFailure(label, kind, duration)
}

func (m *OTelMetrics) RecordTuneOutcome(bridge string, success bool) {
	m.tuneOutcomes.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("bridge.id", bridge), attribute.Bool("success", success)))
	m.inner.RecordTuneOutcome(bridge, success)
}

func (m *OTelMetrics) RecordHistoryForwarded(count int) {
	m.historyForwarded.Add(context.Background(), int64(count))
	m.inner.RecordHistoryForwarded(count)
}

func (m *OTelMetrics) RecordGlucoseForwarded(count int) {
	m.glucoseForwarded.Add(context.Background(), int64(count))
	m.inner.RecordGlucoseForwarded(count)
}

func (m *OTelMetrics) RecordWatermarkAdvance(to time.Time) {
	m.watermark.Record(context.Background(), to.Unix())
	m.inner.RecordWatermarkAdvance(to)
}

func (m *OTelMetrics) RecordCascadeSkipped(reason string) {
	m.cascadeSkipped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
	m.inner.RecordCascadeSkipped(reason)
}

func (m *OTelMetrics) RecordCircuitBreakerStateChange(name, from, to string) {
	m.breakerChanges.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("name", name), attribute.String("from", from), attribute.String("to", to)))
	m.inner.RecordCircuitBreakerStateChange(name, from, to)
}

func (m *OTelMetrics) GetMetrics() map[string]interface{} {
	return m.inner.GetMetrics()
}
